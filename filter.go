package rangefilter

import (
	"bytes"

	"github.com/google/uuid"
)

// Filter is an immutable, approximate range-membership filter over
// ordered byte-string keys (spec.md 1). It is safe for concurrent use by
// multiple goroutines without external synchronization: every field set
// after Finalize is read-only for the rest of the Filter's life (spec.md
// 5, and SPEC_FULL.md C.3 on why no atomic guard is needed on top of
// that).
type Filter struct {
	cfg     Config
	id      uuid.UUID
	height  Level
	numKeys uint64
	dense   *denseTier
	sparse  *sparseTier
}

// ID identifies this Filter instance, minted at Finalize. It rides inside
// the serialized blob so a host storage engine can correlate a persisted
// blob back to the in-memory filter that produced it (SPEC_FULL.md B).
func (f *Filter) ID() uuid.UUID { return f.id }

// NumKeys reports how many keys were inserted before Finalize.
func (f *Filter) NumKeys() uint64 { return f.numKeys }

// Height is the trie's total depth in levels (bytes of key consumed along
// the longest path).
func (f *Filter) Height() Level { return f.height }

// SparseStartLevel is the depth at which the sparse tier begins. It equals
// Height when the whole trie was encoded dense, and 0 when
// WithIncludeDense(false) was used.
func (f *Filter) SparseStartLevel() Level { return f.dense.height }

// LookupKey reports whether key is possibly a member: false is always
// correct, true may be a false positive (spec.md 4.8).
func (f *Filter) LookupKey(key []byte) bool {
	if f.numKeys == 0 {
		return false
	}
	res := f.dense.Lookup(key)
	if !res.done {
		res = f.sparse.Lookup(key, res.nextNode, res.nextLevel)
	}
	return res.found
}

// LookupRange reports whether the trie contains, or might contain, a key
// within [lkey, rkey] (bounds inclusive per lInclusive/rInclusive). false
// is always correct; true may be a false positive (spec.md 4.8).
func (f *Filter) LookupRange(lkey []byte, lInclusive bool, rkey []byte, rInclusive bool) bool {
	if f.numKeys == 0 {
		return false
	}
	it := f.MoveToKeyGreaterThan(lkey, lInclusive)
	if !it.Valid() {
		return false
	}
	switch it.Compare(rkey) {
	case OrderLess, OrderCouldBePositive:
		return true
	case OrderEqual:
		return rInclusive
	default:
		return false
	}
}

// ApproxCount estimates the number of stored (or false-positive) keys in
// [l, r], both inclusive. It descends both boundary paths together
// (spec.md 4.6/4.7, original_source/include/louds_dense.hpp's
// approxCount), applying each tier's own rank-based leaf accounting
// (denseTier.rangeLeafCount/subtreeCount, sparseTier.rangeLeafCount/
// subtreeCount) rather than materializing and counting every key in the
// range: only nodes on the two boundary paths, plus the roots of fully
// enclosed subtrees between them, are ever visited directly. Per spec.md
// 9(b) the source's own bit-accounting undercounts by at most 2; this
// counts exactly.
func (f *Filter) ApproxCount(l, r []byte) uint64 {
	if f.numKeys == 0 || bytes.Compare(l, r) > 0 {
		return 0
	}
	return f.countRange(0, 0, l, r, true, true)
}

// countRange counts stored (or false-positive) keys under node's subtree
// at level whose full key lies in [lo, hi]. onLeft/onRight report whether
// the path taken to reach node still tracks lo/hi exactly; once both are
// false the whole subtree qualifies and is counted via subtreeCount
// without further per-byte comparison.
func (f *Filter) countRange(node uint32, level Level, lo, hi []byte, onLeft, onRight bool) uint64 {
	if !onLeft && !onRight {
		if level < f.dense.height {
			return f.dense.subtreeCount(node, level, f.sparse)
		}
		return f.sparse.subtreeCount(node, level)
	}
	if level < f.dense.height {
		return f.denseCountRange(node, level, lo, hi, onLeft, onRight)
	}
	return f.sparseCountRange(node, level, lo, hi, onLeft, onRight)
}

func (f *Filter) denseCountRange(node uint32, level Level, lo, hi []byte, onLeft, onRight bool) uint64 {
	if onLeft && int(level) >= len(lo) {
		onLeft = false
	}
	hiExhausted := onRight && int(level) >= len(hi)

	var count uint64
	if !onLeft && f.dense.prefixKey.ReadBit(uint64(node)) {
		count++
	}
	if hiExhausted {
		// hi has no more bytes: any child edge would make the key longer
		// than hi, which sorts after it, so only node's own path (just
		// counted above) can still qualify.
		return count
	}

	lowB, highB := 0, denseFanout-1
	if onLeft {
		lowB = int(lo[level])
	}
	if onRight {
		highB = int(hi[level])
	}
	if lowB > highB {
		return count
	}
	if lowB == highB {
		return count + f.denseVisitEdge(node, level, lowB, lo, hi, onLeft, onRight)
	}

	count += f.denseVisitEdge(node, level, lowB, lo, hi, onLeft, false)
	count += f.denseVisitEdge(node, level, highB, lo, hi, false, onRight)

	if lowB+1 < highB {
		base := uint64(node) * denseFanout
		count += uint64(f.dense.rangeLeafCount(base+uint64(lowB+1), base+uint64(highB)))
		for b := lowB + 1; b < highB; b++ {
			pos := base + uint64(b)
			if f.dense.childIndicator.ReadBit(pos) {
				count += f.countRange(f.dense.childNodeID(pos), level+1, lo, hi, false, false)
			}
		}
	}
	return count
}

func (f *Filter) denseVisitEdge(node uint32, level Level, b int, lo, hi []byte, edgeOnLeft, edgeOnRight bool) uint64 {
	pos := uint64(node)*denseFanout + uint64(b)
	if !f.dense.labelBitmap.ReadBit(pos) {
		return 0
	}
	if f.dense.childIndicator.ReadBit(pos) {
		return f.countRange(f.dense.childNodeID(pos), level+1, lo, hi, edgeOnLeft, edgeOnRight)
	}
	i := f.dense.suffixPosForEdge(pos)
	if edgeOnLeft && f.dense.suffixes.Compare(i, lo, level+1) == OrderLess {
		return 0
	}
	if edgeOnRight && f.dense.suffixes.Compare(i, hi, level+1) == OrderGreater {
		return 0
	}
	return 1
}

func (f *Filter) sparseCountRange(node uint32, level Level, lo, hi []byte, onLeft, onRight bool) uint64 {
	if onLeft && int(level) >= len(lo) {
		onLeft = false
	}
	hiExhausted := onRight && int(level) >= len(hi)

	first := f.sparse.firstLabelPos(node)
	hasTerminator := f.sparse.labels.GetLabel(first) == labelTerminator

	var count uint64
	if hasTerminator && !onLeft {
		count++
	}
	if hiExhausted {
		return count
	}

	pos, size := f.sparse.realChildrenRange(node)
	if size == 0 {
		return count
	}
	lowB, highB := 0, 255
	if onLeft {
		lowB = int(lo[level])
	}
	if onRight {
		highB = int(hi[level])
	}
	if lowB > highB {
		return count
	}
	if lowB == highB {
		if idx, ok := f.sparse.labels.search(uint16(lowB), pos, size); ok {
			count += f.sparseVisitEdge(idx, level, lo, hi, onLeft, onRight)
		}
		return count
	}

	middleStart, middleEnd := pos, pos+size
	if onLeft {
		idx, ok := f.sparse.labels.search(uint16(lowB), pos, size)
		if ok {
			count += f.sparseVisitEdge(idx, level, lo, hi, true, false)
			idx++
		}
		middleStart = idx
	}
	if onRight {
		idx, ok := f.sparse.labels.search(uint16(highB), pos, size)
		if ok {
			count += f.sparseVisitEdge(idx, level, lo, hi, false, true)
		}
		middleEnd = idx
	}
	if middleStart < middleEnd {
		count += uint64(f.sparse.rangeLeafCount(middleStart, middleEnd))
		for p := middleStart; p < middleEnd; p++ {
			if f.sparse.hasChild.ReadBit(uint64(p)) {
				count += f.countRange(f.sparse.childNodeID(p), level+1, lo, hi, false, false)
			}
		}
	}
	return count
}

func (f *Filter) sparseVisitEdge(idx uint32, level Level, lo, hi []byte, edgeOnLeft, edgeOnRight bool) uint64 {
	if f.sparse.hasChild.ReadBit(uint64(idx)) {
		return f.countRange(f.sparse.childNodeID(idx), level+1, lo, hi, edgeOnLeft, edgeOnRight)
	}
	i := f.sparse.suffixPos(idx)
	if edgeOnLeft && f.sparse.suffixes.Compare(i, lo, level+1) == OrderLess {
		return 0
	}
	if edgeOnRight && f.sparse.suffixes.Compare(i, hi, level+1) == OrderGreater {
		return 0
	}
	return 1
}

// MemoryUsage is a breakdown of a finalized Filter's resident size, in
// bytes, mirroring the shape of the teacher's size-report structs
// (SPEC_FULL.md C.1).
type MemoryUsage struct {
	Dense    uint64
	Sparse   uint64
	Suffixes uint64
	Total    uint64
}

// MemoryUsage reports how a finalized Filter's bytes are distributed
// across tiers.
func (f *Filter) MemoryUsage() MemoryUsage {
	dense := f.dense.memoryUsage()
	sparse := f.sparse.memoryUsage()
	var suffixes uint64
	if f.dense != nil && f.dense.suffixes != nil {
		suffixes += f.dense.suffixes.memoryUsage()
	}
	if f.sparse != nil && f.sparse.suffixes != nil {
		suffixes += f.sparse.suffixes.memoryUsage()
	}
	return MemoryUsage{
		Dense:    dense,
		Sparse:   sparse,
		Suffixes: suffixes,
		Total:    dense + sparse,
	}
}

// Stats is a read-only snapshot of construction diagnostics, returned by
// Filter.Stats and logged at debug level by Finalize (SPEC_FULL.md C.2).
type Stats struct {
	NumKeys          uint64
	Height           Level
	SparseStartLevel Level
	NumDenseNodes    uint32
	NumSparseNodes   uint32
	BitsPerKey       float64
}

// Stats reports construction diagnostics for a finalized Filter.
func (f *Filter) Stats() Stats {
	var numSparseNodes uint32
	if !f.sparse.empty() {
		numSparseNodes = uint32(f.sparse.louds.numOnes)
	}
	var bitsPerKey float64
	if f.numKeys > 0 {
		bitsPerKey = float64(f.MemoryUsage().Total*8) / float64(f.numKeys)
	}
	return Stats{
		NumKeys:          f.numKeys,
		Height:           f.height,
		SparseStartLevel: f.dense.height,
		NumDenseNodes:    f.dense.numNodes,
		NumSparseNodes:   numSparseNodes,
		BitsPerKey:       bitsPerKey,
	}
}
