package rangefilter

import "sort"

// labelTerminator is a sentinel label value used by the sparse tier to
// mark a node that terminates a key which is itself a proper prefix of a
// sibling's path (a prefix-key with no room for a distinct child byte).
// It never appears as a real key byte lookup target because lookups only
// ever search for one of the 256 real byte values; the sparse tier tests
// for it explicitly instead of routing it through Search.
const labelTerminator = 256 // out of byte range on purpose

// labelVector is a packed array of child labels for one or more sparse
// trie nodes concatenated together (spec.md 4.3). Entries are widened to
// uint16 rather than byte so that labelTerminator (256, out of byte
// range) can be stored as an ordinary, strictly-greatest label marking a
// node whose own path is a stored key (spec.md 4.5's "prefix-key"
// bookkeeping), without a separate per-node bitvector the way the dense
// tier needs one.
type labelVector struct {
	labels []uint16
}

func newLabelVector(cap int) *labelVector {
	return &labelVector{labels: make([]uint16, 0, cap)}
}

func (lv *labelVector) append(label uint16) { lv.labels = append(lv.labels, label) }

func (lv *labelVector) Len() int { return len(lv.labels) }

func (lv *labelVector) GetLabel(pos uint32) uint16 { return lv.labels[pos] }

// search looks for target in labels[pos : pos+runLen]. On success it
// returns the absolute position of the match and true; on failure it
// returns the position of the first label greater than target (useful for
// seek) and false.
//
// The algorithm switches on run length per spec.md 4.3: short runs use a
// linear scan (branch-predictor friendly, and the common case since most
// sparse nodes have few children); longer runs use binary search since
// labels within a node are strictly increasing. This package does not
// implement the optional SIMD compare-16 path.
func (lv *labelVector) search(target uint16, pos uint32, runLen uint32) (uint32, bool) {
	if runLen <= 12 {
		end := pos + runLen
		for i := pos; i < end; i++ {
			switch {
			case lv.labels[i] == target:
				return i, true
			case lv.labels[i] > target:
				return i, false
			}
		}
		return end, false
	}

	lo, hi := int(pos), int(pos+runLen)
	idx := lo + sort.Search(hi-lo, func(i int) bool {
		return lv.labels[lo+i] >= target
	})
	if idx < hi && lv.labels[idx] == target {
		return uint32(idx), true
	}
	return uint32(idx), false
}

func (lv *labelVector) memoryUsage() uint64 { return uint64(len(lv.labels)) * 2 }
