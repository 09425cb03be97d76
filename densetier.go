package rangefilter

// denseTier is the upper, fixed 256-way-fanout levels of the trie
// (spec.md 4.6). Every node occupies exactly one 256-bit block in each
// of labelBitmap and childIndicator; nodes are numbered in level order
// starting at 0 for the root, matching the order their parent edge is
// encountered scanning childIndicator left to right.
type denseTier struct {
	height         Level // number of dense levels (== sparse tier's start level)
	numNodes       uint32
	levelCuts      []uint32 // node count per level, len == height; serialized verbatim (spec.md 6)
	labelBitmap    *rankBitVector
	childIndicator *rankBitVector
	prefixKey      *rankBitVector // one bit per node
	suffixes       *suffixStore
}

func buildDenseTier(levels []levelData, suffixes *suffixStore, cfg Config) *denseTier {
	height := Level(len(levels))
	var numNodes uint32
	levelCuts := make([]uint32, height)
	for i, ld := range levels {
		numNodes += ld.nodeCounts
		levelCuts[i] = ld.nodeCounts
	}

	dt := &denseTier{
		height:         height,
		numNodes:       numNodes,
		levelCuts:      levelCuts,
		labelBitmap:    newRankBitVector(uint64(numNodes) * denseFanout),
		childIndicator: newRankBitVector(uint64(numNodes) * denseFanout),
		prefixKey:      newRankBitVector(uint64(numNodes)),
		suffixes:       suffixes,
	}

	// Node ids within a level are assigned in the same order emitLevels
	// visited them; nodeEdgeCount lets us slice each level's flat arrays
	// back into per-node runs without re-deriving boundaries from louds.
	node := uint32(0)
	for _, ld := range levels {
		i := 0
		for n := uint32(0); n < ld.nodeCounts; n++ {
			end := i + int(ld.nodeEdgeCount[n])
			for ; i < end; i++ {
				if ld.labels[i] == labelTerminator {
					dt.prefixKey.SetBit(uint64(node))
					continue
				}
				pos := uint64(node)*denseFanout + uint64(ld.labels[i])
				dt.labelBitmap.SetBit(pos)
				if ld.hasChild[i] {
					dt.childIndicator.SetBit(pos)
				}
			}
			node++
		}
	}

	dt.labelBitmap.build()
	dt.childIndicator.build()
	dt.prefixKey.build()
	cfg.debugf("rangefilter: dense tier built, %d nodes over %d levels", numNodes, height)
	return dt
}

func (dt *denseTier) suffixPosForEdge(pos uint64) uint32 {
	node := pos / denseFanout
	base := dt.labelBitmap.Rank1(pos) - dt.childIndicator.Rank1(pos)
	pre := dt.prefixKey.Rank1(node + 1)
	return uint32(base + pre)
}

func (dt *denseTier) suffixPosForPrefixKey(node uint64) uint32 {
	pos := node * denseFanout
	base := dt.labelBitmap.Rank1(pos) - dt.childIndicator.Rank1(pos)
	pre := dt.prefixKey.Rank1(node)
	return uint32(base + pre)
}

// childNodeID resolves the edge at pos to the id of the node it points
// to. That node may itself be a further dense node, or (when pos lies in
// the last dense level) the entry point into the sparse tier; both cases
// share this one formula since node ids are assigned in a single,
// continuous BFS order across both tiers.
func (dt *denseTier) childNodeID(pos uint64) uint32 {
	return uint32(1 + dt.childIndicator.Rank1(pos))
}

// lookupResult is what a dense (or sparse) tier reports about descent
// through it: either a definitive answer, or a handoff to continue in
// the sparse tier from a given node.
type lookupResult struct {
	done           bool
	found          bool
	couldBePositive bool
	nextNode       uint32
	nextLevel      Level
}

// Lookup descends the dense tier consuming key[0:] one byte per level.
// See spec.md 4.6.
func (dt *denseTier) Lookup(key []byte) lookupResult {
	var node uint32
	var level Level
	for level = 0; level < dt.height; level++ {
		if int(level) >= len(key) {
			if !dt.prefixKey.ReadBit(uint64(node)) {
				return lookupResult{done: true, found: false}
			}
			i := dt.suffixPosForPrefixKey(uint64(node))
			ok := dt.suffixes.CheckEquality(i, key, level)
			return lookupResult{done: true, found: ok}
		}
		pos := uint64(node)*denseFanout + uint64(key[level])
		if !dt.labelBitmap.ReadBit(pos) {
			return lookupResult{done: true, found: false}
		}
		if !dt.childIndicator.ReadBit(pos) {
			i := dt.suffixPosForEdge(pos)
			cmp := dt.suffixes.Compare(i, key, level+1)
			switch cmp {
			case OrderEqual:
				return lookupResult{done: true, found: true}
			case OrderCouldBePositive:
				return lookupResult{done: true, found: true, couldBePositive: true}
			default:
				return lookupResult{done: true, found: false}
			}
		}
		node = dt.childNodeID(pos)
	}
	return lookupResult{done: false, nextNode: node, nextLevel: dt.height}
}

// rangeLeafCount counts entries in the dense tier's flat position range
// [fromPos, toPos) that resolve to a stored key at this level (labelBitmap
// set, childIndicator clear): the same rank subtraction getSuffixPos uses
// (spec.md 4.6; original_source/include/louds_dense.hpp's approxCount and
// getSuffixPos), applied over a range instead of a single position. Both
// bitmaps are flat across every dense node, so fromPos and toPos may span
// multiple sibling nodes at the same level.
func (dt *denseTier) rangeLeafCount(fromPos, toPos uint64) uint32 {
	if toPos <= fromPos {
		return 0
	}
	labels := dt.labelBitmap.Rank1(toPos) - dt.labelBitmap.Rank1(fromPos)
	children := dt.childIndicator.Rank1(toPos) - dt.childIndicator.Rank1(fromPos)
	return uint32(labels - children)
}

// subtreeCount counts every stored (or false-positive) key reachable
// under node's entire subtree, including any handoff into sparse. It
// visits only internal trie nodes via rank arithmetic and never
// materializes a key, unlike walking the subtree with an Iter.
func (dt *denseTier) subtreeCount(node uint32, level Level, sparse *sparseTier) uint64 {
	base := uint64(node) * denseFanout
	count := uint64(dt.rangeLeafCount(base, base+denseFanout))
	if dt.prefixKey.ReadBit(uint64(node)) {
		count++
	}
	for b := 0; b < denseFanout; b++ {
		pos := base + uint64(b)
		if !dt.childIndicator.ReadBit(pos) {
			continue
		}
		child := dt.childNodeID(pos)
		if level+1 < dt.height {
			count += dt.subtreeCount(child, level+1, sparse)
		} else {
			count += sparse.subtreeCount(child, level+1)
		}
	}
	return count
}

func (dt *denseTier) memoryUsage() uint64 {
	if dt == nil {
		return 0
	}
	return dt.labelBitmap.memoryUsage() + dt.childIndicator.memoryUsage() +
		dt.prefixKey.memoryUsage() + dt.suffixes.memoryUsage()
}
