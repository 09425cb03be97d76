package rangefilter

// sparseTier is the lower, variable-arity levels of the trie, stored as
// three parallel per-edge arrays plus a suffix store (spec.md 4.7). Node
// i's children occupy the label/has-child positions between the i-th and
// (i+1)-th set bit of the LOUDS bitvector.
//
// Node ids continue the dense tier's numbering: this tier's first
// startLevel-depth nodes are entry points handed in from dense (or, if
// there is no dense tier, the trie root), and childNodeID for edges
// created within this tier picks up numbering right after them. This
// mirrors loudsSparse in the bobotu-myk SuRF port, adapted to this
// package's exclusive-rank convention (rankBitVector.Rank1 excludes the
// queried position).
type sparseTier struct {
	height         Level
	startLevel     Level
	denseNodeCount uint32
	childBase      uint32 // denseNodeCount + node count of the entry level

	labels   *labelVector
	hasChild *rankBitVector
	louds    *selectBitVector
	suffixes *suffixStore
}

func buildSparseTier(levels []levelData, startLevel, height Level, denseNodeCount uint32, suffixes *suffixStore, cfg Config) *sparseTier {
	st := &sparseTier{
		height:         height,
		startLevel:     startLevel,
		denseNodeCount: denseNodeCount,
	}
	if startLevel >= height {
		st.labels = newLabelVector(0)
		st.hasChild = newRankBitVector(0)
		st.louds = newSelectBitVector(0, cfg.selectSampleRate)
		st.louds.build()
		st.suffixes = suffixes
		return st
	}

	st.childBase = denseNodeCount + levels[startLevel].nodeCounts

	var totalEdges uint64
	for _, ld := range levels[startLevel:] {
		totalEdges += uint64(len(ld.labels))
	}

	st.labels = newLabelVector(int(totalEdges))
	st.hasChild = newRankBitVector(totalEdges)
	st.louds = newSelectBitVector(totalEdges, cfg.selectSampleRate)

	var pos uint64
	for _, ld := range levels[startLevel:] {
		for i, label := range ld.labels {
			st.labels.append(label)
			if ld.hasChild[i] {
				st.hasChild.SetBit(pos)
			}
			if ld.louds[i] {
				st.louds.SetBit(pos)
			}
			pos++
		}
	}

	st.hasChild.build()
	st.louds.build()
	st.suffixes = suffixes
	cfg.debugf("rangefilter: sparse tier built, %d edges from level %d", totalEdges, startLevel)
	return st
}

func (st *sparseTier) empty() bool { return st.labels.Len() == 0 }

func (st *sparseTier) firstLabelPos(nodeID uint32) uint32 {
	return uint32(st.louds.Select1(uint64(nodeID-st.denseNodeCount) + 1))
}

func (st *sparseTier) lastLabelPos(nodeID uint32) uint32 {
	nextRank := uint64(nodeID-st.denseNodeCount) + 2
	if nextRank > st.louds.numOnes {
		return uint32(st.louds.numBits - 1)
	}
	return uint32(st.louds.Select1(nextRank) - 1)
}

func (st *sparseTier) nodeSize(nodeID uint32) uint32 {
	return st.lastLabelPos(nodeID) - st.firstLabelPos(nodeID) + 1
}

func (st *sparseTier) childNodeID(pos uint32) uint32 {
	return st.childBase + uint32(st.hasChild.Rank1(uint64(pos)))
}

func (st *sparseTier) suffixPos(pos uint32) uint32 {
	return pos - uint32(st.hasChild.Rank1(uint64(pos)))
}

func (st *sparseTier) isEndOfNode(pos uint32) bool {
	return pos == uint32(st.louds.numBits)-1 || st.louds.ReadBit(uint64(pos)+1)
}

// realChildrenRange returns the sub-range of nodeID's edge run holding its
// ordinary byte-labeled children, excluding a leading labelTerminator
// entry if present. labelVector.search assumes its run is sorted
// ascending by raw label value; labelTerminator's value (256) sorts
// numerically last even though it is always placed first positionally
// (spec.md 4.5's "prefix-key sorts before any of its own extensions"), so
// any search for a real byte value must exclude it explicitly rather than
// pass it through search's ordinary comparison.
func (st *sparseTier) realChildrenRange(nodeID uint32) (pos uint32, runLen uint32) {
	pos = st.firstLabelPos(nodeID)
	runLen = st.nodeSize(nodeID)
	if st.labels.GetLabel(pos) == labelTerminator {
		return pos + 1, runLen - 1
	}
	return pos, runLen
}

// Lookup continues a descent begun in the dense tier (or starts fresh at
// the trie root if there is no dense tier) at nodeID, level.
func (st *sparseTier) Lookup(key []byte, nodeID uint32, level Level) lookupResult {
	for ; int(level) < len(key); level++ {
		pos, runLen := st.realChildrenRange(nodeID)
		found, ok := st.labels.search(uint16(key[level]), pos, runLen)
		if !ok {
			return lookupResult{done: true, found: false}
		}
		if !st.hasChild.ReadBit(uint64(found)) {
			i := st.suffixPos(found)
			cmp := st.suffixes.Compare(i, key, level+1)
			switch cmp {
			case OrderEqual:
				return lookupResult{done: true, found: true}
			case OrderCouldBePositive:
				return lookupResult{done: true, found: true, couldBePositive: true}
			default:
				return lookupResult{done: true, found: false}
			}
		}
		nodeID = st.childNodeID(found)
	}

	// Key fully consumed while landing on a node: it matches only if that
	// node is itself a stored key, encoded as this node's terminator edge.
	first := st.firstLabelPos(nodeID)
	if st.labels.GetLabel(first) == labelTerminator && !st.hasChild.ReadBit(uint64(first)) {
		i := st.suffixPos(first)
		ok := st.suffixes.CheckEquality(i, key, level)
		return lookupResult{done: true, found: ok}
	}
	return lookupResult{done: true, found: false}
}

// rangeLeafCount counts entries in the sparse tier's flat array range
// [fromPos, toPos) that resolve to a stored key (has-child clear),
// mirroring the has-child rank accounting Lookup and suffixPos already
// use (spec.md 4.7). A leading labelTerminator entry is itself a stored
// key and always has its has-child bit clear, so it is already included
// without special-casing.
func (st *sparseTier) rangeLeafCount(fromPos, toPos uint32) uint32 {
	if toPos <= fromPos {
		return 0
	}
	children := st.hasChild.Rank1(uint64(toPos)) - st.hasChild.Rank1(uint64(fromPos))
	return (toPos - fromPos) - uint32(children)
}

// subtreeCount counts every stored (or false-positive) key reachable
// under node's entire subtree. Runs of leaf positions are counted in one
// rank operation via rangeLeafCount; only has-child positions are visited
// individually, to descend into their own subtrees.
func (st *sparseTier) subtreeCount(node uint32, level Level) uint64 {
	first := st.firstLabelPos(node)
	last := st.lastLabelPos(node)
	count := uint64(st.rangeLeafCount(first, last+1))
	for pos := first; pos <= last; pos++ {
		if st.hasChild.ReadBit(uint64(pos)) {
			count += st.subtreeCount(st.childNodeID(pos), level+1)
		}
	}
	return count
}

func (st *sparseTier) memoryUsage() uint64 {
	if st == nil {
		return 0
	}
	return st.labels.memoryUsage() + st.hasChild.memoryUsage() + st.louds.memoryUsage() + st.suffixes.memoryUsage()
}
