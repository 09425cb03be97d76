package rangefilter

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// buildEdge is one child edge of a buildNode: label plus either a
// subtree (child != nil) or a terminating key (child == nil).
type buildEdge struct {
	label       byte
	child       *buildNode
	terminalKey []byte
}

// buildNode is one node of the explicit trie assembled while keys are
// inserted. It exists only for the lifetime of construction; Finalize
// walks it breadth-first to emit LOUDS-ordered level vectors and then
// discards it.
//
// Building the explicit tree first and encoding it in a separate
// level-order pass (rather than emitting LOUDS vectors directly as keys
// arrive) is this package's adaptation of the append-only, frontier-stack
// construction urkle.Builder uses for its fixed-arity binary crit-bit
// trie: LOUDS order is level order, but sorted-key insertion visits nodes
// in prefix (depth-first) order, so a variable-arity byte trie needs the
// explicit intermediate tree to reconcile the two.
type buildNode struct {
	children    []buildEdge
	isPrefixKey bool
	prefixKeyOf []byte
}

func newLeafChain(key []byte, from int) buildEdge {
	label := key[from]
	if from == len(key)-1 {
		return buildEdge{label: label, terminalKey: append([]byte(nil), key...)}
	}
	child := &buildNode{}
	child.children = append(child.children, newLeafChain(key, from+1))
	return buildEdge{label: label, child: child}
}

// Builder performs append-only construction of a Filter over
// strictly-increasing byte-string keys (spec.md 4.5).
type Builder struct {
	cfg         Config
	root        *buildNode
	lastKey     []byte
	hasInserted bool
	numKeys     uint64
	finalized   bool
}

// NewIncremental starts a builder that accepts keys one at a time via
// Insert, ending with a call to Finalize.
func NewIncremental(opts ...Option) (*Builder, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, root: &buildNode{}}, nil
}

// NewSorted batch-constructs a Filter from keys already in strictly
// ascending byte-lex order.
func NewSorted(keys [][]byte, opts ...Option) (*Filter, error) {
	b, err := NewIncremental(opts...)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if err := b.Insert(k); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsortedInput, err)
		}
	}
	return b.Finalize()
}

// Insert appends key to the trie under construction. key must be
// strictly greater than every previously inserted key; violating that
// returns ErrOutOfOrderInsert and leaves the builder's state untouched
// (spec.md 4.9).
func (b *Builder) Insert(key []byte) error {
	if b.finalized {
		return ErrAlreadyFinalized
	}
	if b.hasInserted && bytes.Compare(key, b.lastKey) <= 0 {
		return ErrOutOfOrderInsert
	}

	if len(key) == 0 {
		b.root.isPrefixKey = true
		b.root.prefixKeyOf = []byte{}
	} else {
		node := b.root
		i := 0
		for {
			label := key[i]
			last := len(node.children) - 1
			matched := last >= 0 && node.children[last].label == label
			if !matched {
				node.children = append(node.children, newLeafChain(key, i))
				break
			}
			if i == len(key)-1 {
				// An existing edge with this exact final label can only
				// belong to a strictly earlier (and thus lexicographically
				// smaller) key; under strict ascending insertion the only
				// way to reach here is a duplicate key, already rejected
				// above.
				break
			}
			edge := &node.children[last]
			if edge.child == nil {
				// Promote: the earlier key that terminated here is a
				// strict prefix of the key being inserted now.
				child := &buildNode{isPrefixKey: true, prefixKeyOf: edge.terminalKey}
				edge.terminalKey = nil
				edge.child = child
			}
			node = edge.child
			i++
		}
	}

	b.lastKey = append(b.lastKey[:0], key...)
	b.hasInserted = true
	b.numKeys++
	return nil
}

// NumKeys reports how many keys have been inserted so far.
func (b *Builder) NumKeys() uint64 { return b.numKeys }

// Finalize closes construction and produces an immutable Filter. The
// builder must not be used afterward.
func (b *Builder) Finalize() (*Filter, error) {
	if b.finalized {
		return nil, ErrAlreadyFinalized
	}
	b.finalized = true
	b.cfg.debugf("rangefilter: finalizing with %d keys", b.numKeys)
	return buildFilter(b.cfg, b.root, b.numKeys)
}

// levelData accumulates one level's LOUDS-Sparse-shaped arrays during the
// breadth-first emission pass, plus the raw (key, level) pair for every
// terminal at this level in visitation order, deferred so Finalize can
// split them into the dense tier's and sparse tier's separate suffix
// stores once sparse_start is known.
type levelData struct {
	labels        []uint16
	hasChild      []bool
	louds         []bool
	nodeCounts    uint32
	nodeEdgeCount []uint32 // len == nodeCounts; edges (incl. any terminator) per node, in node order
	suffixKeys    [][]byte
	suffixLevels  []Level
}

// emitLevels walks root breadth-first, producing one levelData per depth
// (spec.md 4.5). A node that is itself a stored key emits a synthetic
// labelTerminator edge as the first entry of its own children run, giving
// prefix-key and ordinary leaf-edge terminals a single, uniformly
// indexable suffix sequence within a level.
func emitLevels(root *buildNode) []levelData {
	var levels []levelData

	queue := []*buildNode{root}
	level := Level(0)
	for len(queue) > 0 {
		var ld levelData
		ld.nodeCounts = uint32(len(queue))
		var next []*buildNode

		for _, node := range queue {
			first := true
			edgeCount := uint32(0)
			if node.isPrefixKey {
				ld.labels = append(ld.labels, labelTerminator)
				ld.hasChild = append(ld.hasChild, false)
				ld.louds = append(ld.louds, true)
				ld.suffixKeys = append(ld.suffixKeys, node.prefixKeyOf)
				ld.suffixLevels = append(ld.suffixLevels, level)
				first = false
				edgeCount++
			}
			for _, edge := range node.children {
				ld.labels = append(ld.labels, uint16(edge.label))
				ld.louds = append(ld.louds, first)
				first = false
				edgeCount++
				if edge.child != nil {
					ld.hasChild = append(ld.hasChild, true)
					next = append(next, edge.child)
				} else {
					ld.hasChild = append(ld.hasChild, false)
					ld.suffixKeys = append(ld.suffixKeys, edge.terminalKey)
					ld.suffixLevels = append(ld.suffixLevels, level+1)
				}
			}
			ld.nodeEdgeCount = append(ld.nodeEdgeCount, edgeCount)
		}

		levels = append(levels, ld)
		queue = next
		level++
	}
	return levels
}

func buildSuffixes(cfg Config, levels []levelData) *suffixStore {
	sb := newSuffixStoreBuilder(cfg.suffixType, cfg.hashSuffixLen, cfg.realSuffixLen)
	for _, ld := range levels {
		for i, key := range ld.suffixKeys {
			sb.Append(key, ld.suffixLevels[i])
		}
	}
	return sb.Build()
}

// levelSparseBits estimates the sparse encoding cost of one level, in
// bits, per spec.md 4.5: labels + has-child + louds, each accounted for
// at roughly one byte, one bit and one bit per edge respectively.
func levelSparseBits(ld levelData) uint64 {
	n := uint64(len(ld.labels))
	return n*8 + 2*n
}

// levelDenseBits is the dense encoding cost of one level: two 256-bit
// bitmaps (label, child-indicator) per node.
func levelDenseBits(ld levelData) uint64 {
	return uint64(ld.nodeCounts) * denseFanout * 2
}

func buildFilter(cfg Config, root *buildNode, numKeys uint64) (*Filter, error) {
	levels := emitLevels(root)
	height := Level(len(levels))

	sparseStart := Level(0)
	if cfg.includeDense {
		for sparseStart < height {
			ld := levels[sparseStart]
			if float64(levelDenseBits(ld)) > cfg.sparseDenseRatio*float64(levelSparseBits(ld)) {
				break
			}
			sparseStart++
		}
	}
	cfg.debugf("rangefilter: height=%d sparseStart=%d", height, sparseStart)

	denseSuffixes := buildSuffixes(cfg, levels[:sparseStart])
	sparseSuffixes := buildSuffixes(cfg, levels[sparseStart:])

	dense := buildDenseTier(levels[:sparseStart], denseSuffixes, cfg)
	sparse := buildSparseTier(levels, sparseStart, height, dense.numNodes, sparseSuffixes, cfg)

	f := &Filter{
		cfg:     cfg,
		id:      uuid.New(),
		height:  height,
		numKeys: numKeys,
		dense:   dense,
		sparse:  sparse,
	}
	cfg.debugf("rangefilter: finalized %s, %+v", f.id, f.Stats())
	return f, nil
}
