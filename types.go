package rangefilter

// Word, Position and Level replace the source's platform-dependent
// word_t/position_t/level_t aliases with explicit fixed-width integers.
type (
	// Word is one 64-bit machine word of a packed bit array.
	Word = uint64
	// Position indexes a bit or byte within a single tier's packed arrays.
	Position = uint32
	// Level indexes a depth (byte offset) in a key, 0-based.
	Level = uint32
)

// SuffixType selects how much of a stored key's remaining bytes, beyond
// the path already encoded in the trie, are retained to disambiguate it
// from other keys sharing that path.
type SuffixType uint8

const (
	// SuffixNone stores no disambiguating bits: smallest filter, highest
	// false-positive rate.
	SuffixNone SuffixType = iota
	// SuffixHash stores a fixed-width hash of the key's remaining bytes.
	// A mismatch is conclusive; a match is not (COULD_BE_POSITIVE).
	SuffixHash
	// SuffixReal stores the literal next bits of the key's remaining
	// bytes. A mismatch conclusively rules out the key; comparisons are
	// exact within the stored width.
	SuffixReal
	// SuffixMixed stores both a hash part and a real part.
	SuffixMixed
)

func (t SuffixType) String() string {
	switch t {
	case SuffixNone:
		return "none"
	case SuffixHash:
		return "hash"
	case SuffixReal:
		return "real"
	case SuffixMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Ordering is the tri-state result of comparing a query key against a
// stored suffix. It generalizes the usual -1/0/+1 with a fourth value for
// when a hash-only suffix cannot order the comparison.
type Ordering int8

const (
	OrderLess    Ordering = -1
	OrderEqual   Ordering = 0
	OrderGreater Ordering = 1
	// OrderCouldBePositive marks a hash-suffix match that cannot rule out
	// the compared key; callers must treat the result conservatively.
	OrderCouldBePositive Ordering = 2
)

// defaultSelectSampleRate is the number of 1-bits between consecutive
// select samples (S in spec.md 4.2).
const defaultSelectSampleRate = 64

// defaultSparseDenseRatio is the size-multiple threshold used at Finalize
// to decide sparse_start_level (spec.md 4.5).
const defaultSparseDenseRatio = 16.0

// denseFanout is the fixed branching factor of the dense tier: every byte
// value is a candidate label at a dense node.
const denseFanout = 256

// rankBlockBits is the span, in bits, of one rank basic-block (B in
// spec.md 4.1).
const rankBlockBits = 512
const rankBlockWords = rankBlockBits / 64
