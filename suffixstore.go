package rangefilter

import "github.com/spaolacci/murmur3"

// suffixStore holds one packed variable-width entry per terminal position
// (a leaf edge or a prefix-key), in the enumeration order those terminals
// are visited by ascending trie traversal (spec.md 4.4, invariant 3).
//
// Entry width is hashLen+realLen bits: the real bits occupy the low
// realLen bits of the packed value and the hash bits sit above them, so a
// suffixType of SuffixReal or SuffixHash alone simply leaves the other
// field's width at zero.
type suffixStore struct {
	suffixType SuffixType
	hashLen    uint8
	realLen    uint8
	entries    *packedBitArray
}

func (s *suffixStore) width() uint8 { return s.hashLen + s.realLen }

func (s *suffixStore) hasHash() bool {
	return s.suffixType == SuffixHash || s.suffixType == SuffixMixed
}

func (s *suffixStore) hasReal() bool {
	return s.suffixType == SuffixReal || s.suffixType == SuffixMixed
}

// hashSuffix computes a deterministic, uniformly-distributed hash of
// key[level:], truncated to hashLen bits. murmur3 (used elsewhere in the
// example pack for content-addressed lookups) stands in for the source's
// unspecified ad-hoc rolling hash; per spec.md 4.4 and the Design Notes,
// any deterministic hash with reasonable avalanche behavior is a valid
// substitute, at the cost of cross-implementation file compatibility.
func hashSuffix(key []byte, level Level, hashLen uint8) uint64 {
	if hashLen == 0 {
		return 0
	}
	var remaining []byte
	if int(level) < len(key) {
		remaining = key[level:]
	}
	h := murmur3.Sum64(remaining)
	if hashLen >= 64 {
		return h
	}
	return h & widthMask(hashLen)
}

// realSuffixBits reads up to realLen bits, MSB-first, starting at
// key[level:], zero-padding past the end of key. The bits are returned
// right-justified (i.e. as an ordinary big-endian unsigned integer of
// width realLen), so two real suffixes compare correctly with plain
// unsigned integer comparison.
func realSuffixBits(key []byte, level Level, realLen uint8) uint64 {
	if realLen == 0 {
		return 0
	}
	var out uint64
	need := realLen
	pos := level
	for need > 0 {
		var b byte
		if int(pos) < len(key) {
			b = key[pos]
		}
		take := uint8(8)
		if need < 8 {
			take = need
			b = b >> (8 - take)
		}
		out = out<<take | uint64(b)
		need -= take
		pos++
	}
	return out
}

// pack combines the hash and real parts into one entry value, hash bits
// occupying the low realLen..width bits (real bits are stored in the low
// realLen bits so read_real can mask them off without needing hashLen).
func (s *suffixStore) pack(key []byte, level Level) uint64 {
	var v uint64
	if s.hasReal() {
		v |= realSuffixBits(key, level, s.realLen)
	}
	if s.hasHash() {
		v |= hashSuffix(key, level, s.hashLen) << s.realLen
	}
	return v
}

// CheckEquality reports whether the key's suffix at (level onward) agrees
// with the stored suffix at slot i, on every configured part. A
// suffixType of SuffixNone always agrees (no data to disagree on), which
// is how filters with no suffix accept a controlled false-positive rate.
func (s *suffixStore) CheckEquality(i uint32, key []byte, level Level) bool {
	if s.suffixType == SuffixNone || s.entries == nil {
		return true
	}
	stored := s.entries.get(i)
	if s.hasReal() {
		want := realSuffixBits(key, level, s.realLen)
		got := stored & widthMask(s.realLen)
		if want != got {
			return false
		}
	}
	if s.hasHash() {
		want := hashSuffix(key, level, s.hashLen)
		got := (stored >> s.realLen) & widthMask(s.hashLen)
		if want != got {
			return false
		}
	}
	return true
}

// Compare orders the stored suffix at slot i against key's suffix (from
// level onward): OrderLess when the stored suffix sorts before key's,
// OrderGreater when it sorts after. When a real part is configured it
// decides the ordering exactly. When only a hash part is configured, equality of the
// hashes cannot be trusted to mean equality of the underlying keys, so a
// match reports OrderCouldBePositive instead of OrderEqual; a mismatch is
// reported as Less/Greater purely to give seek a deterministic direction
// to continue in, per spec.md 4.4 and 9(a).
func (s *suffixStore) Compare(i uint32, key []byte, level Level) Ordering {
	if s.suffixType == SuffixNone || s.entries == nil {
		return OrderCouldBePositive
	}
	stored := s.entries.get(i)

	if s.hasReal() {
		want := realSuffixBits(key, level, s.realLen)
		got := stored & widthMask(s.realLen)
		switch {
		case got < want:
			return OrderLess
		case got > want:
			return OrderGreater
		}
		return OrderEqual
	}

	// hash-only
	want := hashSuffix(key, level, s.hashLen)
	got := (stored >> s.realLen) & widthMask(s.hashLen)
	switch {
	case want == got:
		return OrderCouldBePositive
	case got < want:
		return OrderLess
	default:
		return OrderGreater
	}
}

// ReadReal returns the raw real bits at slot i, right-justified. Iteration
// reports it as part of a key's recovered suffix.
func (s *suffixStore) ReadReal(i uint32) uint64 {
	if s.entries == nil || !s.hasReal() {
		return 0
	}
	return s.entries.get(i) & widthMask(s.realLen)
}

func (s *suffixStore) NumEntries() uint32 {
	if s.entries == nil {
		return 0
	}
	return s.entries.count
}

func (s *suffixStore) memoryUsage() uint64 {
	if s.entries == nil {
		return 0
	}
	return s.entries.memoryUsage()
}

// suffixStoreBuilder accumulates suffix values in terminal-enumeration
// order during Insert/Finalize; Build packs them once the final count is
// known.
type suffixStoreBuilder struct {
	suffixType SuffixType
	hashLen    uint8
	realLen    uint8
	values     []uint64
}

func newSuffixStoreBuilder(suffixType SuffixType, hashLen, realLen uint8) *suffixStoreBuilder {
	return &suffixStoreBuilder{suffixType: suffixType, hashLen: hashLen, realLen: realLen}
}

func (b *suffixStoreBuilder) tmp() *suffixStore {
	return &suffixStore{suffixType: b.suffixType, hashLen: b.hashLen, realLen: b.realLen}
}

// Append records the suffix for a key terminating at level.
func (b *suffixStoreBuilder) Append(key []byte, level Level) {
	if b.suffixType == SuffixNone {
		b.values = append(b.values, 0)
		return
	}
	b.values = append(b.values, b.tmp().pack(key, level))
}

func (b *suffixStoreBuilder) Len() int { return len(b.values) }

func (b *suffixStoreBuilder) Build() *suffixStore {
	s := b.tmp()
	width := s.width()
	entries := newPackedBitArray(uint32(len(b.values)), width)
	for i, v := range b.values {
		entries.set(uint32(i), v)
	}
	s.entries = entries
	return s
}
