package rangefilter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sortedKeys(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

func TestFilterLookupKeyBasic(t *testing.T) {
	keys := sortedKeys("apple", "banana", "cherry", "date", "fig")
	f, err := NewSorted(keys, WithSuffixType(SuffixReal), WithRealSuffixLen(16))
	require.NoError(t, err)

	for _, k := range keys {
		require.True(t, f.LookupKey(k), "expected %q present", k)
	}
	for _, k := range sortedKeys("apricot", "grape", "aardvark", "zebra") {
		require.False(t, f.LookupKey(k), "expected %q absent", k)
	}
}

func TestFilterLookupKeyEmptyFilter(t *testing.T) {
	f, err := NewSorted(nil)
	require.NoError(t, err)
	require.False(t, f.LookupKey([]byte("anything")))
	require.Equal(t, uint64(0), f.NumKeys())
}

func TestFilterSuffixNoneCanFalsePositiveButNeverFalseNegative(t *testing.T) {
	keys := sortedKeys("apple", "banana", "cherry")
	f, err := NewSorted(keys, WithSuffixType(SuffixNone))
	require.NoError(t, err)
	for _, k := range keys {
		require.True(t, f.LookupKey(k))
	}
	// With SuffixNone a terminal edge keeps no bits beyond the trie path,
	// so a key that extends a stored key past its last byte ("apples") is
	// reported present: a false positive. Stored keys are never missed.
	require.True(t, f.LookupKey([]byte("apple")))
	require.True(t, f.LookupKey([]byte("apples")))
}

func TestFilterLookupRange(t *testing.T) {
	keys := sortedKeys("b", "d", "f", "h")
	f, err := NewSorted(keys, WithSuffixType(SuffixReal), WithRealSuffixLen(8))
	require.NoError(t, err)

	require.True(t, f.LookupRange([]byte("a"), true, []byte("c"), true))  // contains "b"
	require.True(t, f.LookupRange([]byte("c"), true, []byte("d"), true))  // contains "d" (inclusive)
	require.False(t, f.LookupRange([]byte("c"), true, []byte("d"), false)) // excludes "d"
	require.False(t, f.LookupRange([]byte("i"), true, []byte("z"), true)) // nothing beyond "h"
	require.True(t, f.LookupRange([]byte("a"), true, []byte("z"), true))  // whole range
}

func TestFilterMoveToFirstLastAndIteration(t *testing.T) {
	keys := sortedKeys("apple", "banana", "cherry", "date", "fig", "grape")
	f, err := NewSorted(keys, WithSuffixType(SuffixReal), WithRealSuffixLen(24))
	require.NoError(t, err)

	it := f.MoveToFirst()
	var got []string
	for it.Valid() {
		got = append(got, string(it.Key()))
		it.Next()
	}
	require.Equal(t, []string{"apple", "banana", "cherry", "date", "fig", "grape"}, got)

	it = f.MoveToLast()
	got = nil
	for it.Valid() {
		got = append(got, string(it.Key()))
		it.Prev()
	}
	require.Equal(t, []string{"grape", "fig", "date", "cherry", "banana", "apple"}, got)
}

func TestFilterMoveToKeyGreaterThan(t *testing.T) {
	keys := sortedKeys("b", "d", "f", "h")
	f, err := NewSorted(keys, WithSuffixType(SuffixReal), WithRealSuffixLen(8))
	require.NoError(t, err)

	it := f.MoveToKeyGreaterThan([]byte("d"), true)
	require.True(t, it.Valid())
	require.Equal(t, "d", string(it.Key()))

	it = f.MoveToKeyGreaterThan([]byte("d"), false)
	require.True(t, it.Valid())
	require.Equal(t, "f", string(it.Key()))

	it = f.MoveToKeyGreaterThan([]byte("z"), true)
	require.False(t, it.Valid())

	it = f.MoveToKeyGreaterThan([]byte("a"), true)
	require.True(t, it.Valid())
	require.Equal(t, "b", string(it.Key()))
}

func TestFilterMoveToKeyLessThan(t *testing.T) {
	keys := sortedKeys("b", "d", "f", "h")
	f, err := NewSorted(keys, WithSuffixType(SuffixReal), WithRealSuffixLen(8))
	require.NoError(t, err)

	it := f.MoveToKeyLessThan([]byte("f"))
	require.True(t, it.Valid())
	require.Equal(t, "d", string(it.Key()))

	it = f.MoveToKeyLessThan([]byte("e"))
	require.True(t, it.Valid())
	require.Equal(t, "d", string(it.Key()))

	it = f.MoveToKeyLessThan([]byte("a"))
	require.False(t, it.Valid())

	it = f.MoveToKeyLessThan([]byte("z"))
	require.True(t, it.Valid())
	require.Equal(t, "h", string(it.Key()))
}

func TestFilterApproxCount(t *testing.T) {
	keys := sortedKeys("a", "b", "c", "d", "e")
	f, err := NewSorted(keys, WithSuffixType(SuffixReal), WithRealSuffixLen(8))
	require.NoError(t, err)

	require.Equal(t, uint64(5), f.ApproxCount([]byte("a"), []byte("e")))
	require.Equal(t, uint64(3), f.ApproxCount([]byte("b"), []byte("d")))
	require.Equal(t, uint64(0), f.ApproxCount([]byte("x"), []byte("z")))
}

func TestIterFPFlagSetOnHashOnlyMatch(t *testing.T) {
	keys := sortedKeys("apple", "banana", "cherry")
	f, err := NewSorted(keys, WithSuffixType(SuffixHash), WithHashSuffixLen(16))
	require.NoError(t, err)

	it := f.MoveToKeyGreaterThan([]byte("banana"), true)
	require.True(t, it.Valid())
	require.Equal(t, "banana", string(it.Key()))
	require.True(t, it.FPFlag(), "hash-only suffix match should report could-be-positive")
}

func TestIterFPFlagClearOnRealSuffixMatch(t *testing.T) {
	keys := sortedKeys("apple", "banana", "cherry")
	f, err := NewSorted(keys, WithSuffixType(SuffixReal), WithRealSuffixLen(16))
	require.NoError(t, err)

	it := f.MoveToKeyGreaterThan([]byte("banana"), true)
	require.True(t, it.Valid())
	require.Equal(t, "banana", string(it.Key()))
	require.False(t, it.FPFlag(), "a real suffix resolves the match exactly")
}

func TestIterKeyWithSuffixAppendsRealBits(t *testing.T) {
	keys := sortedKeys("b", "d", "f", "h")
	f, err := NewSorted(keys, WithSuffixType(SuffixReal), WithRealSuffixLen(8))
	require.NoError(t, err)

	it := f.MoveToKeyGreaterThan([]byte("d"), true)
	require.True(t, it.Valid())
	require.Equal(t, "d", string(it.Key()))
	// Each key here is a single byte, so its real-suffix bits cover
	// key[1:], which is empty and zero-pads: KeyWithSuffix appends
	// exactly one trailing zero byte onto Key().
	require.Equal(t, []byte{'d', 0}, it.KeyWithSuffix())
}

func TestIterKeyWithSuffixDegradesToKeyWithoutRealSuffix(t *testing.T) {
	keys := sortedKeys("b", "d", "f", "h")
	f, err := NewSorted(keys, WithSuffixType(SuffixHash), WithHashSuffixLen(8))
	require.NoError(t, err)

	it := f.MoveToKeyGreaterThan([]byte("d"), true)
	require.True(t, it.Valid())
	require.Equal(t, it.Key(), it.KeyWithSuffix())
}

func TestFilterSerializeRoundTrip(t *testing.T) {
	keys := sortedKeys("apple", "banana", "cherry", "date", "fig", "grape", "kiwi", "lime")
	f, err := NewSorted(keys, WithSuffixType(SuffixReal), WithRealSuffixLen(16))
	require.NoError(t, err)

	buf := f.Serialize()
	require.Equal(t, uint64(len(buf)), f.SerializedSize())

	f2, err := Deserialize(buf)
	require.NoError(t, err)
	require.Equal(t, f.ID(), f2.ID())
	require.Equal(t, f.NumKeys(), f2.NumKeys())
	require.Equal(t, f.Height(), f2.Height())

	for _, k := range keys {
		require.True(t, f2.LookupKey(k))
	}
	require.False(t, f2.LookupKey([]byte("nonexistent")))

	it := f2.MoveToFirst()
	var got []string
	for it.Valid() {
		got = append(got, string(it.Key()))
		it.Next()
	}
	require.Equal(t, []string{"apple", "banana", "cherry", "date", "fig", "grape", "kiwi", "lime"}, got)
}

func TestFilterStatsAndMemoryUsage(t *testing.T) {
	keys := sortedKeys("apple", "banana", "cherry")
	f, err := NewSorted(keys, WithSuffixType(SuffixReal), WithRealSuffixLen(8))
	require.NoError(t, err)

	stats := f.Stats()
	require.Equal(t, uint64(3), stats.NumKeys)
	require.Greater(t, stats.Height, Level(0))

	usage := f.MemoryUsage()
	require.Equal(t, usage.Dense+usage.Sparse, usage.Total)
	require.Greater(t, usage.Total, uint64(0))
}
