package rangefilter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderInsertRejectsOutOfOrderAndDuplicate(t *testing.T) {
	b, err := NewIncremental()
	require.NoError(t, err)

	require.NoError(t, b.Insert([]byte("banana")))
	require.NoError(t, b.Insert([]byte("cherry")))

	err = b.Insert([]byte("cherry"))
	require.ErrorIs(t, err, ErrOutOfOrderInsert)

	err = b.Insert([]byte("apple"))
	require.ErrorIs(t, err, ErrOutOfOrderInsert)

	require.Equal(t, uint64(2), b.NumKeys())
}

func TestBuilderInsertAfterFinalizeFails(t *testing.T) {
	b, err := NewIncremental()
	require.NoError(t, err)
	require.NoError(t, b.Insert([]byte("a")))

	_, err = b.Finalize()
	require.NoError(t, err)

	err = b.Insert([]byte("b"))
	require.ErrorIs(t, err, ErrAlreadyFinalized)

	_, err = b.Finalize()
	require.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestBuilderEmptyKeyBecomesRootPrefixKey(t *testing.T) {
	f, err := NewSorted([][]byte{{}, []byte("a")})
	require.NoError(t, err)

	require.True(t, f.LookupKey([]byte{}))
	require.True(t, f.LookupKey([]byte("a")))
	require.False(t, f.LookupKey([]byte("b")))
}

func TestBuilderPromotesTerminalOnSharedPrefix(t *testing.T) {
	// "app" is a strict prefix of "apple": the edge that used to terminate
	// at "app" must be promoted into a prefix-key node with a further
	// child for the "le" continuation.
	f, err := NewSorted([][]byte{[]byte("app"), []byte("apple")})
	require.NoError(t, err)

	require.True(t, f.LookupKey([]byte("app")))
	require.True(t, f.LookupKey([]byte("apple")))
	require.False(t, f.LookupKey([]byte("appl")))
	require.False(t, f.LookupKey([]byte("appz")))
}

func TestNewSortedRejectsUnsortedInput(t *testing.T) {
	_, err := NewSorted([][]byte{[]byte("b"), []byte("a")})
	require.ErrorIs(t, err, ErrUnsortedInput)
}

func TestBuilderRespectsIncludeDenseFalse(t *testing.T) {
	keys := [][]byte{[]byte("aa"), []byte("bb"), []byte("cc")}
	f, err := NewSorted(keys, WithIncludeDense(false))
	require.NoError(t, err)

	require.Equal(t, Level(0), f.SparseStartLevel())
	for _, k := range keys {
		require.True(t, f.LookupKey(k))
	}
}
