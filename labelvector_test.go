package rangefilter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelVectorSearchLinear(t *testing.T) {
	lv := newLabelVector(8)
	for _, b := range []uint16{'a', 'c', 'f', 'z'} {
		lv.append(b)
	}

	pos, ok := lv.search('c', 0, 4)
	require.True(t, ok)
	require.Equal(t, uint32(1), pos)

	pos, ok = lv.search('d', 0, 4)
	require.False(t, ok)
	require.Equal(t, uint32(2), pos) // first label greater than 'd'

	pos, ok = lv.search(0, 0, 4)
	require.False(t, ok)
	require.Equal(t, uint32(0), pos)

	pos, ok = lv.search(labelTerminator, 0, 4)
	require.False(t, ok)
	require.Equal(t, uint32(4), pos) // past the end: all labels are smaller
}

func TestLabelVectorSearchBinary(t *testing.T) {
	lv := newLabelVector(32)
	var want []uint16
	for i := uint16(0); i < 30; i++ {
		want = append(want, i*3)
		lv.append(i * 3)
	}

	for i, label := range want {
		pos, ok := lv.search(label, 0, uint32(len(want)))
		require.True(t, ok)
		require.Equal(t, uint32(i), pos)
	}

	pos, ok := lv.search(1, 0, uint32(len(want)))
	require.False(t, ok)
	require.Equal(t, uint32(1), pos) // first label (3) greater than 1
}

func TestLabelVectorTerminatorRoundTrip(t *testing.T) {
	lv := newLabelVector(2)
	lv.append(labelTerminator)
	lv.append('a')
	require.Equal(t, uint16(labelTerminator), lv.GetLabel(0))
	require.Equal(t, uint16('a'), lv.GetLabel(1))
}
