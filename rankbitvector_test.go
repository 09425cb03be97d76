package rangefilter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRankBitVectorRank1(t *testing.T) {
	bv := newRankBitVector(200)
	set := []uint64{0, 1, 63, 64, 65, 127, 128, 199}
	for _, p := range set {
		bv.SetBit(p)
	}
	bv.build()

	require.Equal(t, uint64(0), bv.Rank1(0))
	require.Equal(t, uint64(1), bv.Rank1(1))
	require.Equal(t, uint64(2), bv.Rank1(2))
	require.Equal(t, uint64(3), bv.Rank1(64))
	require.Equal(t, uint64(5), bv.Rank1(66))
	require.Equal(t, uint64(len(set)), bv.Rank1(200))
}

func TestRankBitVectorRank1AcrossBlocks(t *testing.T) {
	bv := newRankBitVector(2000)
	var want uint64
	for p := uint64(0); p < 2000; p += 7 {
		bv.SetBit(p)
	}
	bv.build()
	for p := uint64(0); p < 2000; p++ {
		if p > 0 && (p-1)%7 == 0 {
			want++
		}
		require.Equal(t, want, bv.Rank1(p), "pos=%d", p)
	}
}

func TestRankBitVectorDistanceToNextSetBit(t *testing.T) {
	bv := newRankBitVector(300)
	bv.SetBit(10)
	bv.SetBit(200)
	bv.build()

	require.Equal(t, uint64(10), bv.DistanceToNextSetBit(0))
	require.Equal(t, uint64(0), bv.DistanceToNextSetBit(10))
	require.Equal(t, uint64(189), bv.DistanceToNextSetBit(11))
	require.Equal(t, uint64(0), bv.DistanceToNextSetBit(200))
	require.Equal(t, uint64(99), bv.DistanceToNextSetBit(201)) // no further set bit: numBits-pos
}

func TestRankBitVectorDistanceToPrevSetBit(t *testing.T) {
	bv := newRankBitVector(300)
	bv.SetBit(10)
	bv.SetBit(200)
	bv.build()

	require.Equal(t, uint64(0), bv.DistanceToPrevSetBit(10))
	require.Equal(t, uint64(90), bv.DistanceToPrevSetBit(100))
	require.Equal(t, uint64(10), bv.DistanceToPrevSetBit(9)) // ran off the beginning: pos+1
}

func TestRankBitVectorGrow(t *testing.T) {
	bv := newRankBitVector(0)
	bv.SetBit(70)
	require.True(t, bv.ReadBit(70))
	require.GreaterOrEqual(t, bv.NumBits(), uint64(71))
}
