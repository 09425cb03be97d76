package rangefilter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectBitVectorSelect1(t *testing.T) {
	bv := newSelectBitVector(1000, 4) // small sample rate to exercise sample table
	ones := []uint64{2, 5, 9, 40, 41, 100, 500, 999}
	for _, p := range ones {
		bv.SetBit(p)
	}
	bv.build()

	require.Equal(t, uint64(len(ones)), bv.numOnes)
	for k, want := range ones {
		require.Equal(t, want, bv.Select1(uint64(k+1)), "k=%d", k+1)
	}
}

func TestSelectBitVectorSelect1Dense(t *testing.T) {
	bv := newSelectBitVector(300, 64)
	for p := uint64(0); p < 300; p += 3 {
		bv.SetBit(p)
	}
	bv.build()

	for k := uint64(1); k <= bv.numOnes; k++ {
		want := (k - 1) * 3
		require.Equal(t, want, bv.Select1(k))
	}
}
