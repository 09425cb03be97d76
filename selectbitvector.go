package rangefilter

import "math/bits"

// selectBitVector adds a sampled select index on top of rankBitVector: the
// position of every sampleRate-th 1-bit is recorded, giving Select1 a
// bounded scan window (spec.md 4.2).
type selectBitVector struct {
	rankBitVector
	sampleRate uint32
	samples    []uint64 // samples[k] = position of the (k+1)*sampleRate-th 1-bit
	numOnes    uint64
}

func newSelectBitVector(numBits uint64, sampleRate uint32) *selectBitVector {
	if sampleRate == 0 {
		sampleRate = defaultSelectSampleRate
	}
	return &selectBitVector{
		rankBitVector: *newRankBitVector(numBits),
		sampleRate:    sampleRate,
	}
}

// build computes both the rank LUT and the select sample table. Must be
// called once after all bits are set.
func (bv *selectBitVector) build() {
	bv.rankBitVector.build()

	bv.samples = bv.samples[:0]
	var ones uint64
	for i := uint64(0); i < bv.numBits; i++ {
		if bv.ReadBit(i) {
			ones++
			if ones%uint64(bv.sampleRate) == 0 {
				bv.samples = append(bv.samples, i)
			}
		}
	}
	bv.numOnes = ones
}

// Select1 returns the position of the k-th (1-indexed) 1-bit. Behavior is
// undefined if k is 0 or exceeds the number of 1-bits.
func (bv *selectBitVector) Select1(k uint64) uint64 {
	sampleIdx := (k - 1) / uint64(bv.sampleRate)
	var pos uint64
	var rankAtPos uint64
	if sampleIdx > 0 {
		pos = bv.samples[sampleIdx-1] + 1
		rankAtPos = sampleIdx * uint64(bv.sampleRate)
	}

	remaining := k - rankAtPos // how many more 1-bits to find starting at pos
	wordIdx := pos / 64

	// Consume the partial first word.
	if bitOff := pos % 64; bitOff != 0 {
		w := bv.words[wordIdx] >> bitOff
		cnt := uint64(bits.OnesCount64(w))
		if cnt >= remaining {
			return pos + selectInWord(w, remaining)
		}
		remaining -= cnt
		wordIdx++
		pos = wordIdx * 64
	}

	for wordIdx < uint64(len(bv.words)) {
		w := bv.words[wordIdx]
		cnt := uint64(bits.OnesCount64(w))
		if cnt >= remaining {
			return wordIdx*64 + selectInWord(w, remaining)
		}
		remaining -= cnt
		wordIdx++
	}
	return bv.numBits
}

// selectInWord returns the bit offset (0-63) of the k-th (1-indexed) set
// bit in w: it clears the lowest set bit k-1 times and then takes
// TrailingZeros64 of what remains, so its cost grows with k. It does not
// use a popcount-halving broadword search, a De-Bruijn table or PDEP.
func selectInWord(w uint64, k uint64) uint64 {
	for i := uint64(1); i < k; i++ {
		w &= w - 1 // clear lowest set bit
	}
	return uint64(bits.TrailingZeros64(w))
}

func (bv *selectBitVector) memoryUsage() uint64 {
	return bv.rankBitVector.memoryUsage() + uint64(len(bv.samples))*8
}
