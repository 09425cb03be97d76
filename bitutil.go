package rangefilter

import "encoding/binary"

// Serialized multibyte integers and bit indices are little-endian
// throughout (spec.md section 6): bit i lives in word i/64 at bit i%64,
// lsb-first.

func readU64LE(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
func readU32LE(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

func writeU64LE(dst []byte, v uint64) { binary.LittleEndian.PutUint64(dst, v) }
func writeU32LE(dst []byte, v uint32) { binary.LittleEndian.PutUint32(dst, v) }

// align8 rounds n up to the next multiple of 8, matching the buffer
// padding rule in spec.md section 6.
func align8(n uint64) uint64 { return (n + 7) &^ 7 }

// wordsForBits returns the number of 64-bit words needed to hold n bits.
func wordsForBits(n uint64) uint64 { return (n + 63) / 64 }

// bytesForBits returns the number of bytes needed to hold n bits.
func bytesForBits(n uint64) uint64 { return (n + 7) / 8 }
