package rangefilter

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// magic identifies a serialized rangefilter blob; formatVersion lets
// Deserialize refuse a newer, incompatible layout outright rather than
// misparse it (spec.md 6, 7).
const (
	magic         uint64 = 0x464c5452414e4752 // "FLTRANGR" as hex; written little-endian the bytes read "RGNARTLF"
	formatVersion uint32 = 1
)

type byteWriter struct {
	buf []byte
}

func (w *byteWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *byteWriter) bytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *byteWriter) align8() {
	for uint64(len(w.buf))%8 != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *byteWriter) words(words []uint64) {
	for _, word := range words {
		w.u64(word)
	}
}

type byteReader struct {
	buf []byte
	pos uint64
}

func (r *byteReader) need(n uint64) error {
	if r.pos+n > uint64(len(r.buf)) {
		return ErrBufferTruncated
	}
	return nil
}

func (r *byteReader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *byteReader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) bytes(n uint64) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *byteReader) align8() error {
	pad := (8 - r.pos%8) % 8
	return r.need(pad)
}

func (r *byteReader) doAlign8() {
	r.pos += (8 - r.pos%8) % 8
}

func (r *byteReader) words(n uint64) ([]uint64, error) {
	if err := r.need(n * 8); err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(r.buf[r.pos:])
		r.pos += 8
	}
	return out, nil
}

func writeRankBitVector(w *byteWriter, bv *rankBitVector) {
	w.u64(bv.numBits)
	w.u64(uint64(len(bv.rankLUT)))
	w.words(bv.rankLUT)
	w.words(bv.words)
	w.align8()
}

func readRankBitVector(r *byteReader) (*rankBitVector, error) {
	numBits, err := r.u64()
	if err != nil {
		return nil, err
	}
	numBlocks, err := r.u64()
	if err != nil {
		return nil, err
	}
	rankLUT, err := r.words(numBlocks)
	if err != nil {
		return nil, err
	}
	words, err := r.words(wordsForBits(numBits))
	if err != nil {
		return nil, err
	}
	if err := r.align8(); err != nil {
		return nil, err
	}
	r.doAlign8()
	return &rankBitVector{words: words, numBits: numBits, rankLUT: rankLUT}, nil
}

func writeSelectBitVector(w *byteWriter, bv *selectBitVector) {
	writeRankBitVector(w, &bv.rankBitVector)
	w.u32(bv.sampleRate)
	w.u64(bv.numOnes)
	w.u64(uint64(len(bv.samples)))
	w.words(bv.samples)
	w.align8()
}

func readSelectBitVector(r *byteReader) (*selectBitVector, error) {
	rbv, err := readRankBitVector(r)
	if err != nil {
		return nil, err
	}
	sampleRate, err := r.u32()
	if err != nil {
		return nil, err
	}
	numOnes, err := r.u64()
	if err != nil {
		return nil, err
	}
	numSamples, err := r.u64()
	if err != nil {
		return nil, err
	}
	samples, err := r.words(numSamples)
	if err != nil {
		return nil, err
	}
	if err := r.align8(); err != nil {
		return nil, err
	}
	r.doAlign8()
	return &selectBitVector{rankBitVector: *rbv, sampleRate: sampleRate, numOnes: numOnes, samples: samples}, nil
}

func writeSuffixStore(w *byteWriter, s *suffixStore) {
	w.u8(uint8(s.suffixType))
	w.u8(s.hashLen)
	w.u8(s.realLen)
	w.u8(0)
	numEntries := s.NumEntries()
	w.u32(numEntries)
	var words []uint64
	if s.entries != nil {
		words = s.entries.words
	}
	w.u64(uint64(len(words)))
	w.words(words)
	w.align8()
}

func readSuffixStore(r *byteReader) (*suffixStore, error) {
	st, err := r.u8()
	if err != nil {
		return nil, err
	}
	hashLen, err := r.u8()
	if err != nil {
		return nil, err
	}
	realLen, err := r.u8()
	if err != nil {
		return nil, err
	}
	if _, err := r.u8(); err != nil { // padding byte
		return nil, err
	}
	numEntries, err := r.u32()
	if err != nil {
		return nil, err
	}
	numWords, err := r.u64()
	if err != nil {
		return nil, err
	}
	words, err := r.words(numWords)
	if err != nil {
		return nil, err
	}
	if err := r.align8(); err != nil {
		return nil, err
	}
	r.doAlign8()
	entries := &packedBitArray{words: words, width: hashLen + realLen, count: numEntries}
	return &suffixStore{suffixType: SuffixType(st), hashLen: hashLen, realLen: realLen, entries: entries}, nil
}

func writeLabelVector(w *byteWriter, lv *labelVector) {
	w.u32(uint32(len(lv.labels)))
	for _, l := range lv.labels {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], l)
		w.buf = append(w.buf, b[:]...)
	}
	w.align8()
}

func readLabelVector(r *byteReader) (*labelVector, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := r.need(uint64(n) * 2); err != nil {
		return nil, err
	}
	labels := make([]uint16, n)
	for i := range labels {
		labels[i] = binary.LittleEndian.Uint16(r.buf[r.pos:])
		r.pos += 2
	}
	if err := r.align8(); err != nil {
		return nil, err
	}
	r.doAlign8()
	return &labelVector{labels: labels}, nil
}

// SerializedSize reports exactly how many bytes Serialize will write.
func (f *Filter) SerializedSize() uint64 { return uint64(len(f.Serialize())) }

// Serialize encodes the filter into a fresh, self-contained byte buffer
// per the layout in spec.md 6: a small header (magic, version, FilterID,
// key count) followed by the dense tier's blobs and the sparse tier's
// blobs. Padding brings the header, each group of fixed-width tier fields
// and each blob up to an 8-byte boundary; fields within a group are packed
// without padding.
func (f *Filter) Serialize() []byte {
	w := &byteWriter{buf: make([]byte, 0, 4096)}

	w.u64(magic)
	w.u32(formatVersion)
	idBytes, _ := f.id.MarshalBinary()
	w.bytes(idBytes)
	w.u64(f.numKeys)
	w.align8()

	w.u32(uint32(f.dense.height))
	for _, c := range f.dense.levelCuts {
		w.u32(c)
	}
	w.align8()
	writeRankBitVector(w, f.dense.labelBitmap)
	writeRankBitVector(w, f.dense.childIndicator)
	writeRankBitVector(w, f.dense.prefixKey)
	writeSuffixStore(w, f.dense.suffixes)

	w.u32(uint32(f.sparse.height))
	w.u32(uint32(f.sparse.startLevel))
	w.u32(f.sparse.denseNodeCount)
	// childBase is a derived quantity (denseNodeCount plus the entry
	// level's own node count) that Finalize computes from level data no
	// longer available at deserialize time; serializing it directly avoids
	// having to also carry the pre-split level sequence just to recompute it.
	w.u32(f.sparse.childBase)
	w.align8()
	writeLabelVector(w, f.sparse.labels)
	writeRankBitVector(w, f.sparse.hasChild)
	writeSelectBitVector(w, f.sparse.louds)
	writeSuffixStore(w, f.sparse.suffixes)

	return w.buf
}

// Deserialize reconstructs a Filter from a buffer produced by Serialize.
// Behavior on a truncated or corrupt buffer is limited to returning one of
// ErrBufferTruncated / ErrBadMagic / ErrUnsupportedVersion; a buffer that
// merely lies about content beyond those checks is undefined per spec.md
// 7, mirroring the source's documented contract for this operation.
func Deserialize(buf []byte, opts ...Option) (*Filter, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	r := &byteReader{buf: buf}
	m, err := r.u64()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, ErrBadMagic
	}
	version, err := r.u32()
	if err != nil {
		return nil, err
	}
	if version > formatVersion {
		return nil, ErrUnsupportedVersion
	}
	idBytes, err := r.bytes(16)
	if err != nil {
		return nil, err
	}
	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return nil, ErrMisalignedBuffer
	}
	numKeys, err := r.u64()
	if err != nil {
		return nil, err
	}
	if err := r.align8(); err != nil {
		return nil, err
	}
	r.doAlign8()

	denseHeight, err := r.u32()
	if err != nil {
		return nil, err
	}
	levelCuts := make([]uint32, denseHeight)
	for i := range levelCuts {
		v, err := r.u32()
		if err != nil {
			return nil, err
		}
		levelCuts[i] = v
	}
	if err := r.align8(); err != nil {
		return nil, err
	}
	r.doAlign8()

	labelBitmap, err := readRankBitVector(r)
	if err != nil {
		return nil, err
	}
	childIndicator, err := readRankBitVector(r)
	if err != nil {
		return nil, err
	}
	prefixKey, err := readRankBitVector(r)
	if err != nil {
		return nil, err
	}
	denseSuffixes, err := readSuffixStore(r)
	if err != nil {
		return nil, err
	}

	var numDenseNodes uint32
	for _, c := range levelCuts {
		numDenseNodes += c
	}
	dense := &denseTier{
		height:         Level(denseHeight),
		numNodes:       numDenseNodes,
		levelCuts:      levelCuts,
		labelBitmap:    labelBitmap,
		childIndicator: childIndicator,
		prefixKey:      prefixKey,
		suffixes:       denseSuffixes,
	}

	sparseHeight, err := r.u32()
	if err != nil {
		return nil, err
	}
	startLevel, err := r.u32()
	if err != nil {
		return nil, err
	}
	denseNodeCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	childBase, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := r.align8(); err != nil {
		return nil, err
	}
	r.doAlign8()

	labels, err := readLabelVector(r)
	if err != nil {
		return nil, err
	}
	hasChild, err := readRankBitVector(r)
	if err != nil {
		return nil, err
	}
	louds, err := readSelectBitVector(r)
	if err != nil {
		return nil, err
	}
	sparseSuffixes, err := readSuffixStore(r)
	if err != nil {
		return nil, err
	}

	sparse := &sparseTier{
		height:         Level(sparseHeight),
		startLevel:     Level(startLevel),
		denseNodeCount: denseNodeCount,
		childBase:      childBase,
		labels:         labels,
		hasChild:       hasChild,
		louds:          louds,
		suffixes:       sparseSuffixes,
	}

	f := &Filter{
		cfg:     cfg,
		id:      id,
		height:  Level(sparseHeight),
		numKeys: numKeys,
		dense:   dense,
		sparse:  sparse,
	}
	return f, nil
}
