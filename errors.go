package rangefilter

import "errors"

// Sentinel errors returned by construction, query and (de)serialization
// paths. None of these are panics: a well-formed filter never panics on a
// well-formed input, per the package's conservative-guarantee contract.
var (
	// ErrOutOfOrderInsert is returned by (*Builder).Insert when key is not
	// strictly greater than the last successfully inserted key.
	ErrOutOfOrderInsert = errors.New("rangefilter: insert key out of order")

	// ErrAlreadyFinalized is returned by (*Builder).Insert or Finalize when
	// the builder has already produced a Filter.
	ErrAlreadyFinalized = errors.New("rangefilter: builder already finalized")

	// ErrNotFinalized names the error kind for a query on a filter still
	// under incremental construction. Queries are methods of Filter, which
	// only Finalize produces, so no operation in this package returns it.
	ErrNotFinalized = errors.New("rangefilter: filter not finalized")

	// ErrInvalidConfig is returned by New* constructors when option values
	// are mutually inconsistent (e.g. a hash suffix length of zero combined
	// with SuffixHash).
	ErrInvalidConfig = errors.New("rangefilter: invalid configuration")

	// ErrUnsortedInput is returned by NewSorted when keys are not in
	// strictly ascending order.
	ErrUnsortedInput = errors.New("rangefilter: input keys not strictly sorted")

	// ErrBufferTruncated is returned by Deserialize when buf ends before a
	// field it must read is fully present.
	ErrBufferTruncated = errors.New("rangefilter: serialized buffer truncated")

	// ErrMisalignedBuffer is returned by Deserialize when the 16-byte filter
	// ID in the header cannot be decoded. A region whose declared size runs
	// past the end of the buffer is reported as ErrBufferTruncated.
	ErrMisalignedBuffer = errors.New("rangefilter: serialized buffer misaligned")

	// ErrBadMagic is returned by Deserialize when the leading magic bytes
	// do not identify a rangefilter blob.
	ErrBadMagic = errors.New("rangefilter: bad serialized magic")

	// ErrUnsupportedVersion is returned by Deserialize when the encoded
	// format version is newer than this package understands.
	ErrUnsupportedVersion = errors.New("rangefilter: unsupported serialized version")
)
