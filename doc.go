/*
Package rangefilter implements an approximate range-membership filter over an
ordered set of byte-string keys.

It is a two-tier LOUDS-encoded trie: a dense tier over the upper levels
(one 256-bit label bitmap and one 256-bit child-indicator bitmap per node,
plus one prefix-key bit per node) that switches to a sparse tier (packed
labels with per-label has-child and LOUDS bits) once node density drops
below a configurable threshold. A suffix store trades filter size for
false-positive rate by packing hash and/or real bits at each stored key's
terminal position.

Point lookups, range-nonempty checks, ordered iteration, predecessor/
successor seeks and range-cardinality estimates are all conservative: they
never produce a false negative, and may -- depending on suffix
configuration -- produce a false positive. The filter is built once from
sorted input (batch or incremental) and is immutable and safe for
concurrent read-only use after Finalize.

Construction walks the trie level by level. Upper levels, where nearly
every one of the 256 possible labels is present at each node, are packed
as fixed-width bitmaps (the dense tier); lower levels, where nodes
typically have only a handful of children, are packed as a run of labels
plus two bits per label (the sparse tier). Finalize picks the boundary
level by comparing the two encodings' total bit cost at each level.
*/
package rangefilter
