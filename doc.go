// Package multivec coordinates multiple named, range-indexed containers
// ("vectors") and tracks groups of entries that were inserted together,
// possibly spanning several vectors.
//
// Its job is to answer one question: given an offset in a named vector, what
// is the full set of entries - across all vectors - that must be removed or
// detached together. Entries inserted by one batch call form one group; the
// group is the unit of cascading removal. This turns several otherwise
// unrelated containers into a single consistency domain for creator-linked
// data, e.g. a struct definition that spans a header buffer and a data
// buffer.
//
// Multivec only tracks that entries were created together, never why. It is
// the wrong layer for cross-references, pointer chasing or base-address
// arithmetic.
//
// # Quick Start
//
// Create an instance, add vectors, and insert grouped entries:
//
//	mv := multivec.New[string, uint32]()
//
//	// Create a pair of vectors, one 100 offsets wide and one 200.
//	if err := mv.CreateVector("myvector1", 100); err != nil { ... }
//	if err := mv.CreateVector("myvector2", 200); err != nil { ... }
//
//	// Insert one group of two entries. The batch is atomic: either every
//	// entry is inserted, or none is.
//	gid, err := mv.InsertEntries([]multivec.BatchItem[string, uint32]{
//	    {Vector: "myvector1", Value: 111, Start: 0, Size: 10},
//	    {Vector: "myvector1", Value: 222, Start: 10, Size: 10},
//	})
//
//	// Removing any member of the group removes the whole group.
//	removed, err := mv.RemoveEntries("myvector1", 15) // len(removed) == 2
//
//	// UnlinkEntry splits one entry out of its group; afterwards it is
//	// removed alone.
//	_ = mv.UnlinkEntry("myvector1", 5)
//
// # Persistence
//
// The full state (vectors, entries, groups) can be saved to a snapshot and
// reloaded:
//
//	var buf bytes.Buffer
//	if _, err := mv.SaveToWriter(&buf); err != nil { ... }
//	mv2, err := multivec.NewFromReader[string, uint32](&buf)
//
// Snapshots are self-describing (codec name in the header), checksummed with
// CRC32 and optionally compressed (LZ4 or zstd). They can also be written
// through a blobstore.BlobStore (local directory, in-memory, S3, MinIO).
//
// # Concurrency
//
// Every operation is synchronous and runs to completion before returning.
// A single exclusive lock protects the whole structure; cross-vector groups
// make finer-grained locking unsafe (an insert into vector A can race with a
// cascading removal touching A that was triggered from vector B).
package multivec
