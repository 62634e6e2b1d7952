// Package blobstore abstracts where snapshots live.
//
// A BlobStore holds immutable snapshot blobs plus one small mutable pointer
// blob that names the current snapshot. Backends are provided for local
// directories (LocalStore), memory (MemoryStore, for tests), S3
// (blobstore/s3, optionally with DynamoDB-coordinated pointer commits) and
// MinIO or other S3-compatible endpoints (blobstore/minio).
//
// All operations take a context.Context; remote backends honor cancellation
// on every network call.
package blobstore
