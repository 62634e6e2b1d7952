// Package s3 implements blobstore.BlobStore on Amazon S3.
//
// Store writes snapshot blobs with the S3 upload manager and reads them with
// ranged GETs. Because S3 Put is last-writer-wins, the plain Store cannot
// detect two writers racing on the current-snapshot pointer; CommitStore
// layers DynamoDB conditional writes on top to make pointer updates an
// atomic compare-and-swap.
package s3
