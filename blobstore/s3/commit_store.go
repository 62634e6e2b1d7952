package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/multivec/blobstore"
)

// ErrConcurrentCommit is returned when another writer committed a pointer
// update first.
var ErrConcurrentCommit = errors.New("concurrent snapshot commit detected")

// DynamoDBClient is the subset of the DynamoDB API CommitStore uses.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// CommitStore wraps an S3 Store and routes updates of the pointer blob
// through DynamoDB conditional writes. S3 alone offers no compare-and-swap,
// so two writers saving concurrently could silently clobber each other's
// pointer; with CommitStore the loser gets ErrConcurrentCommit instead.
//
// Snapshot blobs themselves still go straight to S3. Only reads and writes
// of pointerName are redirected to the commit table.
//
// Table schema: partition key scope (S), sort key version (N). Create with:
//
//	aws dynamodb create-table \
//	  --table-name multivec-commits \
//	  --attribute-definitions AttributeName=scope,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=scope,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	store       *Store
	ddb         DynamoDBClient
	table       string
	scope       string // partition key, e.g. "s3://bucket/prefix"
	pointerName string
}

// NewCommitStore creates a CommitStore. scope partitions the commit table,
// conventionally the "s3://bucket/prefix" the store writes under.
// pointerName is the blob name whose writes become conditional commits.
func NewCommitStore(store *Store, ddb DynamoDBClient, table, scope, pointerName string) *CommitStore {
	return &CommitStore{
		store:       store,
		ddb:         ddb,
		table:       table,
		scope:       scope,
		pointerName: pointerName,
	}
}

// Open opens a blob for reading. The pointer blob is served from the latest
// committed DynamoDB item.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != s.pointerName {
		return s.store.Open(ctx, name)
	}

	_, target, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, blobstore.ErrNotFound
	}
	return &pointerBlob{content: []byte(target)}, nil
}

// Put writes a blob. For the pointer blob this is a conditional commit that
// fails with ErrConcurrentCommit if another writer got there first.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != s.pointerName {
		return s.store.Put(ctx, name, data)
	}
	return s.commit(ctx, string(data))
}

// Create creates a writable blob in the underlying S3 store.
func (s *CommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return s.store.Create(ctx, name)
}

// Delete removes a blob from the underlying S3 store.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	return s.store.Delete(ctx, name)
}

// List lists blobs in the underlying S3 store.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.store.List(ctx, prefix)
}

// latest returns the newest committed version and its snapshot name.
// Version 0 with an empty name means nothing has been committed yet.
func (s *CommitStore) latest(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("#scope = :scope"),
		ExpressionAttributeNames: map[string]string{
			"#scope": "scope",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":scope": &types.AttributeValueMemberS{Value: s.scope},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("query commit table: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("commit table: missing version attribute")
	}
	targetAttr, ok := item["snapshot"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("commit table: missing snapshot attribute")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("commit table: bad version: %w", err)
	}

	return version, targetAttr.Value, nil
}

// commit writes version latest+1 conditionally. The attribute_not_exists
// condition makes the racing loser fail instead of overwriting.
func (s *CommitStore) commit(ctx context.Context, target string) error {
	current, _, err := s.latest(ctx)
	if err != nil {
		return err
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"scope":    &types.AttributeValueMemberS{Value: s.scope},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(current+1, 10)},
			"snapshot": &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentCommit
		}
		return fmt.Errorf("commit snapshot pointer: %w", err)
	}

	return nil
}

// pointerBlob serves the pointer content resolved from DynamoDB.
type pointerBlob struct {
	content []byte
}

func (b *pointerBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *pointerBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= int64(len(b.content)) {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	end := off + length
	if end > int64(len(b.content)) {
		end = int64(len(b.content))
	}
	return io.NopCloser(bytes.NewReader(b.content[off:end])), nil
}

func (b *pointerBlob) Size() int64 { return int64(len(b.content)) }

func (b *pointerBlob) Close() error { return nil }
