package s3

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDDB implements DynamoDBClient with the attribute_not_exists semantics
// the commit path relies on.
type fakeDDB struct {
	mu    sync.Mutex
	items map[string]map[uint64]string // scope -> version -> snapshot
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[uint64]string)}
}

func (f *fakeDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	scope := params.Item["scope"].(*types.AttributeValueMemberS).Value
	version, err := strconv.ParseUint(params.Item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
	if err != nil {
		return nil, err
	}
	snapshot := params.Item["snapshot"].(*types.AttributeValueMemberS).Value

	if f.items[scope] == nil {
		f.items[scope] = make(map[uint64]string)
	}
	if _, exists := f.items[scope][version]; exists {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("version exists")}
	}
	f.items[scope][version] = snapshot
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	scope := params.ExpressionAttributeValues[":scope"].(*types.AttributeValueMemberS).Value
	versions := make([]uint64, 0, len(f.items[scope]))
	for v := range f.items[scope] {
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })

	latest := versions[0]
	return &dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{{
			"scope":    &types.AttributeValueMemberS{Value: scope},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(latest, 10)},
			"snapshot": &types.AttributeValueMemberS{Value: f.items[scope][latest]},
		}},
	}, nil
}

// seed inserts a committed version directly, simulating another writer.
func (f *fakeDDB) seed(scope string, version uint64, snapshot string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.items[scope] == nil {
		f.items[scope] = make(map[uint64]string)
	}
	f.items[scope][version] = snapshot
}

func newTestCommitStore(ddb DynamoDBClient) *CommitStore {
	return NewCommitStore(nil, ddb, "commits", "s3://bucket/prefix", "CURRENT")
}

func TestCommitStorePointer(t *testing.T) {
	ctx := context.Background()

	t.Run("latest on empty table", func(t *testing.T) {
		cs := newTestCommitStore(newFakeDDB())

		version, target, err := cs.latest(ctx)
		require.NoError(t, err)
		assert.Zero(t, version)
		assert.Empty(t, target)
	})

	t.Run("commit and read back", func(t *testing.T) {
		cs := newTestCommitStore(newFakeDDB())

		require.NoError(t, cs.Put(ctx, "CURRENT", []byte("snapshots/001.mvsn")))
		require.NoError(t, cs.Put(ctx, "CURRENT", []byte("snapshots/002.mvsn")))

		b, err := cs.Open(ctx, "CURRENT")
		require.NoError(t, err)
		defer b.Close()

		buf := make([]byte, b.Size())
		_, err = b.ReadAt(ctx, buf, 0)
		require.NoError(t, err)
		assert.Equal(t, "snapshots/002.mvsn", string(buf))

		version, _, err := cs.latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), version)
	})

	t.Run("concurrent commit loses", func(t *testing.T) {
		ddb := newFakeDDB()
		cs := newTestCommitStore(ddb)

		require.NoError(t, cs.Put(ctx, "CURRENT", []byte("snapshots/001.mvsn")))

		// Another writer commits version 2 between our read and write.
		ddb.seed("s3://bucket/prefix", 2, "snapshots/other.mvsn")

		err := cs.Put(ctx, "CURRENT", []byte("snapshots/002.mvsn"))
		require.ErrorIs(t, err, ErrConcurrentCommit)

		// The other writer's pointer is intact.
		_, target, err := cs.latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "snapshots/other.mvsn", target)
	})

	t.Run("read range on pointer blob", func(t *testing.T) {
		cs := newTestCommitStore(newFakeDDB())
		require.NoError(t, cs.Put(ctx, "CURRENT", []byte("snapshots/001.mvsn")))

		b, err := cs.Open(ctx, "CURRENT")
		require.NoError(t, err)
		defer b.Close()

		rc, err := b.ReadRange(ctx, 0, b.Size())
		require.NoError(t, err)
		buf := make([]byte, b.Size())
		_, err = rc.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "snapshots/001.mvsn", string(buf))
	})
}
