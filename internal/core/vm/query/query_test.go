package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerconfig "github.com/weisyn/zkvm/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/zkvm/internal/config/storage/memory"
	badgerstore "github.com/weisyn/zkvm/internal/core/infrastructure/storage/badger"
	memorystore "github.com/weisyn/zkvm/internal/core/infrastructure/storage/memory"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/store"
	"github.com/weisyn/zkvm/internal/core/vm/transition"
)

var testNet = network.BN254

func mint(t *testing.T, commitments ...uint64) *transition.Transition {
	t.Helper()
	var outputs []*transition.Output
	for _, c := range commitments {
		outputs = append(outputs, transition.RecordOutput(network.FieldFromUint64(c), network.FieldFromUint64(c+1), nil))
	}
	tr, err := transition.New(testNet, console.MustProgramID("credits.zk"), console.MustIdentifier("mint"),
		nil, outputs, testNet.Generator(), network.FieldFromUint64(3))
	require.NoError(t, err)
	return tr
}

func setup(t *testing.T) (*store.BlockStore, *memorystore.Store) {
	t.Helper()
	kv, err := badgerstore.New(badgerconfig.NewInMemory(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	cache, err := memorystore.New(memoryconfig.New(nil), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	blocks, err := store.Open(context.Background(), testNet, kv, 8, nil)
	require.NoError(t, err)
	return blocks, cache
}

func TestStoreQueryCachesPaths(t *testing.T) {
	ctx := context.Background()
	blocks, cache := setup(t)
	_, err := blocks.AddNextBlock(ctx, []*transition.Transition{mint(t, 10, 11)})
	require.NoError(t, err)

	q := NewStore(blocks, cache, nil)
	root, err := q.CurrentStateRoot(ctx)
	require.NoError(t, err)

	path, err := q.GetStatePath(ctx, network.FieldFromUint64(11))
	require.NoError(t, err)
	assert.Equal(t, root, path.Root)
	assert.True(t, path.Verify(testNet))
	assert.Equal(t, 1, cache.Len())

	again, err := q.GetStatePath(ctx, network.FieldFromUint64(11))
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, 1, cache.Len())
}

func TestStoreQueryFollowsNewBlocks(t *testing.T) {
	ctx := context.Background()
	blocks, cache := setup(t)
	_, err := blocks.AddNextBlock(ctx, []*transition.Transition{mint(t, 20)})
	require.NoError(t, err)

	q := NewStore(blocks, cache, nil)
	before, err := q.GetStatePath(ctx, network.FieldFromUint64(20))
	require.NoError(t, err)

	_, err = blocks.AddNextBlock(ctx, []*transition.Transition{mint(t, 21)})
	require.NoError(t, err)

	after, err := q.GetStatePath(ctx, network.FieldFromUint64(20))
	require.NoError(t, err)
	assert.NotEqual(t, before.Root, after.Root)
	assert.True(t, after.Verify(testNet))

	_, err = q.GetStatePath(ctx, network.FieldFromUint64(99))
	assert.ErrorIs(t, err, store.ErrCommitmentNotFound)
}

func TestStaticQuery(t *testing.T) {
	ctx := context.Background()
	blocks, _ := setup(t)
	_, err := blocks.AddNextBlock(ctx, []*transition.Transition{mint(t, 30, 31)})
	require.NoError(t, err)

	path, err := blocks.StatePath(network.FieldFromUint64(30))
	require.NoError(t, err)

	q, err := NewStatic(path.Root, path)
	require.NoError(t, err)
	got, err := q.GetStatePath(ctx, network.FieldFromUint64(30))
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = q.GetStatePath(ctx, network.FieldFromUint64(31))
	assert.ErrorIs(t, err, store.ErrCommitmentNotFound)

	_, err = NewStatic(network.FieldFromUint64(1), path)
	assert.Error(t, err)
}
