package inclusion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/query"
	"github.com/weisyn/zkvm/internal/core/vm/store"
	"github.com/weisyn/zkvm/internal/core/vm/transition"
	vmiface "github.com/weisyn/zkvm/pkg/interfaces/vm"
)

var testNet = network.BN254

// spend 构造消费 commitment（序列号 sn）的请求与转换
func spend(t *testing.T, commitment, sn uint64) (*console.Request, *transition.Transition) {
	t.Helper()
	req := &console.Request{
		ProgramID:    console.MustProgramID("credits.zk"),
		FunctionName: console.MustIdentifier("fee"),
		InputIDs: []console.InputID{
			{Kind: console.ValueRecord, ID: network.FieldFromUint64(sn), Commitment: network.FieldFromUint64(commitment), Tag: network.FieldFromUint64(sn + 1)},
			{Kind: console.ValuePublic, ID: network.FieldFromUint64(500)},
		},
	}
	tr, err := transition.New(testNet, req.ProgramID, req.FunctionName,
		[]*transition.Input{
			transition.RecordInput(network.FieldFromUint64(sn), network.FieldFromUint64(sn+1)),
			transition.PublicInput(network.FieldFromUint64(500), nil),
		},
		nil, testNet.Generator(), network.FieldFromUint64(9))
	require.NoError(t, err)
	return req, tr
}

func staticQuery(t *testing.T, leaves ...uint64) (*query.Static, *store.CommitmentTree) {
	t.Helper()
	tree, err := store.NewCommitmentTree(testNet, 4)
	require.NoError(t, err)
	var paths []*store.StatePath
	for _, l := range leaves {
		require.NoError(t, tree.Append(network.FieldFromUint64(l)))
	}
	for _, l := range leaves {
		p, err := tree.Path(network.FieldFromUint64(l))
		require.NoError(t, err)
		paths = append(paths, p)
	}
	root, err := tree.Root()
	require.NoError(t, err)
	q, err := query.NewStatic(root, paths...)
	require.NoError(t, err)
	return q, tree
}

func TestPrepareFee(t *testing.T) {
	ctx := context.Background()
	q, tree := staticQuery(t, 40, 41, 42)
	req, tr := spend(t, 41, 7)

	inc := New(testNet)
	require.NoError(t, inc.InsertTransition(req, tr))

	assignments, err := inc.PrepareFee(ctx, tr, q)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, network.FieldFromUint64(41), assignments[0].Commitment)
	assert.Equal(t, network.FieldFromUint64(7), assignments[0].SerialNumber)
	assert.Equal(t, network.FieldFromUint64(8), assignments[0].Tag)

	root, err := FeeGlobalStateRoot(assignments)
	require.NoError(t, err)
	expected, err := tree.Root()
	require.NoError(t, err)
	assert.Equal(t, expected, root)

	spends := Spends(assignments)
	require.Len(t, spends, 1)
	assert.Equal(t, assignments[0].Path, spends[0].Path)
	assert.Equal(t, network.FieldFromUint64(7), spends[0].SerialNumber)
	assert.Equal(t, network.FieldFromUint64(8), spends[0].Tag)

	// 验证方从转换取回相同的公开标识
	assert.Equal(t, []vmiface.SpentRecord{spends[0].SpentRecord}, SpentRecords(tr))
}

func TestPrepareFeeUnknownCommitment(t *testing.T) {
	q, _ := staticQuery(t, 40)
	req, tr := spend(t, 99, 7)

	inc := New(testNet)
	require.NoError(t, inc.InsertTransition(req, tr))
	_, err := inc.PrepareFee(context.Background(), tr, q)
	assert.ErrorIs(t, err, store.ErrCommitmentNotFound)
}

func TestPrepareFeeUnregistered(t *testing.T) {
	q, _ := staticQuery(t, 40)
	_, tr := spend(t, 40, 7)
	_, err := New(testNet).PrepareFee(context.Background(), tr, q)
	assert.ErrorIs(t, err, ErrTransitionNotRegistered)
}

func TestInsertTransitionSerialMismatch(t *testing.T) {
	req, _ := spend(t, 40, 7)
	_, other := spend(t, 40, 8)
	err := New(testNet).InsertTransition(req, other)
	assert.ErrorIs(t, err, console.ErrInvalidRequest)
}

func TestFeeGlobalStateRoot(t *testing.T) {
	root, err := FeeGlobalStateRoot(nil)
	require.NoError(t, err)
	assert.Equal(t, network.Field{}, root)
	assert.Nil(t, Spends(nil))
	assert.Nil(t, Spends([]Assignment{}))

	_, err = FeeGlobalStateRoot([]Assignment{
		{GlobalStateRoot: network.FieldFromUint64(1)},
		{GlobalStateRoot: network.FieldFromUint64(2)},
	})
	assert.ErrorIs(t, err, ErrStateRootMismatch)
}

func TestAssignmentVerify(t *testing.T) {
	q, _ := staticQuery(t, 50, 51)
	path, err := q.GetStatePath(context.Background(), network.FieldFromUint64(50))
	require.NoError(t, err)

	good := Assignment{Commitment: path.Leaf, Path: path, GlobalStateRoot: path.Root}
	assert.NoError(t, good.Verify(testNet))

	wrongLeaf := good
	wrongLeaf.Commitment = network.FieldFromUint64(51)
	assert.ErrorIs(t, wrongLeaf.Verify(testNet), ErrInvalidStatePath)

	assert.ErrorIs(t, Assignment{}.Verify(testNet), ErrInvalidStatePath)
}
