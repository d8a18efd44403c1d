//go:build cgo

package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeintel/internal/types"
)

func newTestKuzuStore(t *testing.T) *KuzuStore {
	t.Helper()
	store, err := NewKuzuStore()
	require.NoError(t, err)
	require.NoError(t, store.InitSchema(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestKuzuStoreAddAndGetNode(t *testing.T) {
	store := newTestKuzuStore(t)
	ctx := context.Background()

	node := types.Node{ID: "file:main.go", Kind: types.NodeFile}
	require.NoError(t, store.AddNode(ctx, node))

	got, ok, err := store.GetNode(ctx, "file:main.go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, node, got)
}

func TestKuzuStoreEdgesAndNeighbors(t *testing.T) {
	store := newTestKuzuStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddNode(ctx, types.Node{ID: "symbol:A.Run", Kind: types.NodeFunction}))
	require.NoError(t, store.AddNode(ctx, types.Node{ID: "symbol:B.Helper", Kind: types.NodeFunction}))
	require.NoError(t, store.AddEdge(ctx, types.Edge{Source: "symbol:A.Run", Target: "symbol:B.Helper", Kind: types.EdgeCalls}))

	forward, err := store.Neighbors(ctx, "symbol:A.Run", DirectionForward)
	require.NoError(t, err)
	require.Len(t, forward, 1)
	assert.Equal(t, "symbol:B.Helper", forward[0].Target)

	reverse, err := store.Neighbors(ctx, "symbol:B.Helper", DirectionReverse)
	require.NoError(t, err)
	require.Len(t, reverse, 1)
	assert.Equal(t, "symbol:A.Run", reverse[0].Source)
}

func TestKuzuStoreStatsAndClear(t *testing.T) {
	store := newTestKuzuStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddNode(ctx, types.Node{ID: "file:a.go", Kind: types.NodeFile}))
	require.NoError(t, store.AddNode(ctx, types.Node{ID: "symbol:pkg.Fn", Kind: types.NodeFunction}))
	require.NoError(t, store.AddEdge(ctx, types.Edge{Source: "file:a.go", Target: "symbol:pkg.Fn", Kind: types.EdgeContains}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FileCount)
	assert.Equal(t, 1, stats.SymbolCount)
	assert.Equal(t, 1, stats.EdgeCount)

	require.NoError(t, store.Clear(ctx))
	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.FileCount)
	assert.Zero(t, stats.EdgeCount)
}
