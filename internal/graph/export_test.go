package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeintel/internal/types"
)

func TestGenerateMermaidGroupsSymbolsUnderTheirFile(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.InitSchema(ctx))

	require.NoError(t, store.AddNode(ctx, types.Node{ID: "file:util/square.go", Kind: types.NodeFile}))
	require.NoError(t, store.AddNode(ctx, types.Node{ID: "symbol:util.Square", Kind: types.NodeFunction}))
	require.NoError(t, store.AddNode(ctx, types.Node{ID: "symbol:main.main", Kind: types.NodeFunction}))
	require.NoError(t, store.AddEdge(ctx, types.Edge{Source: "file:util/square.go", Target: "symbol:util.Square", Kind: types.EdgeContains}))
	require.NoError(t, store.AddEdge(ctx, types.Edge{Source: "symbol:main.main", Target: "symbol:util.Square", Kind: types.EdgeCalls}))

	diagram, err := GenerateMermaid(ctx, store)
	require.NoError(t, err)

	assert.Contains(t, diagram, "graph TD")
	assert.Contains(t, diagram, "subgraph")
	assert.Contains(t, diagram, "util/square.go")
	assert.Contains(t, diagram, "util.Square")
	assert.Contains(t, diagram, "main.main")
	assert.Contains(t, diagram, "-->|Calls|")
}

func TestRenderMermaidPlacesUncontainedNodesOutsideSubgraphs(t *testing.T) {
	nodes := []types.Node{
		{ID: "symbol:orphan.Helper", Kind: types.NodeFunction},
	}

	diagram := RenderMermaid(nodes, nil)

	assert.Contains(t, diagram, "graph TD")
	assert.Contains(t, diagram, "orphan.Helper")
	assert.NotContains(t, diagram, "subgraph")
}

func TestShortPathKeepsLastTwoSegments(t *testing.T) {
	assert.Equal(t, "util/square.go", shortPath("internal/util/square.go"))
	assert.Equal(t, "main.go", shortPath("main.go"))
}
