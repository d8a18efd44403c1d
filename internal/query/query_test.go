package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeintel/internal/graph"
	"github.com/standardbeagle/codeintel/internal/parserpool"
	"github.com/standardbeagle/codeintel/internal/repomap"
)

const mainGoSource = `package main

import "demo/util"

func main() {
	util.Square(3)
}
`

const utilGoSource = `package util

func Square(n int) int {
	return n * n
}
`

func newTestProject(t *testing.T) (*repomap.RepoMapper, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "util"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(mainGoSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "util", "square.go"), []byte(utilGoSource), 0o644))

	pool := parserpool.New()
	store := graph.NewMemStore()
	mapper := repomap.New(root, pool, store, repomap.NoOpCrossProjectDetector{})
	require.NoError(t, mapper.BuildGraph(context.Background()))
	return mapper, root
}

func TestDefinitionsReturnsMainProjectSymbol(t *testing.T) {
	mapper, _ := newTestProject(t)
	e := New(mapper, nil, nil)

	defs := e.Definitions("Square")
	require.NotEmpty(t, defs)
	assert.Equal(t, "util/square.go", defs[0].File)
	assert.Empty(t, defs[0].OriginProject)
}

func TestDefinitionsReturnsEmptyForUnknownName(t *testing.T) {
	mapper, _ := newTestProject(t)
	e := New(mapper, nil, nil)
	assert.Empty(t, e.Definitions("NoSuchSymbol"))
}

func TestReferencesFallsBackFromFQNToBareName(t *testing.T) {
	mapper, _ := newTestProject(t)
	e := New(mapper, nil, nil)

	refs := e.References("Square")
	require.NotEmpty(t, refs)
	assert.Equal(t, "Square", refs[0].SymbolName)
}

func TestSubgraphDelegatesToRepoMapper(t *testing.T) {
	mapper, _ := newTestProject(t)
	e := New(mapper, nil, nil)

	result, err := e.Subgraph(context.Background(), "Square", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Nodes)
}

func TestSubgraphOnNilMapperReturnsEmpty(t *testing.T) {
	e := New(nil, nil, nil)
	result, err := e.Subgraph(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Empty(t, result.Nodes)
}
