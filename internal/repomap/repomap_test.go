//go:build cgo

package repomap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeintel/internal/graph"
	"github.com/standardbeagle/codeintel/internal/parserpool"
	"github.com/standardbeagle/codeintel/internal/types"
)

const (
	mainSource = `package main

import "example.com/util"

func main() {
	util.Square(3)
}
`
	utilSource = `package util

func Square(n int) int {
	return n * n
}
`
)

func writeTestProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(mainSource), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "util"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "util", "square.go"), []byte(utilSource), 0o644))
	return root
}

func TestBuildGraphIndexesSymbolsAndReferences(t *testing.T) {
	root := writeTestProject(t)
	pool := parserpool.New()
	store := graph.NewMemStore()
	mapper := New(root, pool, store, nil)

	require.NoError(t, mapper.BuildGraph(context.Background()))
	assert.Zero(t, mapper.Failures().Count())

	defs := mapper.FindSymbolDefinitions("Square")
	require.Len(t, defs, 1)
	assert.Equal(t, "util/square.go", defs[0].File)

	refs := mapper.FindSymbolReferences("Square")
	require.Len(t, refs, 1)
	assert.Equal(t, "main.go", refs[0].ReferenceFile)

	assert.ElementsMatch(t, []string{"main.go", "util/square.go"}, mapper.KnownFiles())
}

func TestGetSymbolsForFileReturnsOnlyThatFilesSymbols(t *testing.T) {
	root := writeTestProject(t)
	pool := parserpool.New()
	mapper := New(root, pool, graph.NewMemStore(), nil)
	require.NoError(t, mapper.BuildGraph(context.Background()))

	syms := mapper.GetSymbolsForFile("util/square.go")
	require.Len(t, syms, 1)
	assert.Equal(t, "Square", syms[0].Name)

	assert.Empty(t, mapper.GetSymbolsForFile("nonexistent.go"))
}

func TestUpdateRepositoryDropsSymbolsForDeletedFiles(t *testing.T) {
	root := writeTestProject(t)
	pool := parserpool.New()
	mapper := New(root, pool, graph.NewMemStore(), nil)
	require.NoError(t, mapper.BuildGraph(context.Background()))
	require.Len(t, mapper.FindSymbolDefinitions("Square"), 1)

	require.NoError(t, os.Remove(filepath.Join(root, "util", "square.go")))
	require.NoError(t, mapper.UpdateRepository(context.Background()))

	assert.Empty(t, mapper.FindSymbolDefinitions("Square"))
	assert.NotContains(t, mapper.KnownFiles(), "util/square.go")
}

func TestUpdateRepositoryReparsesModifiedFile(t *testing.T) {
	root := writeTestProject(t)
	pool := parserpool.New()
	mapper := New(root, pool, graph.NewMemStore(), nil)
	require.NoError(t, mapper.BuildGraph(context.Background()))

	updated := `package util

func Square(n int) int {
	return n * n
}

func Cube(n int) int {
	return n * n * n
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "util", "square.go"), []byte(updated), 0o644))
	require.NoError(t, mapper.UpdateRepository(context.Background()))

	assert.Len(t, mapper.FindSymbolDefinitions("Cube"), 1)
	assert.Len(t, mapper.FindSymbolDefinitions("Square"), 1)
}

func TestNewDefaultsNilDetectorToNoOp(t *testing.T) {
	mapper := New("/tmp/does-not-matter", parserpool.New(), graph.NewMemStore(), nil)
	assert.False(t, mapper.Detector().IsCrossProject("vendor/thing.go"))
}

func TestBuildGraphEmitsImportsEdgeBetweenFiles(t *testing.T) {
	root := writeTestProject(t)
	pool := parserpool.New()
	store := graph.NewMemStore()
	mapper := New(root, pool, store, nil)

	require.NoError(t, mapper.BuildGraph(context.Background()))

	edges, err := store.AllEdges(context.Background())
	require.NoError(t, err)

	var found bool
	for _, e := range edges {
		if e.Kind == types.EdgeImports && e.Source == "file:main.go" && e.Target == "file:util/square.go" {
			found = true
		}
	}
	assert.True(t, found, "expected an Imports edge from main.go to util/square.go, got %+v", edges)
}

func TestFileInfoReturnsWalkedPaths(t *testing.T) {
	root := writeTestProject(t)
	pool := parserpool.New()
	mapper := New(root, pool, graph.NewMemStore(), nil)
	require.NoError(t, mapper.BuildGraph(context.Background()))

	abs, lang, ok := mapper.FileInfo("util/square.go")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "util", "square.go"), abs)
	assert.NotEmpty(t, lang)

	_, _, ok = mapper.FileInfo("nonexistent.go")
	assert.False(t, ok)
}
