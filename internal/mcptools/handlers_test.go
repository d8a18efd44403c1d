//go:build cgo

package mcptools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeintel/internal/graph"
	"github.com/standardbeagle/codeintel/internal/parserpool"
	"github.com/standardbeagle/codeintel/internal/query"
	"github.com/standardbeagle/codeintel/internal/repomap"
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

// newTestService writes a tiny two-file Go project to disk, builds its
// graph, and wraps the resulting Engine in a CodeIntelService.
func newTestService(t *testing.T) *CodeIntelService {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(mainSource), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "util"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "util", "square.go"), []byte(utilSource), 0o644))

	pool := parserpool.New()
	store := graph.NewMemStore()
	mapper := repomap.New(root, pool, store, repomap.NoOpCrossProjectDetector{})
	require.NoError(t, mapper.BuildGraph(context.Background()))

	engine := query.New(mapper, nil, pool)
	return NewCodeIntelService(engine)
}

func TestAnalyzeCodeReturnsSymbolsAndReferences(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.AnalyzeCode(ctx, nil, AnalyzeCodeInput{FilePath: "util/square.go"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Symbols)
	assert.Equal(t, "Square", lastSegment(out.Symbols[0].Symbol))
}

func TestFindSymbolDefinitionsFindsMainProjectSymbol(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.FindSymbolDefinitions(ctx, nil, FindSymbolDefinitionsInput{SymbolName: "Square"})
	require.NoError(t, err)
	require.Len(t, out.Definitions, 1)
	assert.Equal(t, "util/square.go", out.Definitions[0].File)
}

func TestFindSymbolDefinitionsUnknownNameReturnsEmpty(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.FindSymbolDefinitions(ctx, nil, FindSymbolDefinitionsInput{SymbolName: "NoSuchSymbol"})
	require.NoError(t, err)
	assert.Empty(t, out.Definitions)
}

func TestFindSymbolReferencesFindsCallSite(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.FindSymbolReferences(ctx, nil, FindSymbolReferencesInput{SymbolName: "Square"})
	require.NoError(t, err)
	require.NotEmpty(t, out.References)
	assert.Equal(t, "main.go", out.References[0].File)
}

func TestGetSymbolSubgraphTraversesFromSeed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.GetSymbolSubgraph(ctx, nil, GetSymbolSubgraphInput{SymbolName: "Square", MaxDepth: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Nodes)
}

func TestGetRelatedFilesSkeletonReachesConnectedFile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.GetRelatedFilesSkeleton(ctx, nil, GetRelatedFilesSkeletonInput{
		ActiveFiles: []string{"main.go"},
		MaxDepth:    3,
		MaxTokens:   10000,
	})
	require.NoError(t, err)

	var sawUtil bool
	for _, f := range out.Files {
		if f.FilePath == "util/square.go" {
			sawUtil = true
		}
	}
	assert.True(t, sawUtil, "expected util/square.go to be reached via the reference graph")
}

func TestGetMultipleFilesSkeletonRendersRequestedFiles(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.GetMultipleFilesSkeleton(ctx, nil, GetMultipleFilesSkeletonInput{
		FilePaths: []string{"main.go", "util/square.go"},
		MaxTokens: 10000,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalFiles)
}

// lastSegment returns the portion of an FQN after the last '.', matching
// this fixture's unqualified top-level function names.
func lastSegment(fqn string) string {
	for i := len(fqn) - 1; i >= 0; i-- {
		if fqn[i] == '.' {
			return fqn[i+1:]
		}
	}
	return fqn
}
