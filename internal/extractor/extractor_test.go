package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeintel/internal/langs"
	"github.com/standardbeagle/codeintel/internal/parserpool"
	"github.com/standardbeagle/codeintel/internal/types"
)

const goSource = `package demo

import "fmt"

type Greeter struct{}

func (g *Greeter) Greet(name string) string {
	return helper(name)
}

func helper(name string) string {
	return fmt.Sprintf("hello %s", name)
}
`

func writeTempGoFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.go")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractSymbolsFromFileUsesProjectRelativeKey(t *testing.T) {
	diskPath := writeTempGoFile(t, goSource)
	pool := parserpool.New()
	e := New(pool)

	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "demo.go", langs.Go))

	symbols := e.Symbols()
	require.NotEmpty(t, symbols)
	for _, sym := range symbols {
		assert.Equal(t, "demo.go", sym.File, "symbols must be keyed by the project-relative key, not the disk path")
	}

	assert.ElementsMatch(t, []string{"demo.go"}, uniqueFiles(symbols))
}

func uniqueFiles(symbols map[string]types.Symbol) []string {
	set := map[string]bool{}
	for _, s := range symbols {
		set[s.File] = true
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	return out
}

func TestExtractSymbolsFromFileFindsFunctionsAndMethod(t *testing.T) {
	diskPath := writeTempGoFile(t, goSource)
	pool := parserpool.New()
	e := New(pool)
	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "demo.go", langs.Go))

	_, hasHelper := e.Lookup("helper")
	assert.True(t, hasHelper)

	_, hasMethod := e.Lookup("Greeter.Greet")
	assert.True(t, hasMethod, "method FQN should be qualified by its receiver type")
}

func TestExtractSymbolsFromFileIncrementalReusesCache(t *testing.T) {
	diskPath := writeTempGoFile(t, goSource)
	pool := parserpool.New()
	e := New(pool)

	require.NoError(t, e.ExtractSymbolsFromFileIncremental(diskPath, "demo.go", langs.Go))
	first := e.Symbols()

	require.False(t, pool.NeedsReparse(diskPath))

	require.NoError(t, e.ExtractSymbolsFromFileIncremental(diskPath, "demo.go", langs.Go))
	second := e.Symbols()

	assert.Equal(t, len(first), len(second))
}

func TestRemoveSymbolsForFileDropsSymbolsAndReferences(t *testing.T) {
	diskPath := writeTempGoFile(t, goSource)
	pool := parserpool.New()
	e := New(pool)
	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "demo.go", langs.Go))
	require.NotEmpty(t, e.Symbols())

	e.RemoveSymbolsForFile("demo.go")

	assert.Empty(t, e.Symbols())
	assert.Empty(t, e.References())
	assert.Empty(t, e.SymbolsForFile("demo.go"))
}

func TestExtractRemoveExtractRoundTrip(t *testing.T) {
	diskPath := writeTempGoFile(t, goSource)
	pool := parserpool.New()
	e := New(pool)

	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "demo.go", langs.Go))
	firstCount := len(e.Symbols())
	require.Greater(t, firstCount, 0)

	e.RemoveSymbolsForFile("demo.go")
	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "demo.go", langs.Go))

	assert.Equal(t, firstCount, len(e.Symbols()))
}

func TestFindMostSpecificContainingSymbol(t *testing.T) {
	diskPath := writeTempGoFile(t, goSource)
	pool := parserpool.New()
	e := New(pool)
	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "demo.go", langs.Go))

	helper, ok := e.Lookup("helper")
	require.True(t, ok)

	// A line inside helper's body should resolve to helper, not to the file.
	line := helper.StartLine + 1
	sym, found := e.FindMostSpecificContainingSymbol("demo.go", line)
	require.True(t, found)
	assert.Equal(t, "helper", sym.Name)
}

func TestResolveReferenceFQNsBindsCallReferences(t *testing.T) {
	diskPath := writeTempGoFile(t, goSource)
	pool := parserpool.New()
	e := New(pool)
	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "demo.go", langs.Go))

	resolved := e.ResolveReferenceFQNs()
	assert.GreaterOrEqual(t, resolved, 0)

	var sawHelperCall bool
	for _, ref := range e.References() {
		if ref.SymbolName == "helper" {
			sawHelperCall = true
			assert.Equal(t, "helper", ref.SymbolFQN)
		}
	}
	assert.True(t, sawHelperCall, "expected a Call reference to helper")
}

func TestMergeIsFirstWriterWins(t *testing.T) {
	diskPath := writeTempGoFile(t, goSource)
	pool := parserpool.New()

	central := New(pool)
	central.ExtractSymbolsFromFile(diskPath, "demo.go", langs.Go)

	scratch := New(pool)
	scratch.ExtractSymbolsFromFile(diskPath, "demo.go", langs.Go)

	before := len(central.Symbols())
	central.Merge(scratch)
	after := len(central.Symbols())

	assert.Equal(t, before, after, "merging duplicate FQNs must not grow the symbol count")
}
