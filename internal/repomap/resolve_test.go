package repomap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeintel/internal/langs"
)

func TestResolveGoRewritesModulePathToPackageFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/app\n\ngo 1.22\n"), 0o644))

	r := newImportResolver(dir, []string{"main.go", "util/square.go"})

	target, ok := r.Resolve("example.com/app/util", "main.go", langs.Go)
	assert.True(t, ok)
	assert.Equal(t, "util/square.go", target)
}

func TestResolveTSRelativeImportProbesExtensions(t *testing.T) {
	dir := t.TempDir()
	r := newImportResolver(dir, []string{"src/index.ts", "src/math.ts"})

	target, ok := r.Resolve("./math", "src/index.ts", langs.TypeScript)
	assert.True(t, ok)
	assert.Equal(t, "src/math.ts", target)
}

func TestResolvePythonRelativeImportWalksPackage(t *testing.T) {
	dir := t.TempDir()
	r := newImportResolver(dir, []string{"pkg/__init__.py", "pkg/helpers.py", "main.py"})

	target, ok := r.Resolve(".helpers", "pkg/__init__.py", langs.Python)
	assert.True(t, ok)
	assert.Equal(t, "pkg/helpers.py", target)
}

func TestResolveRustCratePathJoinsSrcRoot(t *testing.T) {
	dir := t.TempDir()
	r := newImportResolver(dir, []string{"src/lib.rs", "src/shapes/circle.rs"})

	target, ok := r.Resolve("crate::shapes::circle", "src/lib.rs", langs.Rust)
	assert.True(t, ok)
	assert.Equal(t, "src/shapes/circle.rs", target)
}

func TestResolveUnknownImportReturnsNotOK(t *testing.T) {
	dir := t.TempDir()
	r := newImportResolver(dir, []string{"main.go"})

	_, ok := r.Resolve("nonexistent/pkg", "main.go", langs.Go)
	assert.False(t, ok)
}
