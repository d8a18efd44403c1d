package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeintel/internal/symbolstore"
)

func TestLoadReturnsDefaultsWhenNoFileExists(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, symbolstore.DefaultCacheSize, cfg.Storage.CacheSize)
	assert.Empty(t, cfg.Supplementary)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	content := `
storage:
  cache_size: 500
  max_memory_mb: 128
supplementary:
  - name: SkeletonProject
    path: ../skeleton
    enabled: true
    priority: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeintel.yml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Storage.CacheSize)
	assert.Equal(t, 128, cfg.Storage.MaxMemoryMB)
	require.Len(t, cfg.Supplementary, 1)
	assert.Equal(t, "SkeletonProject", cfg.Supplementary[0].Name)
}

func TestEnabledSupplementaryProjectsFiltersDisabled(t *testing.T) {
	cfg := &ProjectConfig{
		Supplementary: []SupplementaryProjectConfig{
			{Name: "a", Enabled: true},
			{Name: "b", Enabled: false},
		},
	}
	enabled := cfg.EnabledSupplementaryProjects()
	require.Len(t, enabled, 1)
	assert.Equal(t, "a", enabled[0].Name)
}
