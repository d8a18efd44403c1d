// Package symbolstore implements the Symbol Store component (spec.md
// §4.C): a hot LRU of symbols backed by a per-project cold disk spill, used
// to bound resident memory on very large trees. It is the only persistent
// symbol container during a long session — not a general-purpose cache.
package symbolstore

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/standardbeagle/codeintel/internal/corelog"
	"github.com/standardbeagle/codeintel/internal/types"
)

// Size/memory presets (spec.md §4.C).
const (
	DefaultCacheSize       = 10000
	LargeProjectCacheSize  = 20000
	LowMemoryCacheSize     = 5000
	DefaultMaxMemoryMB     = 2048
	LargeProjectMaxMemoryMB = 4096
	LowMemoryMaxMemoryMB   = 512
	DefaultCleanupThreshold = 0.8

	// estimatedBytesPerSymbol is a rough, deliberately simple per-symbol
	// memory estimate used only for the cleanup_threshold pressure check
	// and the exported "estimated MB" statistic.
	estimatedBytesPerSymbol = 600
)

// StorageConfig mirrors spec.md §6's enumerated StorageConfig fields
// exactly.
type StorageConfig struct {
	CacheSize        int     `yaml:"cache_size"`
	MaxMemoryMB      int     `yaml:"max_memory_mb"`
	StorageDir       string  `yaml:"storage_dir"`
	UseCompression   bool    `yaml:"use_compression"`
	CleanupThreshold float32 `yaml:"cleanup_threshold"`
}

// DefaultStorageConfig returns spec.md's documented defaults.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		CacheSize:        DefaultCacheSize,
		MaxMemoryMB:      DefaultMaxMemoryMB,
		StorageDir:       filepath.Join(os.TempDir(), "codeintel-symbols"),
		UseCompression:   false,
		CleanupThreshold: DefaultCleanupThreshold,
	}
}

func (c StorageConfig) withDefaults() StorageConfig {
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.MaxMemoryMB <= 0 {
		c.MaxMemoryMB = DefaultMaxMemoryMB
	}
	if c.StorageDir == "" {
		c.StorageDir = DefaultStorageConfig().StorageDir
	}
	if c.CleanupThreshold <= 0 {
		c.CleanupThreshold = DefaultCleanupThreshold
	}
	return c
}

// Stats mirrors spec.md §4.C's exported statistics.
type Stats struct {
	Hits         uint64
	Misses       uint64
	HotSize      int
	ColdSize     int
	EstimatedMB  float64
	DiskReads    uint64
	DiskWrites   uint64
	CleanupCount uint64
}

// HitRate returns Hits/(Hits+Misses), or 0 if there have been no lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type hotEntry struct {
	fqn string
	sym types.Symbol
}

// Store is the thread-safe façade around the hot LRU + cold spill tiers.
// A single mutex guards the whole structure (spec.md §5: "Symbol Store:
// single mutex around the façade; all operations are short").
type Store struct {
	mu sync.Mutex

	cfg        StorageConfig
	projectDir string

	order *list.List
	items map[string]*list.Element // FQN -> *hotEntry element

	coldFQNs  map[string]bool          // FQN currently spilled to disk
	fileIndex map[string]map[string]bool // file -> set of FQN (hot ∪ cold)

	stats Stats
}

// New creates a Store scoped to projectName/projectRoot, resolving the
// spill directory as `storage_dir/{project_name}_{hash(project_root)}`
// (spec.md §4.C). A uuid suffix is appended only if that directory already
// exists and was stamped for a different project root — a defensive
// secondary key against hash collisions.
func New(cfg StorageConfig, projectName, projectRoot string) (*Store, error) {
	cfg = cfg.withDefaults()
	dir, err := resolveProjectDir(cfg.StorageDir, projectName, projectRoot)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("symbolstore: create storage dir: %w", err)
	}

	s := &Store{
		cfg:        cfg,
		projectDir: dir,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		coldFQNs:   make(map[string]bool),
		fileIndex:  make(map[string]map[string]bool),
	}
	return s, nil
}

func resolveProjectDir(base, projectName, projectRoot string) (string, error) {
	dirName := fmt.Sprintf("%s_%s", projectName, hashHex(projectRoot))
	dir := filepath.Join(base, dirName)
	marker := filepath.Join(dir, ".project_root")

	if existing, err := os.ReadFile(marker); err == nil {
		if strings.TrimSpace(string(existing)) != projectRoot {
			dirName = fmt.Sprintf("%s-%s", dirName, uuid.NewString())
			dir = filepath.Join(base, dirName)
		} else {
			return dir, nil
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("symbolstore: create storage dir: %w", err)
	}
	if err := os.WriteFile(marker, []byte(projectRoot), 0o644); err != nil {
		return "", fmt.Errorf("symbolstore: write project marker: %w", err)
	}
	return dir, nil
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}

func coldFileName(fqn string) string {
	sum := sha256.Sum256([]byte(fqn))
	return "symbol_" + hex.EncodeToString(sum[:]) + ".json"
}

// StoreSymbol admits sym to the hot tier, evicting the LRU entry to cold
// storage if at capacity.
func (s *Store) StoreSymbol(sym types.Symbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[sym.FQN]; ok {
		elem.Value.(*hotEntry).sym = sym
		s.order.MoveToFront(elem)
	} else {
		elem := s.order.PushFront(&hotEntry{fqn: sym.FQN, sym: sym})
		s.items[sym.FQN] = elem
	}
	delete(s.coldFQNs, sym.FQN)
	s.addToFileIndexLocked(sym.File, sym.FQN)

	if s.order.Len() > s.cfg.CacheSize {
		if err := s.evictOldestLocked(); err != nil {
			return err
		}
	}
	if s.estimatedMBLocked() >= float64(s.cfg.CleanupThreshold)*float64(s.cfg.MaxMemoryMB) {
		if err := s.evictHalfLocked(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) addToFileIndexLocked(file, fqn string) {
	set, ok := s.fileIndex[file]
	if !ok {
		set = make(map[string]bool)
		s.fileIndex[file] = set
	}
	set[fqn] = true
}

func (s *Store) evictOldestLocked() error {
	oldest := s.order.Back()
	if oldest == nil {
		return nil
	}
	entry := oldest.Value.(*hotEntry)
	s.order.Remove(oldest)
	delete(s.items, entry.fqn)
	if err := s.writeColdLocked(entry.sym); err != nil {
		return err
	}
	s.coldFQNs[entry.fqn] = true
	s.stats.DiskWrites++
	return nil
}

func (s *Store) evictHalfLocked() error {
	n := s.order.Len() / 2
	for i := 0; i < n; i++ {
		if err := s.evictOldestLocked(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeColdLocked(sym types.Symbol) error {
	data, err := json.Marshal(sym)
	if err != nil {
		return fmt.Errorf("symbolstore: marshal symbol %s: %w", sym.FQN, err)
	}
	path := filepath.Join(s.projectDir, coldFileName(sym.FQN))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("symbolstore: write cold blob for %s: %w", sym.FQN, err)
	}
	return nil
}

// GetSymbol returns sym for fqn, promoting it from cold to hot on a cold
// hit. ok is false if fqn is not present in either tier.
func (s *Store) GetSymbol(fqn string) (types.Symbol, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[fqn]; ok {
		s.order.MoveToFront(elem)
		s.stats.Hits++
		return elem.Value.(*hotEntry).sym, true, nil
	}

	if s.coldFQNs[fqn] {
		path := filepath.Join(s.projectDir, coldFileName(fqn))
		data, err := os.ReadFile(path)
		if err != nil {
			// The cold index disagrees with the filesystem; treat as a miss
			// rather than failing the caller (spec.md §7: degrade, don't raise).
			delete(s.coldFQNs, fqn)
			s.stats.Misses++
			return types.Symbol{}, false, nil
		}
		var sym types.Symbol
		if err := json.Unmarshal(data, &sym); err != nil {
			return types.Symbol{}, false, fmt.Errorf("symbolstore: unmarshal cold blob for %s: %w", fqn, err)
		}
		_ = os.Remove(path)
		delete(s.coldFQNs, fqn)
		s.stats.DiskReads++
		s.stats.Hits++

		elem := s.order.PushFront(&hotEntry{fqn: fqn, sym: sym})
		s.items[fqn] = elem
		if s.order.Len() > s.cfg.CacheSize {
			_ = s.evictOldestLocked()
		}
		return sym, true, nil
	}

	s.stats.Misses++
	return types.Symbol{}, false, nil
}

// GetSymbolsForFile returns every symbol introduced by file, using the
// file→FQN index; cold entries are loaded and promoted as needed.
func (s *Store) GetSymbolsForFile(file string) ([]types.Symbol, error) {
	s.mu.Lock()
	fqns := make([]string, 0, len(s.fileIndex[file]))
	for fqn := range s.fileIndex[file] {
		fqns = append(fqns, fqn)
	}
	s.mu.Unlock()

	out := make([]types.Symbol, 0, len(fqns))
	for _, fqn := range fqns {
		sym, ok, err := s.GetSymbol(fqn)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, sym)
		}
	}
	return out, nil
}

// GetAllSymbols drains the cold tier into a single materialised map without
// mutating either tier. Spec.md §4.C calls this "warning-level" — callers
// should treat it as expensive on large projects.
func (s *Store) GetAllSymbols() (map[string]types.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	corelog.Warnf("symbolstore: get_all_symbols draining %d cold entries", len(s.coldFQNs))

	out := make(map[string]types.Symbol, len(s.items)+len(s.coldFQNs))
	for fqn, elem := range s.items {
		out[fqn] = elem.Value.(*hotEntry).sym
	}
	for fqn := range s.coldFQNs {
		path := filepath.Join(s.projectDir, coldFileName(fqn))
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var sym types.Symbol
		if err := json.Unmarshal(data, &sym); err != nil {
			continue
		}
		out[fqn] = sym
		s.stats.DiskReads++
	}
	return out, nil
}

// ClearAllData wipes both tiers and removes every spill file, resetting
// statistics.
func (s *Store) ClearAllData() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *Store) clearLocked() error {
	s.order = list.New()
	s.items = make(map[string]*list.Element)
	s.coldFQNs = make(map[string]bool)
	s.fileIndex = make(map[string]map[string]bool)
	s.stats = Stats{}

	entries, err := os.ReadDir(s.projectDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("symbolstore: read storage dir: %w", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "symbol_") {
			_ = os.Remove(filepath.Join(s.projectDir, entry.Name()))
		}
	}
	return nil
}

// InitializeForProject wipes the store and retargets its storage directory
// to the new project root, deleting the old directory to prevent
// cross-run contamination (spec.md §4.C, §5).
func (s *Store) InitializeForProject(projectName, projectRoot string) error {
	s.mu.Lock()
	oldDir := s.projectDir
	s.mu.Unlock()

	if err := s.ClearAllData(); err != nil {
		return err
	}
	_ = os.RemoveAll(oldDir)

	dir, err := resolveProjectDir(s.cfg.StorageDir, projectName, projectRoot)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("symbolstore: create storage dir: %w", err)
	}

	s.mu.Lock()
	s.projectDir = dir
	s.mu.Unlock()
	return nil
}

// CleanupOldFiles removes cold spill files older than maxAge, returning the
// number removed.
func (s *Store) CleanupOldFiles(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.projectDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("symbolstore: read storage dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "symbol_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.projectDir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		s.stats.CleanupCount++
	}
	return removed, nil
}

// Stats returns a snapshot of the store's statistics.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stats
	out.HotSize = s.order.Len()
	out.ColdSize = len(s.coldFQNs)
	out.EstimatedMB = s.estimatedMBLocked()
	return out
}

func (s *Store) estimatedMBLocked() float64 {
	return float64(s.order.Len()*estimatedBytesPerSymbol) / (1024 * 1024)
}

// ProjectDir returns the resolved spill directory, primarily for tests.
func (s *Store) ProjectDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectDir
}

// hotFQNsSorted returns the FQNs currently in the hot tier, sorted
// alphabetically.
func (s *Store) hotFQNsSorted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, s.order.Len())
	for e := s.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*hotEntry).fqn)
	}
	sort.Strings(out) // deterministic for tests that don't care about order
	return out
}
