// Package supplementary implements the Supplementary Registry (spec.md
// §4.E): a lightweight, symbols-only index over read-only projects whose
// use matters to the main project's graph but whose own internal graph is
// never built.
package supplementary

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/codeintel/internal/config"
	"github.com/standardbeagle/codeintel/internal/corelog"
	"github.com/standardbeagle/codeintel/internal/extractor"
	"github.com/standardbeagle/codeintel/internal/langs"
	"github.com/standardbeagle/codeintel/internal/parserpool"
	"github.com/standardbeagle/codeintel/internal/types"
)

// SupplementarySymbolInfo is a symbol discovered in a supplementary
// project, FQN-qualified by the project name (spec.md §4.E step 2).
type SupplementarySymbolInfo struct {
	types.Symbol
	Project string
}

// fqnFor builds the "{project}::{parent}.{name}" / "{project}::{name}" FQN
// format spec.md §3/§4.E requires for cross-project symbol identity.
func fqnFor(project string, parent, name string) string {
	if parent == "" {
		return fmt.Sprintf("%s::%s", project, name)
	}
	return fmt.Sprintf("%s::%s.%s", project, parent, name)
}

// project is one loaded supplementary project's index.
type project struct {
	cfg     config.SupplementaryProjectConfig
	byFQN   map[string]SupplementarySymbolInfo
	byFile  map[string][]SupplementarySymbolInfo
	files   map[string]bool
}

// Registry indexes every enabled supplementary project by FQN, by file,
// and by project name. Construction loads all configured projects
// concurrently; it is read-only thereafter (spec.md §4.E, §5).
type Registry struct {
	mu       sync.RWMutex
	mainRoot string
	projects map[string]*project // project name -> index
	order    []string            // enabled project names in config order
}

// Load builds a Registry from cfgs, walking each enabled project's path and
// running single-file analysis over every file whose extension matches the
// project's configured languages (or the built-in set, if unset). A failure
// to load one project is logged and does not abort the others (spec.md
// §4.E, §7). mainRoot is the main project's root, used by IsCrossProject to
// detect files that lie outside it.
func Load(pool *parserpool.Pool, mainRoot string, cfgs []config.SupplementaryProjectConfig) *Registry {
	r := &Registry{projects: make(map[string]*project), mainRoot: mainRoot}

	var enabled []config.SupplementaryProjectConfig
	for _, c := range cfgs {
		if c.Enabled {
			enabled = append(enabled, c)
			r.order = append(r.order, c.Name)
		}
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, c := range enabled {
		c := c
		g.Go(func() error {
			p, err := loadProject(pool, c)
			if err != nil {
				corelog.Warnf("supplementary: failed to load project %s: %v", c.Name, err)
				return nil
			}
			mu.Lock()
			r.projects[c.Name] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // the workers never return a non-nil error; loadProject failures are logged above
	return r
}

func loadProject(pool *parserpool.Pool, cfg config.SupplementaryProjectConfig) (*project, error) {
	allowed := make(map[langs.Language]bool)
	for _, name := range cfg.Languages {
		if l, ok := langs.ParseName(name); ok {
			allowed[l] = true
		}
	}

	p := &project{
		cfg:    cfg,
		byFQN:  make(map[string]SupplementarySymbolInfo),
		byFile: make(map[string][]SupplementarySymbolInfo),
		files:  make(map[string]bool),
	}

	skipDirs := map[string]bool{
		"node_modules": true, "target": true, "dist": true, "bin": true,
		"obj": true, "packages": true, "build": true,
	}

	err := filepath.WalkDir(cfg.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == cfg.Path {
				return err
			}
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != cfg.Path && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		lang, ok := langs.ForExtension(filepath.Ext(path))
		if !ok {
			return nil
		}
		if len(allowed) > 0 && !allowed[lang] {
			return nil
		}

		rel, relErr := filepath.Rel(cfg.Path, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		e := extractor.New(pool)
		if err := e.ExtractSymbolsFromFile(path, rel, lang); err != nil {
			corelog.Warnf("supplementary: %s: failed to analyze %s: %v", cfg.Name, rel, err)
			return nil
		}

		p.files[rel] = true
		for _, sym := range e.Symbols() {
			fqn := fqnFor(cfg.Name, sym.Parent, sym.Name)
			info := SupplementarySymbolInfo{
				Symbol:  sym,
				Project: cfg.Name,
			}
			info.FQN = fqn
			info.OriginProject = cfg.Name
			p.byFQN[fqn] = info
			p.byFile[rel] = append(p.byFile[rel], info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// LookupByFQN returns the symbol for a fully project-qualified FQN.
func (r *Registry) LookupByFQN(fqn string) (SupplementarySymbolInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.projects {
		if info, ok := p.byFQN[fqn]; ok {
			return info, true
		}
	}
	return SupplementarySymbolInfo{}, false
}

// LookupByName returns every indexed symbol across every loaded project
// whose bare name matches, for definitions()'s optional cross-project
// display (spec.md §4.F.1). Projects are visited in r.order (config
// order); the order of matches within one project is not defined.
func (r *Registry) LookupByName(name string) []SupplementarySymbolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []SupplementarySymbolInfo
	for _, pname := range r.order {
		p, ok := r.projects[pname]
		if !ok {
			continue
		}
		for _, info := range p.byFQN {
			if info.Name == name {
				out = append(out, info)
			}
		}
	}
	return out
}

// GetSymbolsInFile returns the symbols indexed for a project-relative file
// path within any loaded project.
func (r *Registry) GetSymbolsInFile(file string) []SupplementarySymbolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.projects {
		if syms, ok := p.byFile[file]; ok {
			out := make([]SupplementarySymbolInfo, len(syms))
			copy(out, syms)
			return out
		}
	}
	return nil
}

// GetSymbolsInProject returns every symbol indexed under project name.
func (r *Registry) GetSymbolsInProject(name string) []SupplementarySymbolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[name]
	if !ok {
		return nil
	}
	out := make([]SupplementarySymbolInfo, 0, len(p.byFQN))
	for _, info := range p.byFQN {
		out = append(out, info)
	}
	return out
}

// ContainsFile reports whether file (as an absolute or project-relative
// path, relative to the main project root) lies under any loaded
// supplementary project's root.
func (r *Registry) ContainsFile(file string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	absFile := r.resolveAgainstMainRootLocked(file)
	for _, p := range r.projects {
		if isUnderRoot(r.resolveAgainstMainRootLocked(p.cfg.Path), absFile) {
			return true
		}
	}
	return false
}

// GetProjectForFile returns the name of the supplementary project
// containing file, if any.
func (r *Registry) GetProjectForFile(file string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	absFile := r.resolveAgainstMainRootLocked(file)
	for name, p := range r.projects {
		if isUnderRoot(r.resolveAgainstMainRootLocked(p.cfg.Path), absFile) {
			return name, true
		}
	}
	return "", false
}

// resolveAgainstMainRootLocked turns a path that may be relative to the
// main project root (as every main-project file path is, per spec.md §3's
// canonicalisation invariant) into an absolute path for comparison.
// Already-absolute paths pass through unchanged. Caller holds r.mu.
func (r *Registry) resolveAgainstMainRootLocked(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if r.mainRoot == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		return abs
	}
	return filepath.Join(r.mainRoot, path)
}

func isUnderRoot(absRoot, absFile string) bool {
	rel, err := filepath.Rel(absRoot, absFile)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// IsCrossProject implements repomap.CrossProjectDetector: a file is
// cross-project iff it is under a configured supplementary project path, or
// (fallback) its path matches a well-known dependency pattern (spec.md
// §4.F.3). Main-project file paths are always project-relative by
// construction, so they never fail an "outside the main root" check; that
// leg of the spec's classification only matters for absolute paths a
// caller resolves from elsewhere (e.g. a symlinked or externally-resolved
// import target), which resolveAgainstMainRootLocked already passes
// through unchanged for the ContainsFile comparison above.
func (r *Registry) IsCrossProject(file string) bool {
	if r.ContainsFile(file) {
		return true
	}
	return matchesDependencyPattern(file)
}

var dependencyPatterns = []string{
	"node_modules",
	"target/debug/deps",
	"target/release/deps",
	".cargo/registry",
	"vendor",
	"third_party",
	"external",
	"build",
	"dist",
	"out",
	"deps",
}

func matchesDependencyPattern(file string) bool {
	for _, pattern := range dependencyPatterns {
		if strings.Contains(file, pattern) {
			return true
		}
	}
	return false
}
