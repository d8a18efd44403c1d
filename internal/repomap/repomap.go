// Package repomap implements the Repo Mapper (spec.md §4.D): it walks a
// project tree, drives parsing and symbol extraction in parallel batches,
// merges the results into a single graph, and answers the graph queries the
// Query Engine builds on top of.
package repomap

import (
	"context"
	"fmt"
	"sync"

	"github.com/standardbeagle/codeintel/internal/corelog"
	"github.com/standardbeagle/codeintel/internal/extractor"
	"github.com/standardbeagle/codeintel/internal/graph"
	"github.com/standardbeagle/codeintel/internal/langs"
	"github.com/standardbeagle/codeintel/internal/parserpool"
	"github.com/standardbeagle/codeintel/internal/types"
)

// maxReferenceEdges is the large-graph guardrail (spec.md §4.D): past this
// many references, edge construction emits Contains edges only.
const maxReferenceEdges = 100000

// RepoMapper owns the live graph and the shared extractor for one project
// root. It is the only component that mutates the graph; the Supplementary
// Registry and Query Engine only read through it.
type RepoMapper struct {
	mu sync.RWMutex

	root      string
	pool      *parserpool.Pool
	extractor *extractor.Extractor
	store     graph.Store

	files    map[string]walkFile // relPath -> walkFile, last-processed set
	failures *FailureStats

	detector CrossProjectDetector
	resolver *importResolver
}

// New constructs a RepoMapper rooted at root, backed by store for graph
// persistence and pool for parsing. detector classifies cross-project
// boundary files for BFS queries (spec.md §4.F.3); pass
// NoOpCrossProjectDetector{} if no supplementary projects are configured.
func New(root string, pool *parserpool.Pool, store graph.Store, detector CrossProjectDetector) *RepoMapper {
	if detector == nil {
		detector = NoOpCrossProjectDetector{}
	}
	return &RepoMapper{
		root:      root,
		pool:      pool,
		extractor: extractor.New(pool),
		store:     store,
		files:     make(map[string]walkFile),
		failures:  &FailureStats{},
		detector:  detector,
	}
}

// BuildGraph performs the full construction pass described in spec.md §4.D
// steps 1-6. It never returns an error for an unreadable root beyond the
// initial walk failure — callers that can't build the graph should treat
// queries against an empty RepoMapper as returning empty results, per §4.D's
// "the front-end stays responsive" failure semantics.
func (m *RepoMapper) BuildGraph(ctx context.Context) error {
	files, err := walkProject(m.root)
	if err != nil {
		corelog.Warnf("repomap: walk failed for %s: %v", m.root, err)
		return err
	}

	m.mu.Lock()
	m.files = make(map[string]walkFile, len(files))
	for _, f := range files {
		m.files[f.relPath] = f
	}
	m.mu.Unlock()

	batchSz := batchSize(files)
	fileBatches := batches(files, batchSz)

	if err := processBatches(ctx, m.pool, m.extractor, fileBatches, m.failures); err != nil {
		return err
	}

	resolved := m.extractor.ResolveReferenceFQNs()
	corelog.Infof("repomap: resolved %d late references for %s", resolved, m.root)

	if err := m.rebuildGraphEdges(ctx, files); err != nil {
		return err
	}
	m.logParsingStatistics(ctx, len(files))
	return nil
}

// logParsingStatistics emits a single summary line once a build finishes:
// node/edge totals plus the parsed/attempted ratio, so a failing run still
// shows how much of the tree it actually covered.
func (m *RepoMapper) logParsingStatistics(ctx context.Context, attempted int) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return
	}
	failed := m.failures.Count()
	parsed := attempted - failed
	rate := 100.0
	if attempted > 0 {
		rate = float64(parsed) / float64(attempted) * 100
	}
	corelog.Infof("repomap: %d nodes, %d edges, %.0f%% parsed (%d/%d files)",
		stats.FileCount+stats.SymbolCount, stats.EdgeCount, rate, parsed, attempted)
}

// rebuildGraphEdges implements step 6: emit File nodes, symbol nodes +
// Contains edges, and reference edges (subject to the large-graph
// guardrail).
func (m *RepoMapper) rebuildGraphEdges(ctx context.Context, files []walkFile) error {
	if err := m.store.InitSchema(ctx); err != nil {
		return fmt.Errorf("repomap: init schema: %w", err)
	}

	relPaths := make([]string, len(files))
	for i, f := range files {
		relPaths[i] = f.relPath
	}
	m.resolver = newImportResolver(m.root, relPaths)

	for _, f := range files {
		node := types.Node{ID: types.FileNodeID(f.relPath), Kind: types.NodeFile}
		if err := m.store.AddNode(ctx, node); err != nil {
			return fmt.Errorf("repomap: add file node %s: %w", f.relPath, err)
		}
	}

	symbols := m.extractor.Symbols()
	for _, sym := range symbols {
		kind, ok := types.SymbolKindToNodeKind(sym.Kind)
		if !ok {
			continue
		}
		node := types.Node{ID: types.SymbolNodeID(sym.FQN), Kind: kind}
		if err := m.store.AddNode(ctx, node); err != nil {
			return fmt.Errorf("repomap: add symbol node %s: %w", sym.FQN, err)
		}
		edge := types.Edge{
			Source: types.FileNodeID(sym.File),
			Target: types.SymbolNodeID(sym.FQN),
			Kind:   types.EdgeContains,
		}
		if err := m.store.AddEdge(ctx, edge); err != nil {
			return fmt.Errorf("repomap: add contains edge for %s: %w", sym.FQN, err)
		}
	}

	refs := m.extractor.References()
	if len(refs) > maxReferenceEdges {
		corelog.Warnf("repomap: %d references exceeds guardrail (%d); emitting Contains edges only", len(refs), maxReferenceEdges)
		return nil
	}

	for _, ref := range refs {
		source := m.referenceSourceNode(ref)
		target, ok := m.referenceTargetNode(ref)
		if !ok {
			continue
		}
		edge := types.Edge{
			Source: source,
			Target: target,
			Kind:   types.ReferenceKindToEdgeKind(ref.Kind),
		}
		if err := m.store.AddEdge(ctx, edge); err != nil {
			return fmt.Errorf("repomap: add reference edge: %w", err)
		}
	}
	return nil
}

// referenceSourceNode finds the most specific symbol containing the
// reference site, falling back to the reference's File node.
func (m *RepoMapper) referenceSourceNode(ref types.Reference) string {
	if sym, ok := m.extractor.FindMostSpecificContainingSymbol(ref.ReferenceFile, ref.ReferenceLine); ok {
		return types.SymbolNodeID(sym.FQN)
	}
	return types.FileNodeID(ref.ReferenceFile)
}

// referenceTargetNode resolves a reference to its target node id. An Import
// reference's SymbolName is the raw import specifier text (e.g. "./utils",
// "fmt"), which the import resolver rewrites to a known File node; every
// other reference kind falls back to the first FQN registered for the bare
// symbol name.
func (m *RepoMapper) referenceTargetNode(ref types.Reference) (string, bool) {
	if ref.Kind == types.RefImport && m.resolver != nil {
		if f, ok := m.files[ref.ReferenceFile]; ok {
			if relPath, ok := m.resolver.Resolve(ref.SymbolName, ref.ReferenceFile, f.lang); ok {
				return types.FileNodeID(relPath), true
			}
		}
		return "", false
	}

	fqn := ref.SymbolFQN
	if fqn == "" {
		fqns := m.extractor.NameToFQNs(ref.SymbolName)
		if len(fqns) == 0 {
			return "", false
		}
		fqn = fqns[0]
	}
	return types.SymbolNodeID(fqn), true
}

// UpdateRepository performs the incremental update described in spec.md
// §4.D: deleted files drop their symbols/references/nodes, modified files
// (and files that reference symbols defined in them) are reparsed.
func (m *RepoMapper) UpdateRepository(ctx context.Context) error {
	current, err := walkProject(m.root)
	if err != nil {
		corelog.Warnf("repomap: incremental walk failed for %s: %v", m.root, err)
		return err
	}
	currentSet := make(map[string]walkFile, len(current))
	for _, f := range current {
		currentSet[f.relPath] = f
	}

	m.mu.Lock()
	previous := m.files
	m.mu.Unlock()

	var deleted, modified []walkFile
	for relPath, f := range previous {
		if _, ok := currentSet[relPath]; !ok {
			deleted = append(deleted, f)
		}
	}
	for relPath, f := range currentSet {
		if m.pool.NeedsReparse(f.absPath) {
			modified = append(modified, f)
			_ = relPath
		}
	}

	for _, f := range deleted {
		m.extractor.RemoveSymbolsForFile(f.relPath)
		m.pool.Evict(f.absPath)
	}

	reparseSet := m.closureOverDependents(modified)

	for _, f := range reparseSet {
		m.extractor.RemoveSymbolsForFile(f.relPath)
		if err := m.extractor.ExtractSymbolsFromFileIncremental(f.absPath, f.relPath, f.lang); err != nil {
			m.failures.record(f.relPath, err)
		}
	}

	m.extractor.ResolveReferenceFQNs()

	m.mu.Lock()
	m.files = currentSet
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("repomap: clear graph for rebuild: %w", err)
	}
	if err := m.rebuildGraphEdges(ctx, current); err != nil {
		return err
	}
	m.logParsingStatistics(ctx, len(current))
	return nil
}

// closureOverDependents expands modified into "files that reference any
// symbol defined in a modified file", via name_to_fqns + references
// inverted by the target symbol's defining file (spec.md §4.D).
func (m *RepoMapper) closureOverDependents(modified []walkFile) []walkFile {
	if len(modified) == 0 {
		return nil
	}
	modifiedFQNs := make(map[string]bool)
	for _, f := range modified {
		for _, fqn := range m.extractor.SymbolsForFile(f.relPath) {
			modifiedFQNs[fqn] = true
		}
	}

	dependents := make(map[string]bool)
	for _, ref := range m.extractor.References() {
		if ref.SymbolFQN != "" && modifiedFQNs[ref.SymbolFQN] {
			dependents[ref.ReferenceFile] = true
		}
	}

	result := make(map[string]walkFile, len(modified))
	for _, f := range modified {
		result[f.relPath] = f
	}
	m.mu.RLock()
	for relPath := range dependents {
		if f, ok := m.files[relPath]; ok {
			result[relPath] = f
		}
	}
	m.mu.RUnlock()

	out := make([]walkFile, 0, len(result))
	for _, f := range result {
		out = append(out, f)
	}
	return out
}

// --- Graph queries exposed to the Query Engine (spec.md §4.D) ---

// FindSymbolDefinitions returns every symbol whose bare name equals name.
func (m *RepoMapper) FindSymbolDefinitions(name string) []types.Symbol {
	var out []types.Symbol
	for _, fqn := range m.extractor.NameToFQNs(name) {
		if sym, ok := m.extractor.Lookup(fqn); ok {
			out = append(out, sym)
		}
	}
	return out
}

// FindSymbolDefinitionByFQN returns the single symbol for fqn.
func (m *RepoMapper) FindSymbolDefinitionByFQN(fqn string) (types.Symbol, bool) {
	return m.extractor.Lookup(fqn)
}

// FindSymbolReferences returns every reference whose bare name equals name.
func (m *RepoMapper) FindSymbolReferences(name string) []types.Reference {
	var out []types.Reference
	for _, ref := range m.extractor.References() {
		if ref.SymbolName == name {
			out = append(out, ref)
		}
	}
	return out
}

// FindSymbolReferencesByFQN returns every reference resolved to fqn.
func (m *RepoMapper) FindSymbolReferencesByFQN(fqn string) []types.Reference {
	var out []types.Reference
	for _, ref := range m.extractor.References() {
		if ref.SymbolFQN == fqn {
			out = append(out, ref)
		}
	}
	return out
}

// GetSymbolsForFile returns the symbols defined in file.
func (m *RepoMapper) GetSymbolsForFile(file string) []types.Symbol {
	var out []types.Symbol
	for _, fqn := range m.extractor.SymbolsForFile(file) {
		if sym, ok := m.extractor.Lookup(fqn); ok {
			out = append(out, sym)
		}
	}
	return out
}

// NameToFQNs exposes the extractor's name index for the Query Engine's BFS
// seeding (spec.md §4.F.3).
func (m *RepoMapper) NameToFQNs(name string) []string { return m.extractor.NameToFQNs(name) }

// Store exposes the underlying graph store for BFS traversal.
func (m *RepoMapper) Store() graph.Store { return m.store }

// Detector exposes the configured cross-project detector.
func (m *RepoMapper) Detector() CrossProjectDetector { return m.detector }

// Extractor exposes the shared Context Extractor for skeleton rendering and
// other read-only consumers.
func (m *RepoMapper) Extractor() *extractor.Extractor { return m.extractor }

// Failures returns the accumulated per-file failure stats.
func (m *RepoMapper) Failures() *FailureStats { return m.failures }

// FileInfo returns the absolute disk path and language for a project-
// relative file, for consumers (the skeletoniser) that need to reparse or
// re-read a file the RepoMapper already walked.
func (m *RepoMapper) FileInfo(relPath string) (absPath string, lang langs.Language, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[relPath]
	if !ok {
		return "", "", false
	}
	return f.absPath, f.lang, true
}

// Root returns the project root the RepoMapper was constructed with.
func (m *RepoMapper) Root() string { return m.root }

// KnownFiles returns every project-relative file path currently tracked.
func (m *RepoMapper) KnownFiles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for rel := range m.files {
		out = append(out, rel)
	}
	return out
}
