// Package query implements the Query Engine (spec.md §4.F): the read-only
// surface over a RepoMapper's graph and the Supplementary Registry that
// cmd/codeintel-mcp's tool handlers call into. Every method degrades to an
// empty result rather than raising, per spec.md §7.
package query

import (
	"context"

	"github.com/standardbeagle/codeintel/internal/parserpool"
	"github.com/standardbeagle/codeintel/internal/repomap"
	"github.com/standardbeagle/codeintel/internal/supplementary"
	"github.com/standardbeagle/codeintel/internal/types"
)

// Engine wires a single project's RepoMapper, Supplementary Registry, and
// Parser Pool into one query surface. Registry may be nil if no
// supplementary projects are configured.
type Engine struct {
	mapper   *repomap.RepoMapper
	registry *supplementary.Registry
	pool     *parserpool.Pool
}

// New builds an Engine. registry may be nil.
func New(mapper *repomap.RepoMapper, registry *supplementary.Registry, pool *parserpool.Pool) *Engine {
	return &Engine{mapper: mapper, registry: registry, pool: pool}
}

// Definition is one find_symbol_definitions result entry (spec.md §6).
type Definition struct {
	Symbol        string `json:"symbol"`
	SymbolType    string `json:"symbol_type"`
	File          string `json:"file"`
	StartLine     int    `json:"start_line"`
	EndLine       int    `json:"end_line"`
	OriginProject string `json:"origin_project,omitempty"`
}

// Definitions implements definitions(name) (spec.md §4.F.1): every
// main-project symbol named name, plus every supplementary-project symbol
// of that name for cross-project display.
func (e *Engine) Definitions(name string) []Definition {
	var out []Definition
	if e.mapper != nil {
		for _, sym := range e.mapper.FindSymbolDefinitions(name) {
			out = append(out, symbolToDefinition(sym, ""))
		}
	}
	if e.registry != nil {
		for _, info := range e.registry.LookupByName(name) {
			out = append(out, symbolToDefinition(info.Symbol, info.Project))
		}
	}
	return out
}

func symbolToDefinition(sym types.Symbol, originProject string) Definition {
	d := Definition{
		Symbol:     sym.FQN,
		SymbolType: string(sym.Kind),
		File:       sym.File,
		StartLine:  sym.StartLine,
		EndLine:    sym.EndLine,
	}
	if originProject != "" {
		d.OriginProject = originProject
	} else {
		d.OriginProject = sym.OriginProject
	}
	return d
}

// ReferenceResult is one find_symbol_references result entry (spec.md §6).
type ReferenceResult struct {
	SymbolName    string `json:"symbol_name"`
	File          string `json:"file"`
	Line          int    `json:"line"`
	Col           int    `json:"col"`
	ReferenceType string `json:"reference_type"`
}

// References implements references(name|fqn) (spec.md §4.F.2). Every
// query is tried as an FQN first; if that yields nothing it falls back to
// a bare-name match, so callers can pass either form uniformly.
func (e *Engine) References(nameOrFQN string) []ReferenceResult {
	if e.mapper == nil {
		return nil
	}
	refs := e.mapper.FindSymbolReferencesByFQN(nameOrFQN)
	if len(refs) == 0 {
		refs = e.mapper.FindSymbolReferences(nameOrFQN)
	}
	out := make([]ReferenceResult, 0, len(refs))
	for _, r := range refs {
		out = append(out, ReferenceResult{
			SymbolName:    r.SymbolName,
			File:          r.ReferenceFile,
			Line:          r.ReferenceLine,
			Col:           r.ReferenceCol,
			ReferenceType: string(r.Kind),
		})
	}
	return out
}

// AnalyzeResult is the analyze_code result (spec.md §6): every symbol
// defined in a file alongside every reference recorded against it.
type AnalyzeResult struct {
	Symbols    []Definition      `json:"symbols"`
	References []ReferenceResult `json:"references"`
}

// AnalyzeFile implements analyze_code({file_path}) by reading back the
// main-project symbols and references the Repo Mapper already indexed for
// filePath during BuildGraph/UpdateRepository — it triggers no reparse.
func (e *Engine) AnalyzeFile(filePath string) AnalyzeResult {
	if e.mapper == nil {
		return AnalyzeResult{}
	}
	var result AnalyzeResult
	for _, sym := range e.mapper.GetSymbolsForFile(filePath) {
		result.Symbols = append(result.Symbols, symbolToDefinition(sym, ""))
	}
	for _, ref := range e.mapper.Extractor().References() {
		if ref.ReferenceFile != filePath {
			continue
		}
		result.References = append(result.References, ReferenceResult{
			SymbolName:    ref.SymbolName,
			File:          ref.ReferenceFile,
			Line:          ref.ReferenceLine,
			Col:           ref.ReferenceCol,
			ReferenceType: string(ref.Kind),
		})
	}
	return result
}

// SubgraphResult is the get_symbol_subgraph result (spec.md §6).
type SubgraphResult struct {
	Nodes     []types.Node `json:"nodes"`
	Edges     []types.Edge `json:"edges"`
	Terminals []string     `json:"terminals,omitempty"`
	Truncated bool         `json:"truncated,omitempty"`
}

// Subgraph implements get_symbol_subgraph / subgraph_bfs (spec.md §4.F.3),
// delegating the bounded, cross-project-aware BFS to the RepoMapper.
func (e *Engine) Subgraph(ctx context.Context, symbolName string, maxDepth int) (SubgraphResult, error) {
	if e.mapper == nil {
		return SubgraphResult{}, nil
	}
	result, err := e.mapper.GetSubgraphBFS(ctx, symbolName, maxDepth)
	if err != nil {
		return SubgraphResult{}, nil
	}
	return SubgraphResult{
		Nodes:     result.Nodes,
		Edges:     result.Edges,
		Terminals: result.Terminals,
		Truncated: result.Truncated,
	}, nil
}
