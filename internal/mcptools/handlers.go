package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/codeintel/internal/query"
)

// CodeIntelService adapts a query.Engine to the MCP tool handler signature
// the SDK expects: (ctx, *mcp.CallToolRequest, Input) -> (*mcp.CallToolResult, Output, error).
type CodeIntelService struct {
	engine *query.Engine
}

// NewCodeIntelService wraps engine for MCP tool registration.
func NewCodeIntelService(engine *query.Engine) *CodeIntelService {
	return &CodeIntelService{engine: engine}
}

// AnalyzeCode handles the analyze_code tool (spec.md §6).
func (s *CodeIntelService) AnalyzeCode(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeCodeInput,
) (*mcp.CallToolResult, AnalyzeCodeOutput, error) {
	result := s.engine.AnalyzeFile(input.FilePath)
	return nil, AnalyzeCodeOutput{
		Symbols:    toSymbolInfos(result.Symbols),
		References: toReferenceInfos(result.References),
	}, nil
}

// FindSymbolDefinitions handles the find_symbol_definitions tool.
func (s *CodeIntelService) FindSymbolDefinitions(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FindSymbolDefinitionsInput,
) (*mcp.CallToolResult, FindSymbolDefinitionsOutput, error) {
	defs := s.engine.Definitions(input.SymbolName)
	return nil, FindSymbolDefinitionsOutput{Definitions: toSymbolInfos(defs)}, nil
}

// FindSymbolReferences handles the find_symbol_references tool.
func (s *CodeIntelService) FindSymbolReferences(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FindSymbolReferencesInput,
) (*mcp.CallToolResult, FindSymbolReferencesOutput, error) {
	refs := s.engine.References(input.SymbolName)
	return nil, FindSymbolReferencesOutput{References: toReferenceInfos(refs)}, nil
}

// GetSymbolSubgraph handles the get_symbol_subgraph tool.
func (s *CodeIntelService) GetSymbolSubgraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetSymbolSubgraphInput,
) (*mcp.CallToolResult, GetSymbolSubgraphOutput, error) {
	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 2
	}
	result, err := s.engine.Subgraph(ctx, input.SymbolName, maxDepth)
	if err != nil {
		return nil, GetSymbolSubgraphOutput{}, nil
	}

	nodes := make([]GraphNodeInfo, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		nodes = append(nodes, GraphNodeInfo{ID: n.ID, Kind: string(n.Kind)})
	}
	edges := make([]GraphEdgeInfo, 0, len(result.Edges))
	for _, e := range result.Edges {
		edges = append(edges, GraphEdgeInfo{Source: e.Source, Target: e.Target, Kind: string(e.Kind)})
	}
	return nil, GetSymbolSubgraphOutput{
		Nodes:     nodes,
		Edges:     edges,
		Terminals: result.Terminals,
		Truncated: result.Truncated,
	}, nil
}

// GetRelatedFilesSkeleton handles the get_related_files_skeleton tool.
func (s *CodeIntelService) GetRelatedFilesSkeleton(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetRelatedFilesSkeletonInput,
) (*mcp.CallToolResult, SkeletonOutput, error) {
	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 2
	}
	maxTokens := input.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	result := s.engine.RelatedFilesSkeleton(ctx, input.ActiveFiles, maxDepth, maxTokens)
	return nil, toSkeletonOutput(result), nil
}

// GetMultipleFilesSkeleton handles the get_multiple_files_skeleton tool.
func (s *CodeIntelService) GetMultipleFilesSkeleton(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetMultipleFilesSkeletonInput,
) (*mcp.CallToolResult, SkeletonOutput, error) {
	maxTokens := input.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	result := s.engine.MultipleFilesSkeleton(input.FilePaths, maxTokens)
	return nil, toSkeletonOutput(result), nil
}

func toSymbolInfos(defs []query.Definition) []SymbolInfo {
	out := make([]SymbolInfo, 0, len(defs))
	for _, d := range defs {
		out = append(out, SymbolInfo{
			Symbol:        d.Symbol,
			SymbolType:    d.SymbolType,
			File:          d.File,
			StartLine:     d.StartLine,
			EndLine:       d.EndLine,
			OriginProject: d.OriginProject,
		})
	}
	return out
}

func toReferenceInfos(refs []query.ReferenceResult) []ReferenceInfo {
	out := make([]ReferenceInfo, 0, len(refs))
	for _, r := range refs {
		out = append(out, ReferenceInfo{
			SymbolName:    r.SymbolName,
			File:          r.File,
			Line:          r.Line,
			Col:           r.Col,
			ReferenceType: r.ReferenceType,
		})
	}
	return out
}

func toSkeletonOutput(result query.SkeletonResult) SkeletonOutput {
	files := make([]SkeletonFileInfo, 0, len(result.Files))
	for _, f := range result.Files {
		files = append(files, SkeletonFileInfo{FilePath: f.FilePath, Skeleton: f.Skeleton, Tokens: f.Tokens})
	}
	return SkeletonOutput{
		Files:         files,
		TotalFiles:    result.TotalFiles,
		MaxTokensUsed: result.MaxTokensUsed,
	}
}
