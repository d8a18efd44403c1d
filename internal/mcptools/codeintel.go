package mcptools

// --- MCP Tool Input/Output Types ---
// These structs define the JSON schema for each MCP tool's input and
// output. The MCP Go SDK auto-generates JSON schemas from struct tags.

// AnalyzeCodeInput is the input for the analyze_code MCP tool.
type AnalyzeCodeInput struct {
	FilePath string `json:"file_path" jsonschema:"project-relative path of the file to analyze"`
}

// AnalyzeCodeOutput is the result of the analyze_code MCP tool.
type AnalyzeCodeOutput struct {
	Symbols    []SymbolInfo    `json:"symbols"`
	References []ReferenceInfo `json:"references"`
}

// SymbolInfo is one symbol entry shared by analyze_code and
// find_symbol_definitions.
type SymbolInfo struct {
	Symbol        string `json:"symbol"`
	SymbolType    string `json:"symbol_type"`
	File          string `json:"file"`
	StartLine     int    `json:"start_line"`
	EndLine       int    `json:"end_line"`
	OriginProject string `json:"origin_project,omitempty"`
}

// ReferenceInfo is one reference entry shared by analyze_code and
// find_symbol_references.
type ReferenceInfo struct {
	SymbolName    string `json:"symbol_name"`
	File          string `json:"file"`
	Line          int    `json:"line"`
	Col           int    `json:"col"`
	ReferenceType string `json:"reference_type"`
}

// FindSymbolDefinitionsInput is the input for the find_symbol_definitions
// MCP tool.
type FindSymbolDefinitionsInput struct {
	SymbolName string `json:"symbol_name" jsonschema:"bare name or fully-qualified name of the symbol"`
}

// FindSymbolDefinitionsOutput is the result of the find_symbol_definitions
// MCP tool.
type FindSymbolDefinitionsOutput struct {
	Definitions []SymbolInfo `json:"definitions"`
}

// FindSymbolReferencesInput is the input for the find_symbol_references
// MCP tool.
type FindSymbolReferencesInput struct {
	SymbolName string `json:"symbol_name" jsonschema:"bare name or fully-qualified name of the symbol"`
}

// FindSymbolReferencesOutput is the result of the find_symbol_references
// MCP tool.
type FindSymbolReferencesOutput struct {
	References []ReferenceInfo `json:"references"`
}

// GetSymbolSubgraphInput is the input for the get_symbol_subgraph MCP tool.
type GetSymbolSubgraphInput struct {
	SymbolName string `json:"symbol_name" jsonschema:"bare name or fully-qualified name to seed the traversal"`
	MaxDepth   int    `json:"max_depth,omitempty" jsonschema:"maximum BFS depth (default: 2)"`
}

// GetSymbolSubgraphOutput is the result of the get_symbol_subgraph MCP tool.
type GetSymbolSubgraphOutput struct {
	Nodes     []GraphNodeInfo `json:"nodes"`
	Edges     []GraphEdgeInfo `json:"edges"`
	Terminals []string        `json:"terminals,omitempty"`
	Truncated bool            `json:"truncated,omitempty"`
}

// GraphNodeInfo is one subgraph node.
type GraphNodeInfo struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// GraphEdgeInfo is one subgraph edge.
type GraphEdgeInfo struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// GetRelatedFilesSkeletonInput is the input for the
// get_related_files_skeleton MCP tool.
type GetRelatedFilesSkeletonInput struct {
	ActiveFiles []string `json:"active_files" jsonschema:"project-relative paths of the files currently open/edited"`
	MaxDepth    int      `json:"max_depth,omitempty" jsonschema:"maximum BFS depth from the active files (default: 2)"`
	MaxTokens   int      `json:"max_tokens,omitempty" jsonschema:"approximate token budget for the packed skeletons (default: 8000)"`
}

// GetMultipleFilesSkeletonInput is the input for the
// get_multiple_files_skeleton MCP tool.
type GetMultipleFilesSkeletonInput struct {
	FilePaths []string `json:"file_paths" jsonschema:"project-relative paths to render skeletons for, in priority order"`
	MaxTokens int      `json:"max_tokens,omitempty" jsonschema:"approximate token budget for the packed skeletons (default: 8000)"`
}

// SkeletonOutput is the shared result shape for both skeleton tools.
type SkeletonOutput struct {
	Files         []SkeletonFileInfo `json:"files"`
	TotalFiles    int                `json:"total_files"`
	MaxTokensUsed int                `json:"max_tokens_used"`
}

// SkeletonFileInfo is one rendered file skeleton.
type SkeletonFileInfo struct {
	FilePath string `json:"file_path"`
	Skeleton string `json:"skeleton"`
	Tokens   int    `json:"tokens"`
}
