package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewCodeIntelMCPServer creates an MCP server with all 6 code intelligence
// query tools registered (spec.md §6). Graph construction happens before
// the server starts, via repomap.RepoMapper.BuildGraph — these tools are
// read-only.
func NewCodeIntelMCPServer(svc *CodeIntelService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codeintel",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_code",
		Description: "Return every symbol defined in a file and every reference recorded against it.",
	}, svc.AnalyzeCode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_symbol_definitions",
		Description: "Find every definition of a symbol by bare name or fully-qualified name, across the main project and any supplementary projects.",
	}, svc.FindSymbolDefinitions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_symbol_references",
		Description: "Find every call, usage, import, or inheritance reference to a symbol.",
	}, svc.FindSymbolReferences)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_symbol_subgraph",
		Description: "Bounded breadth-first traversal of the symbol/file graph from a seed symbol, stopping at cross-project boundaries.",
	}, svc.GetSymbolSubgraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_related_files_skeleton",
		Description: "Given the files currently open, find nearby files via the reference graph and return their skeletons packed into a token budget.",
	}, svc.GetRelatedFilesSkeleton)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_multiple_files_skeleton",
		Description: "Render and pack skeletons for an explicit list of files into a token budget.",
	}, svc.GetMultipleFilesSkeleton)

	return server
}

// RunMCPServerStdio runs the code intelligence MCP server on stdio, the
// transport Claude Code and similar MCP clients launch as a subprocess.
func RunMCPServerStdio(ctx context.Context, svc *CodeIntelService) error {
	server := NewCodeIntelMCPServer(svc)
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunMCPServer starts an HTTP server exposing the code intelligence MCP tools.
func RunMCPServer(ctx context.Context, svc *CodeIntelService, addr string) error {
	server := NewCodeIntelMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
