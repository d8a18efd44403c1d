package graph

import (
	"context"
	"io"

	"github.com/standardbeagle/codeintel/internal/types"
)

// Store is the interface for the code intelligence graph backend.
// Implementations: MemStore (default, in-process) and KuzuStore (optional
// cgo-gated durable backend). The Repo Mapper is the only component
// permitted to call the write methods; the Query Engine only reads.
type Store interface {
	io.Closer

	// InitSchema prepares the backend for writes; a no-op for MemStore.
	InitSchema(ctx context.Context) error

	// AddNode inserts or replaces a node.
	AddNode(ctx context.Context, node types.Node) error
	// AddEdge appends an edge. Duplicate edges are allowed; callers that
	// need edge uniqueness (the Repo Mapper does not) must dedupe upstream.
	AddEdge(ctx context.Context, edge types.Edge) error

	// GetNode returns the node for id, or ok=false if absent.
	GetNode(ctx context.Context, id string) (types.Node, bool, error)
	// AllNodes returns every node currently in the arena.
	AllNodes(ctx context.Context) ([]types.Node, error)
	// AllEdges returns every edge currently in the arena, for full-graph
	// export (internal/graph/export.go's Mermaid rendering).
	AllEdges(ctx context.Context) ([]types.Edge, error)

	// Neighbors returns the one-hop edges incident to id in the given
	// direction: Forward returns edges where id==Source; Reverse returns
	// edges where id==Target.
	Neighbors(ctx context.Context, id string, dir Direction) ([]types.Edge, error)

	// Stats returns node/edge counts.
	Stats(ctx context.Context) (*GraphStats, error)

	// Clear removes every node and edge, for re-initialisation against a
	// new project root.
	Clear(ctx context.Context) error
}
