// Package graph holds the Node/Edge arena for the code intelligence graph
// (spec.md §3) and the Store backends that persist it: MemStore
// (in-process, default) and KuzuStore (optional, cgo-gated, durable).
package graph

import "github.com/standardbeagle/codeintel/internal/types"

// Direction controls which way an edge is followed during traversal.
// subgraph_bfs (spec.md §4.F.3) treats the graph as undirected, walking
// both directions from every frontier node.
type Direction string

const (
	DirectionForward Direction = "forward" // edge.Source -> edge.Target
	DirectionReverse Direction = "reverse" // edge.Target -> edge.Source
)

// GraphStats summarizes the current arena.
type GraphStats struct {
	FileCount   int `json:"file_count"`
	SymbolCount int `json:"symbol_count"`
	EdgeCount   int `json:"edge_count"`
}
