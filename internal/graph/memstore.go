package graph

import (
	"context"
	"strings"
	"sync"

	"github.com/standardbeagle/codeintel/internal/types"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps, thread-safe via sync.RWMutex.
// It is the default backend — the Repo Mapper uses it unless a persistent
// KuzuStore is configured.
type MemStore struct {
	mu       sync.RWMutex
	nodes    map[string]types.Node
	edgesOut map[string][]types.Edge // by Source
	edgesIn  map[string][]types.Edge // by Target
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes:    make(map[string]types.Node),
		edgesOut: make(map[string][]types.Edge),
		edgesIn:  make(map[string][]types.Edge),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error { return nil }

// AddNode stores node keyed by its ID, overwriting any prior value.
func (m *MemStore) AddNode(_ context.Context, node types.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[node.ID] = node
	return nil
}

// AddEdge appends an edge to both the forward and reverse adjacency index.
func (m *MemStore) AddEdge(_ context.Context, edge types.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edgesOut[edge.Source] = append(m.edgesOut[edge.Source], edge)
	m.edgesIn[edge.Target] = append(m.edgesIn[edge.Target], edge)
	return nil
}

// GetNode returns the node for id, or ok=false if absent.
func (m *MemStore) GetNode(_ context.Context, id string) (types.Node, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	return n, ok, nil
}

// AllNodes returns a snapshot of every node in the arena.
func (m *MemStore) AllNodes(_ context.Context) ([]types.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	return out, nil
}

// AllEdges returns a snapshot of every edge in the arena.
func (m *MemStore) AllEdges(_ context.Context) ([]types.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.Edge
	for _, edges := range m.edgesOut {
		out = append(out, edges...)
	}
	return out, nil
}

// Neighbors returns the one-hop edges incident to id in direction dir.
func (m *MemStore) Neighbors(_ context.Context, id string, dir Direction) ([]types.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var src map[string][]types.Edge
	if dir == DirectionReverse {
		src = m.edgesIn
	} else {
		src = m.edgesOut
	}
	edges := src[id]
	out := make([]types.Edge, len(edges))
	copy(out, edges)
	return out, nil
}

// Stats returns node/edge counts. Node counts split files vs symbols by ID
// prefix rather than a separate table, matching the "file:"/"symbol:"
// identity scheme (spec.md §3).
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &GraphStats{}
	for id := range m.nodes {
		if strings.HasPrefix(id, "file:") {
			stats.FileCount++
		} else {
			stats.SymbolCount++
		}
	}
	for _, edges := range m.edgesOut {
		stats.EdgeCount += len(edges)
	}
	return stats, nil
}

// Clear removes every node and edge.
func (m *MemStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[string]types.Node)
	m.edgesOut = make(map[string][]types.Edge)
	m.edgesIn = make(map[string][]types.Edge)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error { return nil }
