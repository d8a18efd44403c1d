//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/standardbeagle/codeintel/internal/types"
)

// KuzuStore implements Store using KuzuDB as a durable graph backend. It
// requires CGO because the go-kuzu driver wraps KuzuDB's C library. It is
// the optional persistent arena for long-running sessions; MemStore remains
// the default.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at
// dbPath, giving the Repo Mapper a durable arena that survives across
// sessions for the same project.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open file database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ddlStatements defines the Cypher DDL executed by InitSchema. A single
// Node table holds both file and symbol nodes (kind discriminates), and a
// single Edge table holds every relationship kind — mirroring the
// language-agnostic arena spec.md §3 describes rather than per-kind tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS GraphNode(
		id STRING,
		kind STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS GraphEdge(FROM GraphNode TO GraphNode, kind STRING)`,
}

// InitSchema creates the node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// AddNode inserts or replaces a GraphNode row.
func (s *KuzuStore) AddNode(_ context.Context, node types.Node) error {
	if err := s.exec("MATCH (n:GraphNode {id: $id}) DELETE n", map[string]any{"id": node.ID}); err != nil {
		return err
	}
	return s.exec(
		"CREATE (n:GraphNode {id: $id, kind: $kind})",
		map[string]any{"id": node.ID, "kind": string(node.Kind)},
	)
}

// AddEdge inserts a GraphEdge row between two existing nodes.
func (s *KuzuStore) AddEdge(_ context.Context, edge types.Edge) error {
	return s.exec(
		`MATCH (a:GraphNode {id: $src}), (b:GraphNode {id: $dst})
		 CREATE (a)-[:GraphEdge {kind: $kind}]->(b)`,
		map[string]any{"src": edge.Source, "dst": edge.Target, "kind": string(edge.Kind)},
	)
}

// GetNode retrieves a single node by id, or ok=false if not found.
func (s *KuzuStore) GetNode(_ context.Context, id string) (types.Node, bool, error) {
	rows, err := s.query("MATCH (n:GraphNode {id: $id}) RETURN n.id, n.kind", map[string]any{"id": id})
	if err != nil {
		return types.Node{}, false, err
	}
	if len(rows) == 0 {
		return types.Node{}, false, nil
	}
	return types.Node{ID: toString(rows[0][0]), Kind: types.NodeKind(toString(rows[0][1]))}, true, nil
}

// AllNodes returns every node in the arena.
func (s *KuzuStore) AllNodes(_ context.Context) ([]types.Node, error) {
	rows, err := s.query("MATCH (n:GraphNode) RETURN n.id, n.kind", nil)
	if err != nil {
		return nil, err
	}
	out := make([]types.Node, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Node{ID: toString(r[0]), Kind: types.NodeKind(toString(r[1]))})
	}
	return out, nil
}

// AllEdges returns every edge in the arena.
func (s *KuzuStore) AllEdges(_ context.Context) ([]types.Edge, error) {
	rows, err := s.query("MATCH (a:GraphNode)-[r:GraphEdge]->(b:GraphNode) RETURN a.id, b.id, r.kind", nil)
	if err != nil {
		return nil, err
	}
	out := make([]types.Edge, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Edge{
			Source: toString(r[0]),
			Target: toString(r[1]),
			Kind:   types.EdgeKind(toString(r[2])),
		})
	}
	return out, nil
}

// Neighbors returns the one-hop edges incident to id in direction dir.
func (s *KuzuStore) Neighbors(_ context.Context, id string, dir Direction) ([]types.Edge, error) {
	var cypher string
	if dir == DirectionReverse {
		cypher = `MATCH (a:GraphNode)-[r:GraphEdge]->(b:GraphNode {id: $id})
		          RETURN a.id, b.id, r.kind`
	} else {
		cypher = `MATCH (a:GraphNode {id: $id})-[r:GraphEdge]->(b:GraphNode)
		          RETURN a.id, b.id, r.kind`
	}
	rows, err := s.query(cypher, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	out := make([]types.Edge, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Edge{
			Source: toString(r[0]),
			Target: toString(r[1]),
			Kind:   types.EdgeKind(toString(r[2])),
		})
	}
	return out, nil
}

// Stats returns node/edge counts.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	nodes, err := s.query("MATCH (n:GraphNode) RETURN n.id", nil)
	if err != nil {
		return nil, err
	}
	stats := &GraphStats{}
	for _, r := range nodes {
		id := toString(r[0])
		if len(id) >= 5 && id[:5] == "file:" {
			stats.FileCount++
		} else {
			stats.SymbolCount++
		}
	}
	edgeRows, err := s.query("MATCH ()-[r:GraphEdge]->() RETURN count(r)", nil)
	if err != nil {
		return nil, err
	}
	if len(edgeRows) > 0 && len(edgeRows[0]) > 0 {
		stats.EdgeCount = toInt(edgeRows[0][0])
	}
	return stats, nil
}

// Clear deletes every node and edge.
func (s *KuzuStore) Clear(_ context.Context) error {
	if err := s.exec("MATCH ()-[r:GraphEdge]->() DELETE r", nil); err != nil {
		return err
	}
	return s.exec("MATCH (n:GraphNode) DELETE n", nil)
}

// ---------- Internal helpers ----------

func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
