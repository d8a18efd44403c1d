package repomap

import (
	"context"

	"github.com/standardbeagle/codeintel/internal/corelog"
	"github.com/standardbeagle/codeintel/internal/graph"
	"github.com/standardbeagle/codeintel/internal/types"
)

// Hard caps on the bounded BFS (spec.md §4.F.3).
const (
	maxSubgraphNodes      = 1000
	maxSubgraphIterations = 10000
)

// SubgraphResult is the BFS output: the node set reached, the edges that
// connect them (in their original direction), the terminal (cross-project,
// never-expanded) nodes, and whether a hard cap truncated the traversal.
type SubgraphResult struct {
	Nodes     []types.Node
	Edges     []types.Edge
	Terminals []string
	Truncated bool
}

// fileOfNodeID extracts the file path backing a node id, used to test
// cross-project membership. Symbol nodes are treated as belonging to their
// defining symbol's file, looked up via the extractor; unknown ids return
// "", false.
func (m *RepoMapper) fileOfNodeID(id string) (string, bool) {
	if file, ok := stripFileNodeID(id); ok {
		return file, true
	}
	fqn, ok := stripSymbolNodeID(id)
	if !ok {
		return "", false
	}
	sym, ok := m.extractor.Lookup(fqn)
	if !ok {
		return "", false
	}
	return sym.File, true
}

// FileOfNode is the exported form of fileOfNodeID, for consumers outside
// this package (the Query Engine's related-files BFS) that need to
// attribute a graph node — file or symbol — back to its owning file.
func (m *RepoMapper) FileOfNode(id string) (string, bool) { return m.fileOfNodeID(id) }

func stripFileNodeID(id string) (string, bool) {
	const prefix = "file:"
	if len(id) > len(prefix) && id[:len(prefix)] == prefix {
		return id[len(prefix):], true
	}
	return "", false
}

func stripSymbolNodeID(id string) (string, bool) {
	const prefix = "symbol:"
	if len(id) > len(prefix) && id[:len(prefix)] == prefix {
		return id[len(prefix):], true
	}
	return "", false
}

// isCrossProject reports whether the node lies in a cross-project file,
// per the configured detector.
func (m *RepoMapper) isCrossProject(id string) bool {
	file, ok := m.fileOfNodeID(id)
	if !ok {
		return false
	}
	return m.detector.IsCrossProject(file)
}

// GetSubgraphBFS implements spec.md §4.F.3: a bounded, undirected BFS from
// start (an FQN, or a bare name resolved via name_to_fqns) with cross-project
// terminal detection. Exceeding either hard cap stops the traversal and
// returns the partial result with Truncated=true rather than an error.
func (m *RepoMapper) GetSubgraphBFS(ctx context.Context, start string, maxDepth int) (*SubgraphResult, error) {
	seeds := m.seedNodeIDs(start)
	if len(seeds) == 0 {
		return &SubgraphResult{}, nil
	}

	result := &SubgraphResult{}
	visited := make(map[string]bool)
	terminalSet := make(map[string]bool)

	type queued struct {
		id    string
		depth int
	}
	queue := make([]queued, 0, len(seeds))
	for _, s := range seeds {
		queue = append(queue, queued{id: s, depth: 0})
		visited[s] = true
	}

	nodeSet := make(map[string]bool)
	edgeSet := make(map[types.Edge]bool)
	iterations := 0

	for len(queue) > 0 {
		iterations++
		if iterations > maxSubgraphIterations || len(nodeSet) > maxSubgraphNodes {
			result.Truncated = true
			corelog.Warnf("repomap: subgraph_bfs truncated at %d iterations / %d nodes", iterations, len(nodeSet))
			break
		}

		cur := queue[0]
		queue = queue[1:]

		if node, ok, err := m.store.GetNode(ctx, cur.id); err == nil && ok {
			nodeSet[node.ID] = true
		} else {
			nodeSet[cur.id] = true
		}

		if maxDepth >= 0 && cur.depth >= maxDepth {
			continue
		}
		if terminalSet[cur.id] {
			continue
		}

		forward, _ := m.store.Neighbors(ctx, cur.id, graph.DirectionForward)
		reverse, _ := m.store.Neighbors(ctx, cur.id, graph.DirectionReverse)

		for _, e := range forward {
			edgeSet[e] = true
			if m.isCrossProject(e.Target) {
				terminalSet[e.Target] = true
				nodeSet[e.Target] = true
				continue
			}
			if !visited[e.Target] {
				visited[e.Target] = true
				queue = append(queue, queued{id: e.Target, depth: cur.depth + 1})
			}
		}
		for _, e := range reverse {
			edgeSet[e] = true
			if m.isCrossProject(e.Source) {
				terminalSet[e.Source] = true
				nodeSet[e.Source] = true
				continue
			}
			if !visited[e.Source] {
				visited[e.Source] = true
				queue = append(queue, queued{id: e.Source, depth: cur.depth + 1})
			}
		}
	}

	for id := range nodeSet {
		node, ok, err := m.store.GetNode(ctx, id)
		if err != nil || !ok {
			continue
		}
		result.Nodes = append(result.Nodes, node)
	}
	for e := range edgeSet {
		result.Edges = append(result.Edges, e)
	}
	for id := range terminalSet {
		result.Terminals = append(result.Terminals, id)
	}
	return result, nil
}

// seedNodeIDs resolves start into the initial BFS seed set: if start is a
// known FQN, seed with that one node; else seed with every FQN registered
// for that bare name.
func (m *RepoMapper) seedNodeIDs(start string) []string {
	if _, ok := m.extractor.Lookup(start); ok {
		return []string{types.SymbolNodeID(start)}
	}
	fqns := m.extractor.NameToFQNs(start)
	out := make([]string, 0, len(fqns))
	for _, fqn := range fqns {
		out = append(out, types.SymbolNodeID(fqn))
	}
	if len(out) == 0 {
		// start may itself be a file's relative path.
		m.mu.RLock()
		_, known := m.files[start]
		m.mu.RUnlock()
		if known {
			out = append(out, types.FileNodeID(start))
		}
	}
	return out
}
