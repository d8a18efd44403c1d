package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/codeintel/internal/types"
)

// GenerateMermaid produces a Mermaid "graph TD" diagram from every node and
// edge currently in store, grouping nodes by their containing file via
// Contains edges (a File node and the symbols it Contains become one
// subgraph) the way the teacher grouped files by cluster.
func GenerateMermaid(ctx context.Context, store Store) (string, error) {
	nodes, err := store.AllNodes(ctx)
	if err != nil {
		return "", fmt.Errorf("get nodes: %w", err)
	}
	edges, err := store.AllEdges(ctx)
	if err != nil {
		return "", fmt.Errorf("get edges: %w", err)
	}
	return RenderMermaid(nodes, edges), nil
}

// RenderMermaid renders an explicit node/edge set — used both for the
// full-graph export above and for subgraph_bfs results, which carry their
// own bounded node/edge slices rather than querying the whole store.
func RenderMermaid(nodes []types.Node, edges []types.Edge) string {
	nodeIDs := make(map[string]string, len(nodes))
	nextID := 0
	getID := func(id string) string {
		if mid, ok := nodeIDs[id]; ok {
			return mid
		}
		mid := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[id] = mid
		return mid
	}

	byID := make(map[string]types.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	// Group symbol nodes under their containing File node via Contains
	// edges, mirroring the teacher's cluster-subgraph grouping.
	members := make(map[string][]string) // file node id -> contained symbol ids
	contained := make(map[string]bool)
	for _, e := range edges {
		if e.Kind != types.EdgeContains {
			continue
		}
		members[e.Source] = append(members[e.Source], e.Target)
		contained[e.Target] = true
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	fileIDs := make([]string, 0, len(members))
	for fileID := range members {
		fileIDs = append(fileIDs, fileID)
	}
	sort.Strings(fileIDs)

	for _, fileID := range fileIDs {
		fileNode, ok := byID[fileID]
		if !ok {
			continue
		}
		sorted := make([]string, len(members[fileID]))
		copy(sorted, members[fileID])
		sort.Strings(sorted)

		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%s\"]\n", getID(fileID+"_file"), shortPath(nodeLabel(fileNode))))
		for _, memberID := range sorted {
			label := nodeLabel(byID[memberID])
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(memberID), label))
		}
		sb.WriteString("  end\n")
	}

	// Nodes with no Contains parent (e.g. files with no symbols, or an
	// incomplete subgraph_bfs terminal) still need a declaration.
	for _, n := range nodes {
		if contained[n.ID] || members[n.ID] != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", getID(n.ID), nodeLabel(n)))
	}

	for _, e := range edges {
		if e.Kind == types.EdgeContains {
			continue // already expressed as subgraph membership
		}
		sb.WriteString(fmt.Sprintf("  %s -->|%s| %s\n", getID(e.Source), e.Kind, getID(e.Target)))
	}

	return sb.String()
}

func nodeLabel(n types.Node) string {
	if strings.HasPrefix(n.ID, "file:") {
		return strings.TrimPrefix(n.ID, "file:")
	}
	return strings.TrimPrefix(n.ID, "symbol:")
}

// shortPath returns the last 2 path segments for readability.
func shortPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
