package query

import (
	"context"
	"sort"

	"github.com/standardbeagle/codeintel/internal/corelog"
	"github.com/standardbeagle/codeintel/internal/graph"
	"github.com/standardbeagle/codeintel/internal/skeleton"
	"github.com/standardbeagle/codeintel/internal/types"
)

// Hard caps on the related-files BFS (spec.md §4.F.4).
const (
	maxRelatedFiles      = 10
	maxRelatedIterations = 25
	maxRelatedQueue      = 50
)

// SkeletonFile is one entry of the related_files_skeleton /
// get_multiple_files_skeleton result (spec.md §6).
type SkeletonFile struct {
	FilePath string `json:"file_path"`
	Skeleton string `json:"skeleton"`
	Tokens   int    `json:"tokens"`
}

// SkeletonResult is the shared response shape for both skeleton queries.
type SkeletonResult struct {
	Files         []SkeletonFile `json:"files"`
	TotalFiles    int            `json:"total_files"`
	MaxTokensUsed int            `json:"max_tokens_used"`
}

// RelatedFilesSkeleton implements related_files_skeleton (spec.md §4.F.4):
// BFS out from activeFiles over the reference graph, collecting nearby
// main-project files (cross-project targets become terminal, listed but
// not expanded), then packs skeletons into maxTokens greedily by
// descending connection count to the active set.
func (e *Engine) RelatedFilesSkeleton(ctx context.Context, activeFiles []string, maxDepth, maxTokens int) SkeletonResult {
	if e.mapper == nil {
		return SkeletonResult{}
	}

	connections := e.relatedFileConnections(ctx, activeFiles, maxDepth)

	type candidate struct {
		file  string
		count int
	}
	candidates := make([]candidate, 0, len(connections))
	for f, c := range connections {
		candidates = append(candidates, candidate{file: f, count: c})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].file < candidates[j].file
	})

	files := make([]string, 0, len(candidates))
	for _, c := range candidates {
		files = append(files, c.file)
	}
	return e.renderAndPack(files, maxTokens)
}

// relatedFileConnections performs the bounded multi-source BFS described in
// spec.md §4.F.4 step 2: starting from activeFiles' file nodes, walk the
// graph through symbol nodes as well as file nodes (a file is only ever
// linked to another file transitively, via a Contains/Calls/etc. edge to a
// symbol), attributing every node reached back to its owning file via
// RepoMapper.FileOfNode. Returns the connection count of every reached
// file other than the active files (how many traversed edges led into it),
// feeding step 4's descending-connection-count packing order. Cross-project
// files are counted the same way on every edge that reaches them, but their
// nodes are never expanded past — they are terminals, per spec.md §4.F.4
// step 2.
func (e *Engine) relatedFileConnections(ctx context.Context, activeFiles []string, maxDepth int) map[string]int {
	store := e.mapper.Store()
	active := make(map[string]bool, len(activeFiles))
	for _, f := range activeFiles {
		active[f] = true
	}

	type queued struct {
		id    string
		depth int
	}
	visited := make(map[string]bool)
	var queue []queued
	for _, f := range activeFiles {
		id := types.FileNodeID(f)
		if !visited[id] {
			visited[id] = true
			queue = append(queue, queued{id: id, depth: 0})
		}
	}

	reachedFiles := make(map[string]bool)
	connections := make(map[string]int)
	iterations := 0

	for len(queue) > 0 && len(reachedFiles) < maxRelatedFiles {
		iterations++
		if iterations > maxRelatedIterations {
			corelog.Warnf("query: related_files_skeleton truncated at %d iterations", iterations)
			break
		}

		cur := queue[0]
		queue = queue[1:]

		if maxDepth >= 0 && cur.depth >= maxDepth {
			continue
		}

		forward, _ := store.Neighbors(ctx, cur.id, graph.DirectionForward)
		reverse, _ := store.Neighbors(ctx, cur.id, graph.DirectionReverse)

		neighbors := make([]string, 0, len(forward)+len(reverse))
		for _, edge := range forward {
			neighbors = append(neighbors, edge.Target)
		}
		for _, edge := range reverse {
			neighbors = append(neighbors, edge.Source)
		}

		for _, next := range neighbors {
			file, hasFile := e.mapper.FileOfNode(next)
			if hasFile && !active[file] {
				connections[file]++
				reachedFiles[file] = true
			}

			if visited[next] {
				continue
			}
			if hasFile && e.isCrossProjectFile(file) {
				visited[next] = true
				continue // terminal: counted above, never expanded
			}
			if len(queue) >= maxRelatedQueue {
				continue
			}
			visited[next] = true
			queue = append(queue, queued{id: next, depth: cur.depth + 1})
		}
	}
	return connections
}

func (e *Engine) isCrossProjectFile(file string) bool {
	if e.mapper == nil {
		return false
	}
	detector := e.mapper.Detector()
	if detector == nil {
		return false
	}
	return detector.IsCrossProject(file)
}

// MultipleFilesSkeleton implements get_multiple_files_skeleton (spec.md
// §6): render every requested file's skeleton and pack into maxTokens in
// the order given.
func (e *Engine) MultipleFilesSkeleton(filePaths []string, maxTokens int) SkeletonResult {
	return e.renderAndPack(filePaths, maxTokens)
}

// renderAndPack renders each file's skeleton and packs them greedily into
// maxTokens in the given order, stopping before the first file that would
// exceed the budget (spec.md §4.F.4 step 4, §8 scenario S6). A file whose
// skeleton fails to render is logged and skipped, never aborting the
// whole query (spec.md §4.F.4's failure semantics).
func (e *Engine) renderAndPack(files []string, maxTokens int) SkeletonResult {
	var out SkeletonResult
	used := 0
	for _, f := range files {
		rendered, tokens, ok := e.renderSkeletonFile(f)
		if !ok {
			continue
		}
		if maxTokens > 0 && used+tokens > maxTokens {
			break
		}
		out.Files = append(out.Files, SkeletonFile{FilePath: f, Skeleton: rendered, Tokens: tokens})
		used += tokens
	}
	out.TotalFiles = len(out.Files)
	out.MaxTokensUsed = used
	return out
}

func (e *Engine) renderSkeletonFile(relPath string) (string, int, bool) {
	if e.mapper == nil || e.pool == nil {
		return "", 0, false
	}
	absPath, lang, ok := e.mapper.FileInfo(relPath)
	if !ok {
		corelog.Warnf("query: skeleton requested for unknown file %s", relPath)
		return "", 0, false
	}
	rendered, err := skeleton.RenderFile(e.pool, absPath, lang)
	if err != nil {
		corelog.Warnf("query: skeleton render failed for %s: %v", relPath, err)
		return "", 0, false
	}
	return rendered, skeleton.EstimateTokens(rendered), true
}
