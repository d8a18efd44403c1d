package parserpool

import tree_sitter "github.com/tree-sitter/go-tree-sitter"

// QueryKind selects a predefined query. All is currently the only kind:
// the combined definitions+references query described in spec.md §4.A.
type QueryKind int

const (
	All QueryKind = iota
)

// Capture is one named capture within a query match. Node is kept
// alongside the flattened text/points so that callers needing structural
// context (e.g. the Context Extractor's enclosing-container lookup, or the
// skeletoniser) can walk the AST directly; it is valid only as long as the
// owning ParsedFile's Tree has not been Closed.
type Capture struct {
	Name       string
	Text       string
	StartPoint [2]uint // row, col (0-based)
	EndPoint   [2]uint
	StartByte  uint
	EndByte    uint
	Node       tree_sitter.Node
}

// Match is a flat list of captures produced by a single query-pattern
// instantiation.
type Match struct {
	Captures []Capture
}

// ExecutePredefinedQuery runs qtype against parsed's AST and returns every
// match. A per-file query failure (e.g. no query registered for the
// language) yields an empty, non-error result — failures are surfaced via
// the bool return, and the pool's caller (Context Extractor) treats "no
// matches" and "no query" identically per spec.md §4.A's failure semantics.
func (p *Pool) ExecutePredefinedQuery(parsed *ParsedFile, qtype QueryKind) ([]Match, bool) {
	if parsed == nil || parsed.Tree == nil {
		return nil, false
	}

	p.langMu.RLock()
	entry, ok := p.langs[parsed.Language]
	p.langMu.RUnlock()
	if !ok || entry.query == nil {
		return nil, false
	}

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	names := entry.query.CaptureNames()
	matches := qc.Matches(entry.query, parsed.Tree.RootNode(), parsed.Source)

	var result []Match
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		match := Match{Captures: make([]Capture, 0, len(m.Captures))}
		for _, c := range m.Captures {
			node := c.Node
			start := node.StartPosition()
			end := node.EndPosition()
			match.Captures = append(match.Captures, Capture{
				Name:       names[c.Index],
				Text:       node.Utf8Text(parsed.Source),
				StartPoint: [2]uint{uint(start.Row), uint(start.Column)},
				EndPoint:   [2]uint{uint(end.Row), uint(end.Column)},
				StartByte:  node.StartByte(),
				EndByte:    node.EndByte(),
				Node:       node,
			})
		}
		result = append(result, match)
	}
	return result, true
}
