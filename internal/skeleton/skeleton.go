// Package skeleton renders a source file's declarations with method/
// function bodies replaced by a placeholder, for packing into a query
// response under a token budget (spec.md §4.F.4). It reuses the Parser
// Pool's combined query (the same capture-driven traversal internal/
// extractor uses) rather than a second grammar-specific pass.
package skeleton

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/standardbeagle/codeintel/internal/langs"
	"github.com/standardbeagle/codeintel/internal/parserpool"
)

// placeholder replaces a definition's body.
const placeholder = "// ..."

// EstimateTokens approximates a token count as 1 token per 4 UTF-8
// characters (spec.md §4.F.4, §9), a monotone estimator chosen for
// reproducibility over exactness.
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + 3) / 4
}

var definitionKinds = map[string]bool{
	"function.definition":  true,
	"method.definition":    true,
	"class.definition":     true,
	"struct.definition":    true,
	"interface.definition": true,
	"enum.definition":      true,
}

// containerKinds are definitions that may contain nested definitions
// (spec.md §4.F.4: "nested classes transition into Definition
// recursively"). function/method bodies never contain definitions the
// skeletoniser recurses into.
var containerKinds = map[string]bool{
	"class.definition":     true,
	"struct.definition":    true,
	"interface.definition": true,
	"enum.definition":      true,
}

type definition struct {
	kind       string
	startByte  uint
	endByte    uint
	children   []*definition
}

// RenderFile renders the skeleton for diskPath, reusing the Parser Pool's
// cache (reparsing only if the file changed since it was last analyzed).
func RenderFile(pool *parserpool.Pool, diskPath string, lang langs.Language) (string, error) {
	parsed, err := pool.ParseFileIfNeeded(diskPath, lang)
	if err != nil {
		return "", err
	}
	return Render(pool, parsed)
}

// Render builds the skeleton for an already-parsed file.
func Render(pool *parserpool.Pool, parsed *parserpool.ParsedFile) (string, error) {
	matches, _ := pool.ExecutePredefinedQuery(parsed, parserpool.All)

	var defs []*definition
	for _, m := range matches {
		for _, c := range m.Captures {
			if !definitionKinds[c.Name] {
				continue
			}
			defs = append(defs, &definition{
				kind:      c.Name,
				startByte: c.StartByte,
				endByte:   c.EndByte,
			})
		}
	}

	top := nestDefinitions(defs)
	var b strings.Builder
	renderSiblings(&b, parsed.Source, 0, uint(len(parsed.Source)), top)
	return b.String(), nil
}

// nestDefinitions sorts definitions by source position and assigns each
// one to the innermost container definition whose span contains it,
// returning the top-level roots.
func nestDefinitions(defs []*definition) []*definition {
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].startByte != defs[j].startByte {
			return defs[i].startByte < defs[j].startByte
		}
		return defs[i].endByte > defs[j].endByte // outer (wider) span first
	})

	var roots []*definition
	var stack []*definition
	for _, d := range defs {
		for len(stack) > 0 && stack[len(stack)-1].endByte <= d.startByte {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, d)
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, d)
		}
		if containerKinds[d.kind] {
			stack = append(stack, d)
		}
	}
	return roots
}

// renderSiblings emits source verbatim outside of defs' spans and
// delegates to renderDefinition inside them, across the byte range
// [from, to).
func renderSiblings(b *strings.Builder, src []byte, from, to uint, defs []*definition) {
	pos := from
	for _, d := range defs {
		if d.startByte > pos {
			b.Write(src[pos:d.startByte])
		}
		renderDefinition(b, src, d)
		pos = d.endByte
	}
	if pos < to {
		b.Write(src[pos:to])
	}
}

// renderDefinition emits one definition's header, then either a
// placeholder for the whole body (a definition with no nested
// definitions) or the body with each nested definition rendered
// recursively and the text between them kept verbatim (spec.md §4.F.4's
// Definition/Body/Close state machine).
func renderDefinition(b *strings.Builder, src []byte, d *definition) {
	full := src[d.startByte:d.endByte]
	bodyStart, bodyEnd, hasClose := splitHeaderBody(full)

	b.Write(full[:bodyStart])
	b.WriteString("\n")

	if len(d.children) == 0 {
		b.WriteString("\t" + placeholder + "\n")
	} else {
		renderSiblings(b, src, d.startByte+bodyStart, d.startByte+bodyEnd, d.children)
	}

	if hasClose {
		b.Write(full[bodyEnd:])
	}
}

// splitHeaderBody finds where a definition's body begins: the first '{'
// for brace languages, or the first ':' followed by a newline for
// Python's indentation-based blocks. hasClose reports whether a matching
// closing brace exists to preserve (Python blocks have none).
func splitHeaderBody(text []byte) (bodyStart, bodyEnd uint, hasClose bool) {
	if idx := indexByte(text, '{'); idx >= 0 {
		if last := lastIndexByte(text, '}'); last > idx {
			return uint(idx + 1), uint(last), true
		}
		return uint(idx + 1), uint(len(text)), false
	}
	for i := 0; i+1 < len(text); i++ {
		if text[i] == ':' && (text[i+1] == '\n' || text[i+1] == '\r') {
			return uint(i + 1), uint(len(text)), false
		}
	}
	return uint(len(text)), uint(len(text)), false
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func lastIndexByte(b []byte, c byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == c {
			return i
		}
	}
	return -1
}

