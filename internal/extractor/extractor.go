// Package extractor implements the Context Extractor (spec.md §4.B): it
// turns Parser Pool query matches into typed Symbol and Reference records
// and maintains the name→FQN and file→symbols indices the Repo Mapper and
// Query Engine depend on.
package extractor

import (
	"os"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codeintel/internal/langs"
	"github.com/standardbeagle/codeintel/internal/parserpool"
	"github.com/standardbeagle/codeintel/internal/types"
)

// Extractor accumulates symbols and references across one or more files.
// The Repo Mapper creates a fresh Extractor per file during a parallel
// batch walk, then folds it into the shared accumulator via Merge under a
// write lock (spec.md §4.D step 4).
type Extractor struct {
	pool *parserpool.Pool

	mu          sync.RWMutex
	symbols     map[string]types.Symbol   // FQN -> Symbol
	references  []types.Reference
	fileSymbols map[string]map[string]bool // file -> set of FQN
	nameToFQNs  map[string][]string        // name -> FQNs, insertion order
}

// New creates an empty Extractor backed by pool.
func New(pool *parserpool.Pool) *Extractor {
	return &Extractor{
		pool:        pool,
		symbols:     make(map[string]types.Symbol),
		fileSymbols: make(map[string]map[string]bool),
		nameToFQNs:  make(map[string][]string),
	}
}

// ExtractSymbolsFromFile reads diskPath fresh from disk (always reparsing,
// bypassing the pool's cache) and extracts its symbols/references. key is
// the project-relative, forward-slash identity under which the resulting
// Symbols/References are indexed (spec.md §3's canonicalisation invariant);
// it is almost always diskPath's project-relative form, distinct from the
// filesystem path the parser pool needs for I/O and its mtime/size cache.
func (e *Extractor) ExtractSymbolsFromFile(diskPath, key string, lang langs.Language) error {
	content, err := os.ReadFile(diskPath)
	if err != nil {
		return err
	}
	parsed, err := e.pool.ParseFile(diskPath, content, lang)
	if err != nil {
		return err
	}
	defer parsed.Close()
	e.ingest(parsed, key)
	return nil
}

// ExtractSymbolsFromFileIncremental extracts diskPath's symbols/references
// using the pool's reparse-if-needed cache, indexed under key.
func (e *Extractor) ExtractSymbolsFromFileIncremental(diskPath, key string, lang langs.Language) error {
	parsed, err := e.pool.ParseFileIfNeeded(diskPath, lang)
	if err != nil {
		return err
	}
	e.ingest(parsed, key)
	return nil
}

// ingest replaces any existing data for key with freshly synthesized
// symbols/references, then merges them in.
func (e *Extractor) ingest(parsed *parserpool.ParsedFile, key string) {
	symbols, refs := synthesize(e.pool, parsed, key)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeSymbolsForFileLocked(key)
	fqnSet := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		e.symbols[sym.FQN] = sym
		e.nameToFQNs[sym.Name] = append(e.nameToFQNs[sym.Name], sym.FQN)
		fqnSet[sym.FQN] = true
	}
	if len(fqnSet) > 0 {
		e.fileSymbols[key] = fqnSet
	}
	e.references = append(e.references, refs...)
}

// RemoveSymbolsForFile deletes every symbol introduced by path, drops
// references whose ReferenceFile==path, and updates the indices
// (spec.md §4.B, invariant §8.4).
func (e *Extractor) RemoveSymbolsForFile(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeSymbolsForFileLocked(path)
}

func (e *Extractor) removeSymbolsForFileLocked(path string) {
	fqns, ok := e.fileSymbols[path]
	if ok {
		for fqn := range fqns {
			sym, exists := e.symbols[fqn]
			if !exists {
				continue
			}
			delete(e.symbols, fqn)
			list := e.nameToFQNs[sym.Name]
			for i, f := range list {
				if f == fqn {
					list = append(list[:i], list[i+1:]...)
					break
				}
			}
			if len(list) == 0 {
				delete(e.nameToFQNs, sym.Name)
			} else {
				e.nameToFQNs[sym.Name] = list
			}
		}
		delete(e.fileSymbols, path)
	}

	filtered := e.references[:0:0]
	for _, ref := range e.references {
		if ref.ReferenceFile != path {
			filtered = append(filtered, ref)
		}
	}
	e.references = filtered
}

// FindMostSpecificContainingSymbol returns the symbol in file whose
// [start_line,end_line] contains line with the minimum span — used to
// attribute reference edges to the enclosing function/method rather than
// the file (spec.md §4.B).
func (e *Extractor) FindMostSpecificContainingSymbol(file string, line int) (types.Symbol, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var best types.Symbol
	bestSpan := -1
	found := false
	for fqn := range e.fileSymbols[file] {
		sym, ok := e.symbols[fqn]
		if !ok || sym.File != file {
			continue
		}
		if line < sym.StartLine || line > sym.EndLine {
			continue
		}
		span := sym.EndLine - sym.StartLine
		if !found || span < bestSpan {
			best = sym
			bestSpan = span
			found = true
		}
	}
	return best, found
}

// ResolveReferenceFQNs is the second pass (spec.md §4.B, §9 "two-pass
// reference binding"): for every reference with an empty SymbolFQN, bind
// it to the first FQN registered for that bare name (insertion-order
// policy, spec.md §7). Returns the count of newly resolved references.
func (e *Extractor) ResolveReferenceFQNs() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	resolved := 0
	for i := range e.references {
		ref := &e.references[i]
		if ref.SymbolFQN != "" {
			continue
		}
		fqns, ok := e.nameToFQNs[ref.SymbolName]
		if !ok || len(fqns) == 0 {
			continue
		}
		ref.SymbolFQN = fqns[0]
		resolved++
	}
	return resolved
}

// Symbols returns a snapshot copy of the symbol map.
func (e *Extractor) Symbols() map[string]types.Symbol {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]types.Symbol, len(e.symbols))
	for k, v := range e.symbols {
		out[k] = v
	}
	return out
}

// References returns a snapshot copy of the reference list.
func (e *Extractor) References() []types.Reference {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]types.Reference, len(e.references))
	copy(out, e.references)
	return out
}

// NameToFQNs returns the FQNs registered for name, in insertion order.
func (e *Extractor) NameToFQNs(name string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fqns := e.nameToFQNs[name]
	out := make([]string, len(fqns))
	copy(out, fqns)
	return out
}

// SymbolsForFile returns the FQNs of symbols defined in file.
func (e *Extractor) SymbolsForFile(file string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	set := e.fileSymbols[file]
	out := make([]string, 0, len(set))
	for fqn := range set {
		out = append(out, fqn)
	}
	return out
}

// Lookup returns the symbol for fqn.
func (e *Extractor) Lookup(fqn string) (types.Symbol, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	sym, ok := e.symbols[fqn]
	return sym, ok
}

// Merge folds other's symbols, references, and indices into e. Symbols
// that already exist in e (by FQN) are not overwritten — the first writer
// wins, matching the "insertion order" resolution policy used throughout.
func (e *Extractor) Merge(other *Extractor) {
	other.mu.RLock()
	symbols := make([]types.Symbol, 0, len(other.symbols))
	for _, sym := range other.symbols {
		symbols = append(symbols, sym)
	}
	refs := make([]types.Reference, len(other.references))
	copy(refs, other.references)
	fileSymbols := make(map[string]map[string]bool, len(other.fileSymbols))
	for f, set := range other.fileSymbols {
		clone := make(map[string]bool, len(set))
		for fqn := range set {
			clone[fqn] = true
		}
		fileSymbols[f] = clone
	}
	other.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, sym := range symbols {
		if _, exists := e.symbols[sym.FQN]; exists {
			continue
		}
		e.symbols[sym.FQN] = sym
		e.nameToFQNs[sym.Name] = append(e.nameToFQNs[sym.Name], sym.FQN)
	}
	for f, set := range fileSymbols {
		dst, ok := e.fileSymbols[f]
		if !ok {
			dst = make(map[string]bool, len(set))
			e.fileSymbols[f] = dst
		}
		for fqn := range set {
			dst[fqn] = true
		}
	}
	e.references = append(e.references, refs...)
}

// synthesize runs the parser pool's predefined query over parsed and builds
// Symbols/References following spec.md §4.B's dispatch rules: every
// language is handled identically in shape — definition captures pair with
// a same-match name capture, call captures pair with a same-match
// function/method capture.
func synthesize(pool *parserpool.Pool, parsed *parserpool.ParsedFile, key string) ([]types.Symbol, []types.Reference) {
	matches, ok := pool.ExecutePredefinedQuery(parsed, parserpool.All)
	if !ok {
		return nil, nil
	}

	// Definition capture kinds in dedup-priority order: a node that could
	// satisfy two patterns (e.g. a Python function nested in a class body
	// matches both the "method" and plain "function" patterns) is only
	// ever recorded once, preferring the more specific kind.
	defPriority := []struct {
		capture string
		kind    types.SymbolKind
	}{
		{"method.definition", types.SymbolMethod},
		{"struct.definition", types.SymbolStruct},
		{"interface.definition", types.SymbolInterface},
		{"enum.definition", types.SymbolEnum},
		{"class.definition", types.SymbolClass},
		{"function.definition", types.SymbolFunction},
	}

	seenDef := make(map[uint]bool)
	var symbols []types.Symbol

	for _, dp := range defPriority {
		for _, m := range matches {
			defCap, nameCap, found := pairedCapture(m, dp.capture)
			if !found {
				continue
			}
			if seenDef[defCap.StartByte] {
				continue
			}
			seenDef[defCap.StartByte] = true

			node := defCap.Node
			parent := containerName(parsed.Language, &node, parsed.Source)
			sym := types.Symbol{
				Name:      nameCap.Text,
				Kind:      dp.kind,
				File:      key,
				StartLine: int(defCap.StartPoint[0]),
				EndLine:   int(defCap.EndPoint[0]),
				StartCol:  int(defCap.StartPoint[1]),
				EndCol:    int(defCap.EndPoint[1]),
				Parent:    parent,
			}
			sym.FQN = FQN(parent, sym.Name)
			symbols = append(symbols, sym)
		}
	}

	var refs []types.Reference
	for _, m := range matches {
		if fn, ok := soleCapture(m, "call.expression"); ok {
			name, nameOk := firstCapture(m, "call.function")
			if !nameOk {
				name, nameOk = firstCapture(m, "call.method")
			}
			if !nameOk {
				continue
			}
			refs = append(refs, types.Reference{
				SymbolName:    name.Text,
				Kind:          types.RefCall,
				ReferenceFile: key,
				ReferenceLine: int(fn.StartPoint[0]),
				ReferenceCol:  int(fn.StartPoint[1]),
			})
			continue
		}
		if decl, ok := soleCapture(m, "import.declaration"); ok {
			name := decl.Text
			if path, ok := firstCapture(m, "import.path"); ok {
				name = trimImportQuotes(path.Text)
			}
			refs = append(refs, types.Reference{
				SymbolName:    name,
				Kind:          types.RefImport,
				ReferenceFile: key,
				ReferenceLine: int(decl.StartPoint[0]),
				ReferenceCol:  int(decl.StartPoint[1]),
			})
		}
	}

	return symbols, refs
}

// pairedCapture finds the defCapture named name in m, plus the ".name"
// capture in the same match (captureBase+".name" where captureBase is the
// portion of name before ".definition").
func pairedCapture(m parserpool.Match, name string) (defCap, nameCap parserpool.Capture, found bool) {
	base := name[:len(name)-len(".definition")]
	wantName := base + ".name"
	var hasDef, hasName bool
	for _, c := range m.Captures {
		if c.Name == name {
			defCap = c
			hasDef = true
		}
		if c.Name == wantName {
			nameCap = c
			hasName = true
		}
	}
	return defCap, nameCap, hasDef && hasName
}

func soleCapture(m parserpool.Match, name string) (parserpool.Capture, bool) {
	for _, c := range m.Captures {
		if c.Name == name {
			return c, true
		}
	}
	return parserpool.Capture{}, false
}

func firstCapture(m parserpool.Match, name string) (parserpool.Capture, bool) {
	return soleCapture(m, name)
}

func trimImportQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// FQN implements spec.md §4.B's construction rule: "Parent.Name" if a
// parent context is known, else "Name".
func FQN(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// containerName finds the name of the symbol enclosing node, used to
// populate Symbol.Parent. Go methods take their parent from the receiver
// type (methods are not lexically nested); every other language walks up
// the AST to the nearest class/struct/interface/impl/trait ancestor.
func containerName(lang langs.Language, node *tree_sitter.Node, source []byte) string {
	if lang == langs.Go {
		if node.Kind() == "method_declaration" {
			if recv := node.ChildByFieldName("receiver"); recv != nil {
				return goReceiverTypeName(recv, source)
			}
		}
		return ""
	}

	containerKinds := map[string]bool{
		"class_declaration":     true,
		"class_definition":      true,
		"class_specifier":       true,
		"struct_specifier":      true,
		"struct_declaration":    true,
		"interface_declaration": true,
		"impl_item":             true,
		"trait_item":            true,
		"record_declaration":    true,
	}
	for p := node.Parent(); p != nil; p = p.Parent() {
		if !containerKinds[p.Kind()] {
			continue
		}
		if nameNode := p.ChildByFieldName("name"); nameNode != nil {
			return nameNode.Utf8Text(source)
		}
		if typeNode := p.ChildByFieldName("type"); typeNode != nil {
			return typeNode.Utf8Text(source)
		}
		return ""
	}
	return ""
}

// goReceiverTypeName extracts the receiver type name from a Go method's
// receiver parameter_list, unwrapping a pointer_type if present.
func goReceiverTypeName(recv *tree_sitter.Node, source []byte) string {
	for i := uint(0); i < recv.ChildCount(); i++ {
		child := recv.Child(i)
		if child == nil || child.Kind() != "parameter_declaration" {
			continue
		}
		typeNode := child.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		if typeNode.Kind() == "pointer_type" {
			if typeNode.ChildCount() > 0 {
				if inner := typeNode.Child(typeNode.ChildCount() - 1); inner != nil {
					return inner.Utf8Text(source)
				}
			}
			continue
		}
		return typeNode.Utf8Text(source)
	}
	return ""
}
