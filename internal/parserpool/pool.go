// Package parserpool implements the Parser Pool component (spec.md §4.A):
// per-language tree-sitter parsers, an mtime+size keyed parse cache, and a
// single combined definitions+references query per language.
package parserpool

import (
	"fmt"
	"os"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/standardbeagle/codeintel/internal/langs"
)

// UnsupportedLanguageError is returned when a file extension has no
// registered language.
type UnsupportedLanguageError struct{ Ext string }

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("parserpool: unsupported file extension %q", e.Ext)
}

// ParseFailedError wraps an uncorrectable tree-sitter parse failure.
type ParseFailedError struct {
	Path string
	Err  error
}

func (e *ParseFailedError) Error() string {
	return fmt.Sprintf("parserpool: parse failed for %s: %v", e.Path, e.Err)
}
func (e *ParseFailedError) Unwrap() error { return e.Err }

// ParsedFile is a cached parse result: the AST plus the source it was
// parsed from. The skeletoniser (internal/skeleton) and the Context
// Extractor both work from the Matches produced from it.
type ParsedFile struct {
	Path     string
	Language langs.Language
	Tree     *tree_sitter.Tree
	Source   []byte

	mtime int64
	size  int64
}

// Root returns the tree's root node.
func (p *ParsedFile) Root() *tree_sitter.Node {
	if p.Tree == nil {
		return nil
	}
	return p.Tree.RootNode()
}

// Close releases the underlying tree-sitter tree.
func (p *ParsedFile) Close() {
	if p.Tree != nil {
		p.Tree.Close()
		p.Tree = nil
	}
}

type langEntry struct {
	language *tree_sitter.Language
	query    *tree_sitter.Query
}

// Pool owns one tree-sitter language+compiled query per language (a fresh
// parser is created for each parse, see newParser) and a cache of parsed
// files keyed by path, guarded by an interior mutex (spec.md §5:
// "process-wide singleton, interior mutability with fine-grained locks per
// language parser").
type Pool struct {
	langMu sync.RWMutex
	langs  map[langs.Language]*langEntry

	cacheMu sync.Mutex
	cache   map[string]*ParsedFile
}

// New builds a Pool with all seven supported languages registered.
func New() *Pool {
	p := &Pool{
		langs: make(map[langs.Language]*langEntry),
		cache: make(map[string]*ParsedFile),
	}
	p.register(langs.Go, tree_sitter.NewLanguage(tree_sitter_go.Language()))
	p.register(langs.Python, tree_sitter.NewLanguage(tree_sitter_python.Language()))
	p.register(langs.Rust, tree_sitter.NewLanguage(tree_sitter_rust.Language()))
	p.register(langs.TypeScript, tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()))
	p.register(langs.JavaScript, tree_sitter.NewLanguage(tree_sitter_javascript.Language()))
	p.register(langs.Java, tree_sitter.NewLanguage(tree_sitter_java.Language()))
	p.register(langs.CSharp, tree_sitter.NewLanguage(tree_sitter_csharp.Language()))
	p.register(langs.Cpp, tree_sitter.NewLanguage(tree_sitter_cpp.Language()))
	return p
}

func (p *Pool) register(lang langs.Language, tsLang *tree_sitter.Language) {
	entry := &langEntry{language: tsLang}
	if src, ok := queryByLanguage[lang]; ok {
		// The tree-sitter Go binding can return a typed-nil *Query alongside
		// a non-nil error interface value on some grammar/query mismatches;
		// guard on the query pointer rather than the error, matching the
		// workaround documented in the pack's own parser setup code.
		q, _ := tree_sitter.NewQuery(tsLang, src)
		if q != nil {
			entry.query = q
		}
	}
	p.langMu.Lock()
	p.langs[lang] = entry
	p.langMu.Unlock()
}

// newParser creates a fresh *tree_sitter.Parser bound to lang's language.
// A new parser is created per call: tree_sitter.Parser is not safe for
// concurrent Parse calls, and per-file parses already run on independent
// goroutines in the batch walker (spec.md §5).
func (p *Pool) newParser(lang langs.Language) (*tree_sitter.Parser, *langEntry, error) {
	p.langMu.RLock()
	entry, ok := p.langs[lang]
	p.langMu.RUnlock()
	if !ok {
		return nil, nil, &UnsupportedLanguageError{Ext: string(lang)}
	}
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(entry.language); err != nil {
		parser.Close()
		return nil, nil, &ParseFailedError{Err: err}
	}
	return parser, entry, nil
}

// ParseFile synchronously parses content for path. Partial trees (isolated
// syntax errors) are accepted; only a nil tree is treated as ParseFailed.
func (p *Pool) ParseFile(path string, content []byte, lang langs.Language) (*ParsedFile, error) {
	parser, _, err := p.newParser(lang)
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, &ParseFailedError{Path: path, Err: fmt.Errorf("tree-sitter returned a nil tree")}
	}

	return &ParsedFile{
		Path:     path,
		Language: lang,
		Tree:     tree,
		Source:   content,
	}, nil
}

// NeedsReparse reports whether the cached entry for path is stale relative
// to the file's current mtime/size on disk. A missing cache entry counts
// as needing (re)parse.
func (p *Pool) NeedsReparse(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	p.cacheMu.Lock()
	cached, ok := p.cache[path]
	p.cacheMu.Unlock()
	if !ok {
		return true
	}
	return cached.mtime != info.ModTime().UnixNano() || cached.size != info.Size()
}

// ParseFileIfNeeded returns the cached ParsedFile for path, reparsing from
// disk only if the cache is missing or stale (by mtime+size).
func (p *Pool) ParseFileIfNeeded(path string, lang langs.Language) (*ParsedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	p.cacheMu.Lock()
	cached, ok := p.cache[path]
	p.cacheMu.Unlock()
	if ok && cached.mtime == info.ModTime().UnixNano() && cached.size == info.Size() {
		return cached, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parsed, err := p.ParseFile(path, content, lang)
	if err != nil {
		return nil, err
	}
	parsed.mtime = info.ModTime().UnixNano()
	parsed.size = info.Size()

	p.cacheMu.Lock()
	if old, exists := p.cache[path]; exists {
		old.Close()
	}
	p.cache[path] = parsed
	p.cacheMu.Unlock()

	return parsed, nil
}

// Evict drops path from the parse cache, closing its tree. Called when a
// file is deleted from the project.
func (p *Pool) Evict(path string) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	if cached, ok := p.cache[path]; ok {
		cached.Close()
		delete(p.cache, path)
	}
}

// Get returns the currently cached ParsedFile for path without touching
// disk, or nil if nothing is cached.
func (p *Pool) Get(path string) *ParsedFile {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	return p.cache[path]
}
