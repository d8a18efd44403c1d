package repomap

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/codeintel/internal/langs"
)

// importResolver rewrites a raw import specifier captured off the AST
// (spec.md §4.A's import.path capture) into a project-relative file path
// matching a known File node, so the Repo Mapper can emit a real Imports
// edge between two files instead of leaving the reference target as bare
// text. It is built once per build_graph call from the set of known
// project-relative file paths and any workspace metadata discovered at the
// project root.
type importResolver struct {
	projectRoot  string
	fileSet      map[string]bool
	dirIndex     map[string][]string
	tsWorkspaces map[string]*tsWorkspace
	goModPath    string
}

type tsWorkspace struct {
	dir            string
	mainFile       string
	subpathExports map[string]string
}

// newImportResolver scans projectRoot for package.json/go.mod workspace
// metadata and indexes knownFiles by directory for module-path resolution.
func newImportResolver(projectRoot string, knownFiles []string) *importResolver {
	r := &importResolver{
		projectRoot:  projectRoot,
		fileSet:      make(map[string]bool, len(knownFiles)),
		dirIndex:     make(map[string][]string),
		tsWorkspaces: make(map[string]*tsWorkspace),
	}
	for _, f := range knownFiles {
		r.fileSet[f] = true
		dir := filepath.Dir(f)
		r.dirIndex[dir] = append(r.dirIndex[dir], f)
	}
	r.scanTSWorkspaces()
	r.scanGoMod()
	return r
}

// Resolve attempts to turn importPath (as captured from sourceFile) into a
// known project-relative file path.
func (r *importResolver) Resolve(importPath, sourceFile string, lang langs.Language) (string, bool) {
	switch lang {
	case langs.TypeScript, langs.JavaScript:
		return r.resolveTS(importPath, sourceFile)
	case langs.Go:
		return r.resolveGo(importPath)
	case langs.Python:
		return r.resolvePython(importPath, sourceFile)
	case langs.Rust:
		return r.resolveRust(importPath, sourceFile)
	default:
		return "", false
	}
}

// --- TypeScript / JavaScript resolution ---

var tsExtensions = []string{".ts", ".tsx", ".js", ".jsx", "/index.ts", "/index.tsx", "/index.js"}

func (r *importResolver) resolveTS(importPath, sourceFile string) (string, bool) {
	if strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../") {
		sourceDir := filepath.Dir(sourceFile)
		base := filepath.Clean(filepath.Join(sourceDir, importPath))
		return r.probeFile(base, tsExtensions)
	}
	return r.resolveTSWorkspace(importPath)
}

func (r *importResolver) resolveTSWorkspace(importPath string) (string, bool) {
	if ws, ok := r.tsWorkspaces[importPath]; ok {
		if ws.mainFile != "" {
			return ws.mainFile, true
		}
		return "", false
	}

	var pkgName, subpath string
	if strings.HasPrefix(importPath, "@") {
		afterScope := strings.Index(importPath[1:], "/")
		if afterScope == -1 {
			return "", false
		}
		scopeEnd := afterScope + 1
		secondSlash := strings.Index(importPath[scopeEnd+1:], "/")
		if secondSlash == -1 {
			return "", false
		}
		splitAt := scopeEnd + 1 + secondSlash
		pkgName = importPath[:splitAt]
		subpath = "./" + importPath[splitAt+1:]
	} else {
		slash := strings.Index(importPath, "/")
		if slash == -1 {
			return "", false
		}
		pkgName = importPath[:slash]
		subpath = "./" + importPath[slash+1:]
	}

	ws, ok := r.tsWorkspaces[pkgName]
	if !ok {
		return "", false
	}
	if target, ok := ws.subpathExports[subpath]; ok {
		return target, true
	}
	relPath := subpath[2:]
	base := filepath.Join(ws.dir, relPath)
	return r.probeFile(base, tsExtensions)
}

// --- Go resolution ---

func (r *importResolver) resolveGo(importPath string) (string, bool) {
	if r.goModPath == "" || !strings.HasPrefix(importPath, r.goModPath) {
		return "", false
	}
	relDir := strings.TrimPrefix(strings.TrimPrefix(importPath, r.goModPath), "/")

	files := r.dirIndex[relDir]
	if len(files) == 0 {
		return "", false
	}
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)
	for _, f := range sorted {
		if strings.HasSuffix(f, ".go") && !strings.HasSuffix(f, "_test.go") {
			return f, true
		}
	}
	return "", false
}

// --- Python resolution ---

func (r *importResolver) resolvePython(importPath, sourceFile string) (string, bool) {
	if !strings.HasPrefix(importPath, ".") {
		return "", false
	}
	dots := 0
	for _, c := range importPath {
		if c == '.' {
			dots++
		} else {
			break
		}
	}
	modulePart := importPath[dots:]

	baseDir := filepath.Dir(sourceFile)
	for i := 1; i < dots; i++ {
		baseDir = filepath.Dir(baseDir)
	}

	if modulePart == "" {
		return r.probeFile(filepath.Join(baseDir, "__init__"), []string{".py"})
	}
	relPath := strings.ReplaceAll(modulePart, ".", "/")
	base := filepath.Join(baseDir, relPath)
	return r.probeFile(base, []string{".py", "/__init__.py"})
}

// --- Rust resolution ---

func (r *importResolver) resolveRust(importPath, sourceFile string) (string, bool) {
	if idx := strings.Index(importPath, "::{"); idx != -1 {
		importPath = importPath[:idx]
	}

	switch {
	case strings.HasPrefix(importPath, "crate::"):
		relPath := strings.ReplaceAll(strings.TrimPrefix(importPath, "crate::"), "::", "/")
		candidates := []string{filepath.Join("src", relPath), relPath}
		if srcDir := findCrateRoot(sourceFile); srcDir != "" {
			candidates = append(candidates, filepath.Join(srcDir, relPath))
		}
		for _, base := range candidates {
			if resolved, ok := r.probeFile(base, []string{".rs", "/mod.rs"}); ok {
				return resolved, true
			}
		}
		return "", false

	case strings.HasPrefix(importPath, "self::"):
		relPath := strings.ReplaceAll(strings.TrimPrefix(importPath, "self::"), "::", "/")
		base := filepath.Join(filepath.Dir(sourceFile), relPath)
		return r.probeFile(base, []string{".rs", "/mod.rs"})

	case strings.HasPrefix(importPath, "super::"):
		relPath := strings.ReplaceAll(strings.TrimPrefix(importPath, "super::"), "::", "/")
		parentDir := filepath.Dir(filepath.Dir(sourceFile))
		base := filepath.Join(parentDir, relPath)
		return r.probeFile(base, []string{".rs", "/mod.rs"})

	default:
		return "", false
	}
}

func findCrateRoot(filePath string) string {
	dir := filepath.Dir(filePath)
	for dir != "." && dir != "/" && dir != "" {
		if filepath.Base(dir) == "src" {
			return dir
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

// --- Shared helpers ---

func (r *importResolver) probeFile(basePath string, extensions []string) (string, bool) {
	basePath = filepath.ToSlash(basePath)
	if r.fileSet[basePath] {
		return basePath, true
	}
	for _, ext := range extensions {
		candidate := filepath.ToSlash(basePath + ext)
		if r.fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// --- Workspace / module scanning ---

type packageJSON struct {
	Name       string          `json:"name"`
	Main       string          `json:"main"`
	Workspaces json.RawMessage `json:"workspaces"`
	Exports    json.RawMessage `json:"exports"`
}

func (r *importResolver) scanTSWorkspaces() {
	data, err := os.ReadFile(filepath.Join(r.projectRoot, "package.json"))
	if err != nil {
		return
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return
	}
	patterns := parseWorkspacePatterns(pkg.Workspaces)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(r.projectRoot, pattern))
		if err != nil {
			continue
		}
		for _, dir := range matches {
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				r.loadWorkspacePackage(dir)
			}
		}
	}
}

func parseWorkspacePatterns(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Packages
	}
	return nil
}

func (r *importResolver) loadWorkspacePackage(absDir string) {
	data, err := os.ReadFile(filepath.Join(absDir, "package.json"))
	if err != nil {
		return
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Name == "" {
		return
	}
	relDir, err := filepath.Rel(r.projectRoot, absDir)
	if err != nil {
		return
	}
	ws := &tsWorkspace{dir: relDir, subpathExports: make(map[string]string)}
	r.parseExports(ws, pkg.Exports)

	if ws.mainFile == "" && pkg.Main != "" {
		candidate := filepath.Clean(filepath.Join(relDir, pkg.Main))
		if r.fileSet[candidate] {
			ws.mainFile = candidate
		} else if resolved, ok := r.probeFile(candidate, tsExtensions); ok {
			ws.mainFile = resolved
		}
	}
	if ws.mainFile == "" {
		for _, try := range []string{filepath.Join(relDir, "src", "index"), filepath.Join(relDir, "index")} {
			if resolved, ok := r.probeFile(try, tsExtensions); ok {
				ws.mainFile = resolved
				break
			}
		}
	}
	r.tsWorkspaces[pkg.Name] = ws
}

func (r *importResolver) parseExports(ws *tsWorkspace, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		resolved := filepath.Clean(filepath.Join(ws.dir, str))
		if r.fileSet[resolved] {
			ws.mainFile = resolved
		} else if probed, ok := r.probeFile(resolved, tsExtensions); ok {
			ws.mainFile = probed
		}
		return
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return
	}
	for key, val := range obj {
		target := resolveExportValue(val)
		if target == "" {
			continue
		}
		resolved := filepath.Clean(filepath.Join(ws.dir, target))
		var finalPath string
		if r.fileSet[resolved] {
			finalPath = resolved
		} else if probed, ok := r.probeFile(resolved, tsExtensions); ok {
			finalPath = probed
		} else {
			continue
		}
		if key == "." {
			ws.mainFile = finalPath
		} else {
			ws.subpathExports[key] = finalPath
		}
	}
}

func resolveExportValue(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"import", "default", "require"} {
		if v, ok := obj[key]; ok {
			return resolveExportValue(v)
		}
	}
	return ""
}

func (r *importResolver) scanGoMod() {
	f, err := os.Open(filepath.Join(r.projectRoot, "go.mod"))
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			r.goModPath = strings.TrimSpace(strings.TrimPrefix(line, "module"))
			return
		}
	}
}
