// Command codeintel is a one-shot CLI over the Query Engine: it builds the
// graph for a project root, runs a single query, prints JSON, and exits —
// useful for scripting and for debugging the MCP server's tool handlers
// without a client attached.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/codeintel/internal/config"
	"github.com/standardbeagle/codeintel/internal/graph"
	"github.com/standardbeagle/codeintel/internal/parserpool"
	"github.com/standardbeagle/codeintel/internal/query"
	"github.com/standardbeagle/codeintel/internal/repomap"
	"github.com/standardbeagle/codeintel/internal/supplementary"
)

var version = "dev"

type cliFlags struct {
	ProjectRoot string
	ActiveFiles string
	MaxDepth    int
	MaxTokens   int
	Version     bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("codeintel", flag.ContinueOnError)
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "path to the project to index")
	fs.StringVar(&flags.ActiveFiles, "active-files", "", "comma-separated file list, for related-files-skeleton")
	fs.IntVar(&flags.MaxDepth, "max-depth", 2, "max BFS depth for subgraph/related-files queries")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 8000, "token budget for skeleton queries")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.Version {
		fmt.Println(version)
		return nil
	}

	positional := fs.Args()
	if len(positional) < 1 {
		printUsage(fs)
		return fmt.Errorf("missing query command")
	}
	command, queryArg := positional[0], ""
	if len(positional) > 1 {
		queryArg = positional[1]
	}

	projectRoot, err := filepath.Abs(flags.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	cfg, err := config.Load(projectRoot)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool := parserpool.New()
	store := graph.NewMemStore()

	var registry *supplementary.Registry
	if enabled := cfg.EnabledSupplementaryProjects(); len(enabled) > 0 {
		registry = supplementary.Load(pool, projectRoot, enabled)
	}
	var detector repomap.CrossProjectDetector
	if registry != nil {
		detector = registry
	}
	mapper := repomap.New(projectRoot, pool, store, detector)

	ctx := context.Background()
	if err := mapper.BuildGraph(ctx); err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	engine := query.New(mapper, registry, pool)

	var result any
	switch command {
	case "analyze":
		result = engine.AnalyzeFile(queryArg)
	case "definitions":
		result = engine.Definitions(queryArg)
	case "references":
		result = engine.References(queryArg)
	case "subgraph":
		sg, err := engine.Subgraph(ctx, queryArg, flags.MaxDepth)
		if err != nil {
			return err
		}
		result = sg
	case "related-files":
		active := splitNonEmpty(flags.ActiveFiles)
		result = engine.RelatedFilesSkeleton(ctx, active, flags.MaxDepth, flags.MaxTokens)
	case "files-skeleton":
		result = engine.MultipleFilesSkeleton(splitNonEmpty(queryArg), flags.MaxTokens)
	case "diagram":
		diagram, err := graph.GenerateMermaid(ctx, store)
		if err != nil {
			return fmt.Errorf("generate diagram: %w", err)
		}
		fmt.Println(diagram)
		return nil
	default:
		printUsage(fs)
		return fmt.Errorf("unknown query command %q", command)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printUsage(fs *flag.FlagSet) {
	w := os.Stderr
	fmt.Fprintf(w, "codeintel v%s — one-shot code intelligence queries\n\n", version)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  codeintel [flags] analyze <file_path>")
	fmt.Fprintln(w, "  codeintel [flags] definitions <symbol_name>")
	fmt.Fprintln(w, "  codeintel [flags] references <symbol_name|fqn>")
	fmt.Fprintln(w, "  codeintel [flags] subgraph <symbol_name>")
	fmt.Fprintln(w, "  codeintel [flags] related-files --active-files a.go,b.go")
	fmt.Fprintln(w, "  codeintel [flags] files-skeleton <file1,file2,...>")
	fmt.Fprintln(w, "  codeintel [flags] diagram              Render the whole graph as Mermaid")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
}
