// Command codeintel-mcp builds the code intelligence graph for a project
// root and serves the Query Engine's six tools over MCP (spec.md §6).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/standardbeagle/codeintel/internal/config"
	"github.com/standardbeagle/codeintel/internal/corelog"
	"github.com/standardbeagle/codeintel/internal/graph"
	"github.com/standardbeagle/codeintel/internal/mcptools"
	"github.com/standardbeagle/codeintel/internal/parserpool"
	"github.com/standardbeagle/codeintel/internal/query"
	"github.com/standardbeagle/codeintel/internal/repomap"
	"github.com/standardbeagle/codeintel/internal/supplementary"
	"github.com/standardbeagle/codeintel/internal/symbolstore"
)

// version is set by the linker at build time.
var version = "dev"

type cliFlags struct {
	ProjectRoot string
	Addr        string
	Stdio       bool
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

	fs := flag.NewFlagSet("codeintel-mcp", flag.ContinueOnError)
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "path to the project to index")
	fs.StringVar(&flags.Addr, "addr", "", "serve over streamable HTTP at this address instead of stdio (e.g. :8787)")
	fs.BoolVar(&flags.Stdio, "stdio", true, "serve over stdio (default transport)")
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

	projectRoot, err := filepath.Abs(flags.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	cfg, err := config.Load(projectRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load codeintel.yml: %v\n", err)
		cfg = &config.ProjectConfig{Storage: symbolstore.DefaultStorageConfig()}
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
	if n := mapper.Failures().Count(); n > 0 {
		corelog.Warnf("codeintel-mcp: %d file(s) failed during graph build, continuing with partial results", n)
	}

	// Copy the resident symbol set into a project-scoped Symbol Store
	// (spec.md §4.C, §6). Only symbols evicted past the store's cache_size
	// are written to disk; the rest stay in its in-memory hot tier.
	if err := persistSymbols(cfg.Storage, projectRoot, mapper); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to persist symbol store: %v\n", err)
	}

	engine := query.New(mapper, registry, pool)
	svc := mcptools.NewCodeIntelService(engine)

	if flags.Addr != "" {
		fmt.Fprintf(os.Stderr, "codeintel-mcp v%s serving HTTP on %s (project: %s)\n", version, flags.Addr, projectRoot)
		return mcptools.RunMCPServer(ctx, svc, flags.Addr)
	}

	fmt.Fprintf(os.Stderr, "codeintel-mcp v%s serving stdio (project: %s)\n", version, projectRoot)
	return mcptools.RunMCPServerStdio(ctx, svc)
}

// persistSymbols copies every indexed symbol into a project-scoped Symbol
// Store. Symbols the store evicts past its cache_size are written in the
// cold-tier format spec.md §6 defines (`symbol_<hex-hash-of-fqn>.json`,
// one per evicted symbol); symbols still in the hot tier are not written.
func persistSymbols(storageCfg symbolstore.StorageConfig, projectRoot string, mapper *repomap.RepoMapper) error {
	projectName := filepath.Base(projectRoot)
	store, err := symbolstore.New(storageCfg, projectName, projectRoot)
	if err != nil {
		return err
	}
	for _, sym := range mapper.Extractor().Symbols() {
		if err := store.StoreSymbol(sym); err != nil {
			return err
		}
	}
	return nil
}

func printUsage(fs *flag.FlagSet) {
	w := os.Stderr
	fmt.Fprintf(w, "codeintel-mcp v%s — code intelligence MCP server\n\n", version)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  codeintel-mcp [flags]   Build the graph for --project-root and serve its query tools")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
}
