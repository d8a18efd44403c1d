// Package corelog is the engine's minimal logging surface: plain
// "warning: ..."-style lines to stderr, matching the teacher's own
// fmt.Fprintf(os.Stderr, ...) texture (see internal/mcptools/handlers.go)
// rather than pulling in a structured logging library the pack never
// reaches for in its core graph code.
package corelog

import (
	"fmt"
	"os"
)

// Warnf prints a "warning: "-prefixed line to stderr. Used for expensive
// or unusual-but-not-fatal operations (e.g. Symbol Store's get_all_symbols
// drain, a per-file parse failure, a supplementary project that failed to
// load).
func Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// Errorf prints an "error: "-prefixed line to stderr for failures that are
// logged but not raised to the caller (spec.md §7's propagation policy).
func Errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

// Infof prints an informational line to stderr.
func Infof(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "info: "+format+"\n", args...)
}
