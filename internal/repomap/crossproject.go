package repomap

import "strings"

// CrossProjectDetector classifies a project-relative (or absolute) file
// path as belonging to the main project or lying across a cross-project
// boundary (spec.md §4.F.3's CrossProjectDetector). The Supplementary
// Registry implements this for the projects it knows about; repomap only
// depends on the interface to avoid an import cycle.
type CrossProjectDetector interface {
	IsCrossProject(file string) bool
}

// dependencyPatterns is the fallback well-known dependency path list
// (spec.md §4.F.3), modeled on the teacher's own exclusion lists
// (internal/mcptools/handlers.go's excludeSet, internal/config's
// ExcludeDirs) generalized into a fixed substring-match table.
var dependencyPatterns = []string{
	"node_modules",
	"target/debug/deps",
	"target/release/deps",
	".cargo/registry",
	"vendor",
	"third_party",
	"external",
	"build",
	"dist",
	"out",
	"deps",
}

// NoOpCrossProjectDetector treats every file as main-project — used when
// no supplementary projects are configured.
type NoOpCrossProjectDetector struct{}

// IsCrossProject always returns false.
func (NoOpCrossProjectDetector) IsCrossProject(string) bool { return false }

// PatternCrossProjectDetector applies only the fallback dependency-pattern
// check, with no supplementary project awareness. Used by callers (e.g.
// standalone tests) that don't wire a full Supplementary Registry.
type PatternCrossProjectDetector struct{}

// IsCrossProject reports whether file's path contains any of the
// well-known dependency patterns as a plain substring; the match is not
// limited to whole directory segments.
func (PatternCrossProjectDetector) IsCrossProject(file string) bool {
	return matchesDependencyPattern(file)
}

func matchesDependencyPattern(file string) bool {
	for _, pattern := range dependencyPatterns {
		if strings.Contains(file, pattern) {
			return true
		}
	}
	return false
}
