// Package coreerrors names the abstract error kinds spec.md §7 enumerates,
// so callers across the engine can classify a wrapped error without
// string-matching its message. The kinds are sentinel values; concrete
// errors wrap one via fmt.Errorf("...: %w", kind) and are tested with
// errors.Is, following the teacher's own plain-wrapped-error idiom
// throughout internal/graph and internal/mcptools.
package coreerrors

import "errors"

// Kinds mirror spec.md §7's abstract error taxonomy.
var (
	ErrIO                 = errors.New("io error")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrParseFailed        = errors.New("parse failed")
	ErrQueryFailed        = errors.New("query failed")
	ErrStorage            = errors.New("storage error")
	ErrLockPoisoned       = errors.New("lock poisoned")
	ErrInvalidInput       = errors.New("invalid input")
)

// Result is the user-visible failure shape spec.md §7 requires for
// structured query responses: "{error: string, hint?: string}" on invalid
// input.
type Result struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// NewResult builds a Result from err, using hint for the optional guidance
// field (empty omits it from JSON).
func NewResult(err error, hint string) Result {
	return Result{Error: err.Error(), Hint: hint}
}
