package stage

import "fmt"

// ErrorKind classifies a stage failure.
type ErrorKind string

const (
	// KindCall is a failed generation call.
	KindCall ErrorKind = "call"
	// KindParse is a reply that is not the expected JSON document.
	KindParse ErrorKind = "parse"
)

// StageError is a recoverable failure of one generation stage. Callers
// substitute the stage's fallback value and continue.
type StageError struct {
	Stage   Role
	Kind    ErrorKind
	Err     error
	Snippet string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %s failure: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result is either a stage value or the StageError that prevented it.
type Result[T any] struct {
	Value T
	Err   *StageError
}

// OK wraps a successful stage value.
func OK[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail wraps a stage failure.
func Fail[T any](err *StageError) Result[T] { return Result[T]{Err: err} }

// OK reports whether the stage produced a value.
func (r Result[T]) OK() bool { return r.Err == nil }

// ValueOr returns the stage value, or def if the stage failed.
func (r Result[T]) ValueOr(def T) T {
	if r.Err != nil {
		return def
	}
	return r.Value
}
