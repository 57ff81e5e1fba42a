package models

// ResultSource tells where an emitted value came from.
type ResultSource string

const (
	SourceLocal  ResultSource = "LOCAL"
	SourceRemote ResultSource = "REMOTE"
)

// ResultKind enumerates the variants of [Result].
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultNotFound
	ResultFailure
)

// Result is one emission of a repository read. Exactly one variant holds:
// a value, a "not found" marker, or an error.
type Result[T any] struct {
	Value    T
	Err      error
	Source   ResultSource
	NotFound bool
}

// Success wraps a value.
func Success[T any](value T, source ResultSource) Result[T] {
	return Result[T]{Value: value, Source: source}
}

// Missing reports that the requested item does not exist. It is not an error.
func Missing[T any](source ResultSource) Result[T] {
	return Result[T]{NotFound: true, Source: source}
}

// Failure wraps an error.
func Failure[T any](err error, source ResultSource) Result[T] {
	return Result[T]{Err: err, Source: source}
}

// Kind returns the variant held by r.
func (r Result[T]) Kind() ResultKind {
	switch {
	case r.Err != nil:
		return ResultFailure
	case r.NotFound:
		return ResultNotFound
	default:
		return ResultSuccess
	}
}
