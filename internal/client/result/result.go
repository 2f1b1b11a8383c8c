// Package result holds the success-or-failure value returned by the entity
// repositories.
package result

import "errors"

var errEmpty = errors.New("result: no value")

// Result is either a value or an error, never both.
type Result[T any] struct {
	value T
	err   error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps err. A nil err is replaced so the result still reads as failed.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = errEmpty
	}
	return Result[T]{err: err}
}

// From builds a Result from a conventional (value, error) pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

func (r Result[T]) IsSuccess() bool { return r.err == nil }

// Value returns the value; it is the zero value on failure.
func (r Result[T]) Value() T { return r.value }

func (r Result[T]) Err() error { return r.err }

func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

func (r Result[T]) OrElse(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Map applies fn to a successful value.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Fail[U](r.err)
	}
	return Ok(fn(r.value))
}

// Void is the value type of results that carry no data.
type Void = struct{}

// Done is a successful Result[Void].
func Done() Result[Void] { return Ok(Void{}) }

// Check turns a plain error into a Result[Void].
func Check(err error) Result[Void] {
	if err != nil {
		return Fail[Void](err)
	}
	return Done()
}
