// Package result models the outcome of an asynchronous fetch as a closed set
// of states: still loading, failed with a message, or ready with a value.
package result

// State identifies which of the three outcomes a Result holds.
type State int

const (
	StateLoading State = iota
	StateFailed
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateFailed:
		return "failed"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Result is a fetch outcome. The zero value is Loading.
type Result[T any] struct {
	state State
	err   string
	value T
}

func Loading[T any]() Result[T] {
	return Result[T]{state: StateLoading}
}

// Failed holds err's message verbatim. A nil err is treated as an empty message.
func Failed[T any](err error) Result[T] {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Result[T]{state: StateFailed, err: msg}
}

func Ready[T any](v T) Result[T] {
	return Result[T]{state: StateReady, value: v}
}

// From converts a (value, error) pair into a Failed or Ready result.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Ready(v)
}

func (r Result[T]) State() State { return r.state }

// Err returns the failure message, or "" unless the result is Failed.
func (r Result[T]) Err() string { return r.err }

// Value returns the value and whether the result is Ready.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.state == StateReady
}

// Match calls exactly one of the three functions depending on the state.
func Match[T, R any](r Result[T], loading func() R, failed func(msg string) R, ready func(v T) R) R {
	switch r.state {
	case StateFailed:
		return failed(r.err)
	case StateReady:
		return ready(r.value)
	default:
		return loading()
	}
}
