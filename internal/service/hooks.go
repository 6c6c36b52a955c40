package service

import (
	"context"
	"errors"
	"sync"
)

// ErrHookClosed is returned when a closed hook is invoked.
var ErrHookClosed = errors.New("hook closed")

// RequestState is a snapshot of one hook's request lifecycle.
type RequestState[T any] struct {
	Data      T
	Pending   bool
	Err       error
	Succeeded bool
}

// Failed reports whether the last settled request failed.
func (s RequestState[T]) Failed() bool { return s.Err != nil }

// tracker owns the state shared by Query and Mutation. Every start takes a
// new generation; only the current generation may settle state, so a late
// response from an earlier call never overwrites a newer one.
type tracker[T any] struct {
	mu     sync.Mutex
	gen    uint64
	closed bool
	state  RequestState[T]
}

func (t *tracker[T]) start() (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, false
	}
	t.gen++
	t.state.Pending = true
	return t.gen, true
}

// settle records the outcome and reports whether it was applied.
func (t *tracker[T]) settle(gen uint64, data T, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || gen != t.gen {
		return false
	}
	t.state.Pending = false
	t.state.Err = err
	t.state.Succeeded = err == nil
	if err == nil {
		t.state.Data = data
	}
	return true
}

func (t *tracker[T]) snapshot() RequestState[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *tracker[T]) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.state = RequestState[T]{}
}

func (t *tracker[T]) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.gen++
	t.state.Pending = false
}

// QueryOptions configures a Query. OnError runs once per failed, non-stale fetch.
type QueryOptions[T any] struct {
	Fetch   func(ctx context.Context) (T, error)
	OnError func(err error)
}

// Query is a read hook: Run fetches and exposes {data, pending, error}.
// A failed fetch is not retried.
type Query[T any] struct {
	t    tracker[T]
	opts QueryOptions[T]
}

// NewQuery builds a Query. Fetch is required.
func NewQuery[T any](opts QueryOptions[T]) *Query[T] {
	if opts.Fetch == nil {
		panic("service: NewQuery requires Fetch")
	}
	return &Query[T]{opts: opts}
}

// Run performs the fetch. The result is always returned to the caller but
// only written to State when no newer Run, Close or Reset happened meanwhile.
func (q *Query[T]) Run(ctx context.Context) (T, error) {
	gen, ok := q.t.start()
	if !ok {
		var zero T
		return zero, ErrHookClosed
	}
	data, err := q.opts.Fetch(ctx)
	if q.t.settle(gen, data, err) && err != nil && q.opts.OnError != nil {
		q.opts.OnError(err)
	}
	return data, err
}

// State returns the current snapshot.
func (q *Query[T]) State() RequestState[T] { return q.t.snapshot() }

// Close detaches the hook; in-flight completions are discarded.
func (q *Query[T]) Close() { q.t.close() }

// MutationOptions configures a Mutation.
type MutationOptions[In, Out any] struct {
	Do        func(ctx context.Context, in In) (Out, error)
	OnSuccess func(out Out)
	// OnError runs for a failed, non-stale mutation. ResetOnError then clears
	// state so the caller can retry.
	OnError      func(err error)
	ResetOnError bool
}

// Mutation is a caller-triggered write hook exposing
// {invoke, pending, succeeded, failed}. It never retries on its own and does
// not deduplicate concurrent invocations.
type Mutation[In, Out any] struct {
	t    tracker[Out]
	opts MutationOptions[In, Out]
}

// NewMutation builds a Mutation. Do is required.
func NewMutation[In, Out any](opts MutationOptions[In, Out]) *Mutation[In, Out] {
	if opts.Do == nil {
		panic("service: NewMutation requires Do")
	}
	return &Mutation[In, Out]{opts: opts}
}

// Mutate invokes the operation once.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	gen, ok := m.t.start()
	if !ok {
		var zero Out
		return zero, ErrHookClosed
	}
	out, err := m.opts.Do(ctx, in)
	if !m.t.settle(gen, out, err) {
		return out, err
	}
	if err != nil {
		if m.opts.OnError != nil {
			m.opts.OnError(err)
		}
		if m.opts.ResetOnError {
			m.t.reset()
		}
		return out, err
	}
	if m.opts.OnSuccess != nil {
		m.opts.OnSuccess(out)
	}
	return out, nil
}

// State returns the current snapshot.
func (m *Mutation[In, Out]) State() RequestState[Out] { return m.t.snapshot() }

// Reset clears state and discards any in-flight completion.
func (m *Mutation[In, Out]) Reset() { m.t.reset() }

// Close detaches the hook; in-flight completions are discarded.
func (m *Mutation[In, Out]) Close() { m.t.close() }
