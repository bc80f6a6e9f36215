package routines

import (
	"context"
	"sync"
)

// DefaultConcurrency is the number of operations Resolve runs in parallel if
// no other value is configured.
const DefaultConcurrency = 10

// Op is an independent operation producing a value.
type Op[T any] func(context.Context) (T, error)

type options struct {
	concurrency int
}

// Option configures Resolve.
type Option func(*options)

// WithConcurrency sets the maximal number of operations that run in parallel.
// Values smaller than 1 are ignored.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// resolver collects the results of concurrently running operations.
// pending, results and err are only accessed while lock is held. done is
// closed exactly once, either when the last pending result was returned or
// when the first error was latched.
type resolver[T any] struct {
	lock    sync.Mutex
	results []T
	pending int
	err     error
	done    chan struct{}
}

func (r *resolver[T]) returnValue(idx int, val T) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.err != nil {
		return
	}

	r.results[idx] = val
	r.pending--

	if r.pending == 0 {
		close(r.done)
	}
}

func (r *resolver[T]) throw(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.err != nil || r.pending == 0 {
		return
	}

	r.err = err
	close(r.done)
}

func (r *resolver[T]) result() ([]T, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.err != nil {
		return nil, r.err
	}

	return r.results, nil
}

// Resolve runs all ops concurrently and blocks until all of them succeeded or
// one failed.
//
// On success the results are returned in the order of ops, independent of
// the order in which the operations completed.
// On failure the first error that happened is returned. Operations that are
// already running or queued are not aborted, they run to completion in the
// background and their results are discarded.
// If ctx is cancelled before all operations finished, ctx.Err() is returned.
func Resolve[T any](ctx context.Context, ops []Op[T], opts ...Option) ([]T, error) {
	if len(ops) == 0 {
		return []T{}, nil
	}

	o := options{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}

	r := resolver[T]{
		results: make([]T, len(ops)),
		pending: len(ops),
		done:    make(chan struct{}),
	}

	pool := NewPool(min(o.concurrency, len(ops)))

	go func() {
		for i, op := range ops {
			i, op := i, op

			pool.Queue(func() {
				val, err := op(ctx)
				if err != nil {
					r.throw(err)
					return
				}

				r.returnValue(i, val)
			})
		}

		pool.Wait()
	}()

	select {
	case <-r.done:
		return r.result()

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// All runs all fns concurrently and returns the first error that happened.
// The functions report their results via their closures.
func All(ctx context.Context, fns ...func(context.Context) error) error {
	ops := make([]Op[struct{}], 0, len(fns))

	for _, fn := range fns {
		fn := fn

		ops = append(ops, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fn(ctx)
		})
	}

	_, err := Resolve(ctx, ops, WithConcurrency(len(fns)))
	return err
}
