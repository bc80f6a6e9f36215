// Package routines provides primitives to run functions concurrently on a
// bounded number of go-routines.
package routines

import "sync"

// Pool executes queued functions with a fixed number of go-routines.
type Pool struct {
	workCh    chan func()
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewPool starts a pool with workers go-routines.
// If workers is smaller than 1, 1 worker is started.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := Pool{workCh: make(chan func())}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return &p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for fn := range p.workCh {
		fn()
	}
}

// Queue schedules fn to be run by the pool.
// It blocks until a worker picked up fn.
// Calling Queue after Wait panics.
func (p *Pool) Queue(fn func()) {
	p.workCh <- fn
}

// Wait waits until all queued functions finished and terminates the workers.
// It can be called multiple times.
func (p *Pool) Wait() {
	p.closeOnce.Do(func() { close(p.workCh) })
	p.wg.Wait()
}
