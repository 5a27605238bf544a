package executor

import (
	"context"
	"sync"
)

// Pool bounds the number of conversions running at once with a semaphore.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func NewPool(maxWorkers int) *Pool {
	return &Pool{
		sem: make(chan struct{}, maxWorkers),
	}
}

func (p *Pool) Submit(ctx context.Context, taskID string, run func(context.Context, string)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
			run(ctx, taskID)
		case <-ctx.Done():
		}
	}()
}

func (p *Pool) Wait() {
	p.wg.Wait()
}
