// Package pool runs frontend commands on a fixed set of worker goroutines.
package pool

import (
	"sync"

	"go.uber.org/zap"

	"editorshell/logging"
)

type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	closeOnce sync.Once
	logger    *zap.Logger
}

// New starts workers goroutines. Submit blocks when all workers are busy and the
// queue is full.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := &Pool{
		tasks:  make(chan func(), workers*4),
		logger: logging.Named("pool"),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

// run isolates a panicking task so the worker survives.
func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", zap.Any("panic", r))
		}
	}()
	task()
}

func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Close stops accepting tasks and waits for queued ones to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}
