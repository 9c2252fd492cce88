package pool

import (
	"sync"

	"treesum/pkg/logger"
)

// Task is one unit of branch work.
type Task func()

// Pool is a fixed-size worker pool with non-blocking admission. Branch
// computations recursively offer their subdirectory work to the pool; an
// offer is only accepted while a worker is idle, so callers always have a
// synchronous fallback and a parent can never deadlock waiting on children
// that no worker is free to run.
type Pool struct {
	numWorkers int
	tasks      chan Task
	wg         sync.WaitGroup
	logger     logger.Logger
}

// New creates a worker pool with the given number of workers.
func New(numWorkers int, log logger.Logger) *Pool {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pool{
		numWorkers: numWorkers,
		// Unbuffered: a submit only succeeds when a worker is ready to
		// receive, which bounds in-flight async work to numWorkers.
		tasks:  make(chan Task),
		logger: log,
	}
}

// Start launches all workers.
func (p *Pool) Start() {
	p.logger.WithField("num_workers", p.numWorkers).Debug("Starting worker pool")

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// TrySubmit offers a task to the pool without blocking. It returns false when
// every worker is busy; the caller is expected to run the task inline.
func (p *Pool) TrySubmit(task Task) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Stop shuts the pool down after all accepted tasks have finished.
func (p *Pool) Stop() {
	close(p.tasks)
	p.wg.Wait()
	p.logger.Debug("Worker pool stopped")
}

// worker is the main worker routine
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		task()
	}

	p.logger.WithField("worker_id", id).Debug("Worker stopping - task queue closed")
}
