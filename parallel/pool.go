package parallel

import (
	"runtime"
	"sync"
)

// Pool is a bounded worker pool. Submit queues a task, Wait stops intake and
// blocks until every queued task has run. A Pool must not be reused after Wait.
type Pool struct {
	wg    sync.WaitGroup
	tasks chan func()
	stop  func()
}

func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		tasks: make(chan func(), numWorkers),
	}
	p.stop = sync.OnceFunc(func() { close(p.tasks) })

	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for f := range p.tasks {
				f()
			}
		}()
	}

	return p
}

func (p *Pool) Submit(f func()) {
	p.tasks <- f
}

func (p *Pool) Wait() {
	p.stop()
	p.wg.Wait()
}
