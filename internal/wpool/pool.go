// Package wpool is a bounded goroutine pool supervised by a tomb.Tomb,
// adapted from fenrir/internal/worker.go's WorkerPool/WorkerFunction
// shape. Workers here fan out accepted connections to the gateway's
// per-connection handler; they do not partition trading pairs (see
// SPEC_FULL.md's resolution of that Open Question) — the engine's own
// per-book mutex remains the single synchronisation primitive.
package wpool

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// TaskChanSize bounds how many accepted connections can queue for a free
// worker before Submit blocks.
const TaskChanSize = 100

// WorkerFunc is the unit of work a pool runs per task.
type WorkerFunc = func(t *tomb.Tomb, task any) error

// Pool is a fixed-size set of workers draining a shared task channel.
type Pool struct {
	n     int
	tasks chan any
}

// New constructs a Pool with the given worker count.
func New(size int) *Pool {
	return &Pool{
		n:     size,
		tasks: make(chan any, TaskChanSize),
	}
}

// Submit enqueues a task for the next free worker. It blocks if the
// queue is full.
func (p *Pool) Submit(task any) {
	p.tasks <- task
}

// Run starts a fixed pool of workers under t and blocks until t starts
// dying; it does not wait for the workers themselves, which t tracks and
// t.Wait() waits for. Each worker loops, running work once per task,
// until t starts dying.
func (p *Pool) Run(t *tomb.Tomb, work WorkerFunc) {
	log.Info().Int("workers", p.n).Msg("starting worker pool")
	for i := 0; i < p.n; i++ {
		t.Go(func() error {
			return p.worker(t, work)
		})
	}
	<-t.Dying()
}

func (p *Pool) worker(t *tomb.Tomb, work WorkerFunc) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker exiting")
				return err
			}
		}
	}
}
