package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/som/vm"
)

// ErrWorkerStopped is answered by Do once the worker has been stopped.
var ErrWorkerStopped = errors.New("vm worker stopped")

// pending jobs accepted before Do blocks on submission
const jobQueue = 64

type job struct {
	run   func(*vm.Universe) interface{}
	reply chan outcome
}

type outcome struct {
	value interface{}
	err   error
}

// VMWorker owns a universe and runs every job against it on one goroutine,
// in submission order. The interpreter keeps its state in the universe, so
// evaluation requests and editor queries all go through Do.
type VMWorker struct {
	u    *vm.Universe
	jobs chan job
	done chan struct{}
	once sync.Once
}

// NewVMWorker starts a worker for u.
func NewVMWorker(u *vm.Universe) *VMWorker {
	w := &VMWorker{
		u:    u,
		jobs: make(chan job, jobQueue),
		done: make(chan struct{}),
	}
	go w.serve()
	return w
}

func (w *VMWorker) serve() {
	for {
		select {
		case j := <-w.jobs:
			j.reply <- w.run(j.run)
		case <-w.done:
			return
		}
	}
}

// run turns a panic inside fn into the job's error so one bad request
// does not take the worker down.
func (w *VMWorker) run(fn func(*vm.Universe) interface{}) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: fmt.Errorf("%v", r)}
		}
	}()
	return outcome{value: fn(w.u)}
}

// Do runs fn on the worker goroutine and waits for its value.
func (w *VMWorker) Do(fn func(*vm.Universe) interface{}) (interface{}, error) {
	j := job{run: fn, reply: make(chan outcome, 1)}
	select {
	case w.jobs <- j:
	case <-w.done:
		return nil, ErrWorkerStopped
	}
	select {
	case o := <-j.reply:
		return o.value, o.err
	case <-w.done:
		return nil, ErrWorkerStopped
	}
}

// Stop ends the worker. Jobs still queued are dropped. Calling Stop again
// has no effect.
func (w *VMWorker) Stop() {
	w.once.Do(func() { close(w.done) })
}

// Universe returns the worker's universe. Outside a job only immutable
// metadata may be read from it.
func (w *VMWorker) Universe() *vm.Universe {
	return w.u
}
