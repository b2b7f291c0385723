// Package loop runs closures one at a time on a dedicated goroutine.
// A workspace owns one Loop; everything that touches its store goes through it.
package loop

import (
	"errors"
	"fmt"
	"sync"

	"github.com/plc-visualizer/twin-editor/internal/logs"
)

// ErrClosed is returned when posting to a closed loop.
var ErrClosed = errors.New("loop closed")

// Poster accepts work for later execution.
type Poster interface {
	Post(fn func()) bool
}

// Loop is a single-consumer task queue.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// New starts a loop with the given queue depth.
func New(depth int) *Loop {
	if depth < 1 {
		depth = 64
	}
	l := &Loop{
		tasks: make(chan func(), depth),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logs.For("loop").Errorf("[Loop] PANIC recovered: %v", r)
		}
	}()
	fn()
}

// Post queues fn without waiting. It reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Do runs fn on the loop and waits for it. Calling Do from inside a task deadlocks.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	var panicked any
	ok := l.Post(func() {
		defer close(finished)
		defer func() { panicked = recover() }()
		fn()
	})
	if !ok {
		return ErrClosed
	}
	select {
	case <-finished:
	case <-l.done:
		return ErrClosed
	}
	if panicked != nil {
		return fmt.Errorf("task panicked: %v", panicked)
	}
	return nil
}

// Close stops the loop after the running task. Queued tasks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}
