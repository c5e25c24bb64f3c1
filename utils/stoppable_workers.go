// Package utils contains small helpers shared by the pipeline packages.
package utils

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
)

// StoppableWorkers is a collection of goroutines that can be stopped at a later time. Errors
// returned by the workers are collected and handed back by Stop.
type StoppableWorkers interface {
	AddWorkers(...func(context.Context) error)
	Stop() error
	Context() context.Context
}

// stoppableWorkersImpl is only handed out through the interface so its WaitGroup is never copied.
type stoppableWorkersImpl struct {
	mu                      sync.Mutex
	cancelCtx               context.Context
	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup

	errMu sync.Mutex
	err   error
}

// NewStoppableWorkers runs the functions in separate goroutines derived from parent. They can
// be stopped later.
func NewStoppableWorkers(parent context.Context, funcs ...func(context.Context) error) StoppableWorkers {
	cancelCtx, cancelFunc := context.WithCancel(parent)
	workers := &stoppableWorkersImpl{cancelCtx: cancelCtx, cancelFunc: cancelFunc}
	workers.AddWorkers(funcs...)
	return workers
}

// AddWorkers starts up additional goroutines for each function passed in. If you call this after
// calling Stop(), it will return immediately without starting any new goroutines.
func (sw *stoppableWorkersImpl) AddWorkers(funcs ...func(context.Context) error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.cancelCtx.Err() != nil {
		return
	}

	sw.activeBackgroundWorkers.Add(len(funcs))
	for _, f := range funcs {
		goutils.PanicCapturingGo(func() {
			defer sw.activeBackgroundWorkers.Done()
			if err := f(sw.cancelCtx); err != nil {
				sw.errMu.Lock()
				sw.err = multierr.Append(sw.err, err)
				sw.errMu.Unlock()
			}
		})
	}
}

// Stop shuts down all the goroutines we started up and returns what they reported.
func (sw *stoppableWorkersImpl) Stop() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.cancelFunc()
	sw.activeBackgroundWorkers.Wait()

	sw.errMu.Lock()
	defer sw.errMu.Unlock()
	return sw.err
}

// Context gets the context the workers are checking on.
func (sw *stoppableWorkersImpl) Context() context.Context {
	return sw.cancelCtx
}
