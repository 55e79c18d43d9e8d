/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package runner wraps a blocking start/stop pair with the lifecycle every
// SocketUnit-driving goroutine needs (the EventLoop's dispatch pump, a
// ProcessSpawner's reaper): Start/Stop/Restart/IsRunning/Uptime. Modeled on
// the teacher's runner/startStop package, same contract, rewritten on a
// per-generation sync.Once so a natural return from the start function and
// an explicit Stop both converge on a single stop-function invocation.
package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// StartStop supervises one instance of a start/stop function pair at a
// time; calling Start again stops whatever generation is currently running.
type StartStop interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	IsRunning() bool
	Uptime() time.Duration
	ErrorsLast() error
	ErrorsList() []error
}

type generation struct {
	cancel    context.CancelFunc
	startedAt time.Time
	once      sync.Once
	stopErr   error
}

type runner struct {
	fnStart func(context.Context) error
	fnStop  func(context.Context) error

	mu      sync.Mutex
	gen     atomic.Pointer[generation]
	running atomic.Bool

	errMu sync.Mutex
	errs  []error
}

// New builds a StartStop around the given start/stop functions. Either may
// be nil, in which case that phase is a no-op.
func New(start, stop func(ctx context.Context) error) StartStop {
	return &runner{fnStart: start, fnStop: stop}
}

func (r *runner) addErr(err error) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *runner) ErrorsLast() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func (r *runner) ErrorsList() []error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

func (r *runner) IsRunning() bool {
	return r.running.Load()
}

func (r *runner) Uptime() time.Duration {
	if !r.running.Load() {
		return 0
	}
	g := r.gen.Load()
	if g == nil {
		return 0
	}
	return time.Since(g.startedAt)
}

func (r *runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old := r.gen.Load(); old != nil {
		r.stopGeneration(old, ctx)
	}

	cctx, cancel := context.WithCancel(ctx)
	g := &generation{cancel: cancel, startedAt: time.Now()}
	r.gen.Store(g)
	r.running.Store(true)

	go func() {
		var err error
		if r.fnStart != nil {
			err = r.fnStart(cctx)
		}
		if err != nil {
			r.addErr(err)
		}
		r.stopGeneration(g, context.Background())
	}()

	return nil
}

func (r *runner) Stop(ctx context.Context) error {
	g := r.gen.Load()
	if g == nil {
		return nil
	}
	return r.stopGeneration(g, ctx)
}

func (r *runner) Restart(ctx context.Context) error {
	_ = r.Stop(ctx)
	return r.Start(ctx)
}

// stopGeneration cancels g's context and invokes the stop function exactly
// once for that generation, regardless of whether it was reached from an
// explicit Stop() or from the start function returning on its own.
func (r *runner) stopGeneration(g *generation, ctx context.Context) error {
	g.once.Do(func() {
		g.cancel()

		if r.fnStop != nil {
			g.stopErr = r.fnStop(ctx)
			if g.stopErr != nil {
				r.addErr(g.stopErr)
			}
		}

		if r.gen.CompareAndSwap(g, nil) {
			r.running.Store(false)
		}
	})
	return g.stopErr
}
