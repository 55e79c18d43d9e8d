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

// Package semaphore bounds the number of concurrently dispatched connections
// of an Accept=yes Port (spec §4.1, MaxConnections). It is a trimmed
// reimplementation of the teacher's semaphore/sem package: a Sem embeds
// context.Context so a caller can select on it directly, and switches
// between a golang.org/x/sync/semaphore.Weighted backing (bounded case) and
// a sync.WaitGroup backing (MaxConnections <= 0, unbounded case).
package semaphore

import (
	"context"
	"runtime"
	"sync"

	xsem "golang.org/x/sync/semaphore"
)

// Sem is a cancellable worker gate. The zero value is not usable; build one
// with New.
type Sem interface {
	context.Context

	// New derives an independent Sem with the same weight, bound to this
	// Sem's context.
	New() Sem

	// Weighted returns the configured limit, or -1 for an unbounded Sem.
	Weighted() int64

	// NewWorker blocks until a slot is available or the context ends.
	NewWorker() error

	// NewWorkerTry acquires a slot without blocking.
	NewWorkerTry() bool

	// DeferWorker releases a slot acquired via NewWorker/NewWorkerTry.
	DeferWorker()

	// WaitAll blocks until every outstanding worker has called DeferWorker.
	WaitAll() error

	// DeferMain cancels the Sem's context. Safe to call more than once.
	DeferMain()
}

// MaxSimultaneous is the default weight used when New is given n == 0: the
// number of logical CPUs, mirroring the teacher's GOMAXPROCS default.
func MaxSimultaneous() int {
	return runtime.GOMAXPROCS(0)
}

// SetSimultaneous clamps n into [1, MaxSimultaneous()].
func SetSimultaneous(n int64) int64 {
	max := int64(MaxSimultaneous())
	if n < 1 {
		return max
	}
	if n > max {
		return max
	}
	return n
}

// New builds a Sem bound to parent. n == 0 uses MaxSimultaneous(); n < 0
// builds an unbounded WaitGroup-backed Sem; n > 0 builds a weighted Sem
// capped at n.
func New(parent context.Context, n int64) Sem {
	ctx, cancel := context.WithCancel(parent)

	if n < 0 {
		return &wgSem{Context: ctx, cancel: cancel}
	}

	if n == 0 {
		n = int64(MaxSimultaneous())
	}

	return &weightedSem{
		Context:  ctx,
		cancel:   cancel,
		weight:   n,
		weighted: xsem.NewWeighted(n),
	}
}

type weightedSem struct {
	context.Context
	cancel   context.CancelFunc
	weight   int64
	weighted *xsem.Weighted
}

func (s *weightedSem) New() Sem {
	return New(s.Context, s.weight)
}

func (s *weightedSem) Weighted() int64 {
	return s.weight
}

func (s *weightedSem) NewWorker() error {
	return s.weighted.Acquire(s.Context, 1)
}

func (s *weightedSem) NewWorkerTry() bool {
	return s.weighted.TryAcquire(1)
}

func (s *weightedSem) DeferWorker() {
	s.weighted.Release(1)
}

func (s *weightedSem) WaitAll() error {
	if err := s.weighted.Acquire(s.Context, s.weight); err != nil {
		return err
	}
	s.weighted.Release(s.weight)
	return nil
}

func (s *weightedSem) DeferMain() {
	s.cancel()
}

type wgSem struct {
	context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (s *wgSem) New() Sem {
	return New(s.Context, -1)
}

func (s *wgSem) Weighted() int64 {
	return -1
}

func (s *wgSem) NewWorker() error {
	s.wg.Add(1)
	return nil
}

func (s *wgSem) NewWorkerTry() bool {
	s.wg.Add(1)
	return true
}

func (s *wgSem) DeferWorker() {
	s.wg.Done()
}

func (s *wgSem) WaitAll() error {
	s.wg.Wait()
	return nil
}

func (s *wgSem) DeferMain() {
	s.cancel()
}
