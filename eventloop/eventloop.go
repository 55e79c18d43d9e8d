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

// Package eventloop is this module's reference implementation of
// collab.EventLoop (SPEC_FULL.md §6): a single-threaded reactor pumped by
// poll(2), matching the engine's "one goroutine drives every SocketUnit"
// concurrency model. It is the default a caller wires a SocketUnit against;
// nothing prevents substituting another EventLoop.
package eventloop

import (
	"container/heap"
	"sync"
	"time"
)

// timerEntry is one scheduled ArmTimer callback, ordered by deadline.
type timerEntry struct {
	handle   uint64
	deadline time.Time
	fn       func()
	index    int
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Loop is the concrete EventLoop (spec §6). Every public method is safe to
// call from any goroutine; the callbacks it invokes (onReady/onExpire/
// onExit) always run on the loop's own pump goroutine, preserving the
// engine's single-threaded execution model.
type Loop struct {
	mu sync.Mutex

	reads      map[int]func()
	timers     timerHeap
	byTmr      map[uint64]*timerEntry
	pidWatches map[int]uint64
	nextID     uint64

	pending []func()

	wakeR int
	wakeW int

	closed bool
}

func newLoop() *Loop {
	return &Loop{
		reads:      map[int]func(){},
		byTmr:      map[uint64]*timerEntry{},
		pidWatches: map[int]uint64{},
	}
}

// enqueue schedules fn to run on the pump goroutine at the next wakeup and
// nudges Poll to return immediately via the self-pipe.
func (l *Loop) enqueue(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()
	l.wake()
}

func (l *Loop) drainPending() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil
	}
	out := l.pending
	l.pending = nil
	return out
}

func (l *Loop) ArmTimer(d time.Duration, onExpire func()) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	e := &timerEntry{handle: id, deadline: time.Now().Add(d), fn: onExpire}
	heap.Push(&l.timers, e)
	l.byTmr[id] = e

	l.wake()
	return id
}

func (l *Loop) DisarmTimer(handle uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byTmr[handle]
	if !ok {
		return
	}
	heap.Remove(&l.timers, e.index)
	delete(l.byTmr, handle)
}

func (l *Loop) Remaining(handle uint64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byTmr[handle]
	if !ok {
		return 0
	}
	if d := time.Until(e.deadline); d > 0 {
		return d
	}
	return 0
}

func (l *Loop) Now() int64 {
	return time.Now().UnixMicro()
}

// nextDeadline reports the soonest-expiring armed timer, or zero Time if
// none are armed.
func (l *Loop) nextDeadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 {
		return time.Time{}, false
	}
	return l.timers[0].deadline, true
}

// fireExpiredTimers pops and runs every timer whose deadline has passed.
func (l *Loop) fireExpiredTimers() {
	for {
		l.mu.Lock()
		if len(l.timers) == 0 || l.timers[0].deadline.After(time.Now()) {
			l.mu.Unlock()
			return
		}
		e := heap.Pop(&l.timers).(*timerEntry)
		delete(l.byTmr, e.handle)
		l.mu.Unlock()
		e.fn()
	}
}
