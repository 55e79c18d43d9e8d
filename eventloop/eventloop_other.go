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

//go:build !linux

package eventloop

import (
	"context"
	"fmt"
	"os"

	libcollab "github.com/nabbar/sockunit/collab"
	librunner "github.com/nabbar/sockunit/runner"
)

// New is unavailable outside Linux: the reactor relies on poll(2) semantics
// over arbitrary fd kinds (sockets, pidfd-less child reaping via wait4) the
// way this package wires them together on Linux. A Loop is still returned so
// callers can type-assert against collab.EventLoop, but run refuses to pump.
func New() (*Loop, librunner.StartStop) {
	l := newLoop()
	stop := librunner.New(l.run, l.shutdown)
	return l, stop
}

func (l *Loop) shutdown(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

func (l *Loop) run(ctx context.Context) error {
	return fmt.Errorf("eventloop: not supported on this platform")
}

func (l *Loop) WatchRead(fd int, onReady func()) error {
	return fmt.Errorf("eventloop: not supported on this platform")
}

func (l *Loop) Unwatch(fd int) error {
	return fmt.Errorf("eventloop: not supported on this platform")
}

func (l *Loop) WatchPid(pid int, onExit func(code int, signaled bool, signal os.Signal)) error {
	return fmt.Errorf("eventloop: not supported on this platform")
}

func (l *Loop) UnwatchPid(pid int) {}

var _ libcollab.EventLoop = (*Loop)(nil)
