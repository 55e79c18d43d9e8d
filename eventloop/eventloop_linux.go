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

//go:build linux

package eventloop

import (
	"context"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	libcollab "github.com/nabbar/sockunit/collab"
	librunner "github.com/nabbar/sockunit/runner"
)

// New builds a Loop and the runner.StartStop that pumps it (spec §6
// EventLoop). Call Run via the returned StartStop; WatchRead/ArmTimer/
// WatchPid are safe to call from any goroutine once Start has been invoked.
func New() (*Loop, librunner.StartStop) {
	l := newLoop()

	stop := librunner.New(l.run, l.shutdown)
	return l, stop
}

func (l *Loop) start() error {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return os.NewSyscallError("pipe2", err)
	}
	l.wakeR, l.wakeW = fds[0], fds[1]
	return nil
}

func (l *Loop) wake() {
	if l.wakeW == 0 {
		return
	}
	_, _ = unix.Write(l.wakeW, []byte{0})
}

func (l *Loop) shutdown(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wake()
	return nil
}

// run is the pump goroutine body (spec §5: "single-threaded reactor"):
// poll(2) over every watched fd plus the self-pipe, run expired timers,
// drain callbacks enqueued by WatchPid reapers, repeat until ctx is done.
func (l *Loop) run(ctx context.Context) error {
	if err := l.start(); err != nil {
		return err
	}
	defer func() {
		_ = unix.Close(l.wakeR)
		_ = unix.Close(l.wakeW)
	}()

	for {
		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		timeoutMs := l.pollTimeoutMs()

		l.mu.Lock()
		pollfds := make([]unix.PollFd, 0, len(l.reads)+1)
		fdCallbacks := make(map[int]func(), len(l.reads))
		for fd, cb := range l.reads {
			pollfds = append(pollfds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
			fdCallbacks[fd] = cb
		}
		pollfds = append(pollfds, unix.PollFd{Fd: int32(l.wakeR), Events: unix.POLLIN})
		l.mu.Unlock()

		n, err := unix.Poll(pollfds, timeoutMs)
		if err != nil && err != unix.EINTR {
			return os.NewSyscallError("poll", err)
		}

		if n > 0 {
			var buf [64]byte
			for _, pfd := range pollfds {
				if pfd.Revents == 0 {
					continue
				}
				if int(pfd.Fd) == l.wakeR {
					for {
						if _, rerr := unix.Read(l.wakeR, buf[:]); rerr != nil {
							break
						}
					}
					continue
				}
				if cb, ok := fdCallbacks[int(pfd.Fd)]; ok {
					cb()
				}
			}
		}

		l.fireExpiredTimers()

		for _, fn := range l.drainPending() {
			fn()
		}
	}
}

func (l *Loop) pollTimeoutMs() int {
	deadline, ok := l.nextDeadline()
	if !ok {
		return 1000
	}
	d := time.Until(deadline)
	if d <= 0 {
		return 0
	}
	if ms := d.Milliseconds(); ms < 1000 {
		return int(ms) + 1
	}
	return 1000
}

func (l *Loop) WatchRead(fd int, onReady func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reads[fd] = onReady
	l.wake()
	return nil
}

func (l *Loop) Unwatch(fd int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.reads, fd)
	l.wake()
	return nil
}

// WatchPid subscribes onExit to pid's termination (spec §6). Reaping
// happens on a dedicated goroutine (wait4 blocks), but onExit always runs
// on the pump goroutine via enqueue.
func (l *Loop) WatchPid(pid int, onExit func(code int, signaled bool, signal os.Signal)) error {
	l.mu.Lock()
	l.nextID++
	gen := l.nextID
	l.pidWatches[pid] = gen
	l.mu.Unlock()

	go func() {
		var ws syscall.WaitStatus
		for {
			_, err := syscall.Wait4(pid, &ws, 0, nil)
			if err == syscall.EINTR {
				continue
			}
			break
		}

		l.mu.Lock()
		stillWatched := l.pidWatches[pid] == gen
		delete(l.pidWatches, pid)
		l.mu.Unlock()

		if !stillWatched {
			return
		}

		code := ws.ExitStatus()
		signaled := ws.Signaled()
		var sig os.Signal
		if signaled {
			sig = ws.Signal()
		}

		l.enqueue(func() { onExit(code, signaled, sig) })
	}()

	return nil
}

func (l *Loop) UnwatchPid(pid int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pidWatches, pid)
}

var _ libcollab.EventLoop = (*Loop)(nil)
