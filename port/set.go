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

package port

import (
	"fmt"
	"sync"
	"syscall"

	libcollab "github.com/nabbar/sockunit/collab"
	libfd "github.com/nabbar/sockunit/ioutils/filedescriptor"
)

type set struct {
	mu    sync.Mutex
	ports []*Port
}

// New returns a Set over ports, in declaration order (spec §3: "ordered
// sequence of Port").
func New(ports ...*Port) Set {
	return &set{ports: ports}
}

func (s *set) Ports() []*Port {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]*Port, len(s.ports))
	copy(cp, s.ports)
	return cp
}

// Open implements PortSet.open() (spec §4.2): ports already open (fd ≥ 0)
// are skipped; on failure at any index every port opened during this call
// is closed again (rollback to the pre-open state).
func (s *set) Open(ctx OpenContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.FDLimit > 0 {
		_, _, _ = libfd.SystemFileDescriptor(ctx.FDLimit)
	}

	opened := make([]*Port, 0, len(s.ports))
	warn := func(string, error) {}

	for _, p := range s.ports {
		if p.FD >= 0 {
			continue
		}

		var err error
		switch p.Kind {
		case KindSocket:
			err = openSocket(p, ctx, warn)
		case KindFifo:
			err = openFifo(p, ctx, warn)
		case KindSpecial:
			err = openSpecial(p)
		case KindMessageQueue:
			err = openMessageQueue(p, ctx)
		default:
			err = fmt.Errorf("port: unknown kind %v", p.Kind)
		}

		if err != nil {
			for _, o := range opened {
				closePort(o)
			}
			return err
		}
		opened = append(opened, p)
	}

	return nil
}

// Close implements PortSet.close() (spec §4.2): unwatches and closes every
// fd but never removes filesystem artifacts — a restart reuses the node.
func (s *set) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.ports {
		closePort(p)
	}
}

func closePort(p *Port) {
	if p.FD >= 0 {
		_ = syscall.Close(p.FD)
		p.FD = -1
	}
	p.watched = false
	p.watch = 0
}

// Watch implements PortSet.watch() (spec §4.2): arms every open port for
// EV_READ; onReady is handed the specific Port so the caller (SocketUnit)
// can dispatch on its accept discipline.
func (s *set) Watch(loop libcollab.EventLoop, onReady func(p *Port)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.ports {
		if p.FD < 0 || p.watched {
			continue
		}
		port := p
		if err := loop.WatchRead(port.FD, func() { onReady(port) }); err != nil {
			return fmt.Errorf("port: watch fd %d: %w", port.FD, err)
		}
		port.watched = true
	}
	return nil
}

// Unwatch implements PortSet.unwatch() (spec §4.2).
func (s *set) Unwatch(loop libcollab.EventLoop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.ports {
		if p.watched {
			_ = loop.Unwatch(p.FD)
			p.watched = false
		}
	}
}

// CollectFDs implements PortSet.collectFds() for hand-off across
// re-execution (StateSerializer consumes this list).
func (s *set) CollectFDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	fds := make([]int, 0, len(s.ports))
	for _, p := range s.ports {
		if p.FD >= 0 {
			fds = append(fds, p.FD)
		}
	}
	return fds
}

// DistributeFDs implements PortSet.distributeFds(bag) — re-adopts inherited
// descriptors after re-execution (spec §4.5, §9), matching each bag entry
// to a Port structurally (kind + address) rather than positionally, so a
// reordered or partially-stale bag can't alias a descriptor onto the wrong
// Port. Ports already open (fd >= 0) are left untouched and never consume a
// bag entry.
func (s *set) DistributeFDs(bag []FDEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := make([]bool, len(bag))
	for _, p := range s.ports {
		if p.FD >= 0 {
			continue
		}

		matched := false
		for i, e := range bag {
			if used[i] || e.Kind != p.Kind || !e.Addr.Equal(p.Addr) {
				continue
			}
			p.FD = e.FD
			used[i] = true
			matched = true
			break
		}
		if !matched {
			return fmt.Errorf("port: distributeFds: no inherited descriptor matches %s port %q", p.Kind, p.Addr.Path)
		}
	}
	return nil
}
