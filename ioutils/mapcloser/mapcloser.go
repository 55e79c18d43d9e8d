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

// Package mapcloser is a thread-safe, context-aware bag of io.Closer
// instances, used by a SocketUnit instance to track the listener fd(s),
// control-bus pipe and any StartPost-spawned helper handles so that
// StopPost/Dead can guarantee every handle acquired during a start is
// released, even on an abnormal StartPost failure. Trimmed from the
// teacher's ioutils/mapCloser package: same Add/Get/Clean/Close contract,
// backed by a plain mutex-guarded map instead of the teacher's generic
// atomic context.Config map.
package mapcloser

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Closer manages a set of io.Closer instances and closes them all when its
// context ends or Close is called explicitly.
type Closer interface {
	Add(clo ...io.Closer)
	Get() []io.Closer
	Len() int
	Clean()
	Clone() Closer
	Close() error
}

type closer struct {
	mu     sync.Mutex
	set    map[uint64]io.Closer
	next   uint64
	closed bool
	cancel context.CancelFunc
}

// New builds a Closer bound to ctx: when ctx is cancelled the bag closes
// every registered Closer automatically.
func New(ctx context.Context) Closer {
	cctx, cancel := context.WithCancel(ctx)

	c := &closer{
		set:    make(map[uint64]io.Closer),
		cancel: cancel,
	}

	go func() {
		<-cctx.Done()
		_ = c.Close()
	}()

	return c
}

func (o *closer) Add(clo ...io.Closer) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	for _, c := range clo {
		if c == nil {
			continue
		}
		o.set[o.next] = c
		o.next++
	}
}

func (o *closer) Get() []io.Closer {
	o.mu.Lock()
	defer o.mu.Unlock()

	res := make([]io.Closer, 0, len(o.set))
	for _, c := range o.set {
		res = append(res, c)
	}
	return res
}

func (o *closer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.set)
}

func (o *closer) Clean() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.set = make(map[uint64]io.Closer)
	o.next = 0
}

func (o *closer) Clone() Closer {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}

	n := &closer{
		set:    make(map[uint64]io.Closer, len(o.set)),
		next:   o.next,
		cancel: o.cancel,
	}
	for k, v := range o.set {
		n.set[k] = v
	}
	return n
}

func (o *closer) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return fmt.Errorf("mapcloser: already closed")
	}
	o.closed = true
	set := o.set
	o.set = nil
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}

	var errs []string
	for _, c := range set {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, ", "))
	}
	return nil
}
