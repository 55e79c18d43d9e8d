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

// Package atomic provides a small generic, lock-free value holder used for
// the single-writer/single-reader fields of the socket-unit state machine
// (control pid, armed timer deadline, accepted/open connection counters):
// fields that must never be protected by invariant 4/6 of spec §3 taking a
// mutex on the hot accept path.
package atomic

import "sync/atomic"

// Value is a generic atomic box around sync/atomic.Value.
type Value[T any] struct {
	v atomic.Value
	z T
}

// NewValue returns a Value holding the zero value of T.
func NewValue[T any]() *Value[T] {
	v := &Value[T]{}
	v.Store(v.z)
	return v
}

func (v *Value[T]) Load() T {
	x := v.v.Load()
	if x == nil {
		return v.z
	}
	return x.(T)
}

func (v *Value[T]) Store(val T) {
	v.v.Store(val)
}

// Swap atomically stores val and returns the previous value.
func (v *Value[T]) Swap(val T) T {
	old := v.Load()
	v.v.Store(val)
	return old
}

// Counter is a generic atomic integer counter (used for nAccepted/nConnections).
type Counter struct {
	n atomic.Int64
}

func (c *Counter) Add(delta int64) int64 { return c.n.Add(delta) }
func (c *Counter) Load() int64           { return c.n.Load() }
func (c *Counter) Store(v int64)         { c.n.Store(v) }

// CompareAndSwap atomically swaps old->new and reports success.
func (c *Counter) CompareAndSwap(old, new int64) bool {
	return c.n.CompareAndSwap(old, new)
}
