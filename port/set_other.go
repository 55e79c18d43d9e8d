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

package port

import (
	"fmt"

	libcollab "github.com/nabbar/sockunit/collab"
)

// New is unavailable outside Linux: mkfifo/mq_open/SMACK xattrs and several
// bind-time socket options this package relies on (IP_FREEBIND,
// IP_TRANSPARENT, SO_BINDTODEVICE) have no portable equivalent, and this
// engine's domain (systemd-style socket activation) is Linux-only anyway.
func New(ports ...*Port) Set {
	return unsupportedSet{}
}

type unsupportedSet struct{}

func (unsupportedSet) Open(ctx OpenContext) error {
	return fmt.Errorf("port: not supported on this platform")
}
func (unsupportedSet) Close()                                    {}
func (unsupportedSet) Watch(libcollab.EventLoop, func(*Port)) error {
	return fmt.Errorf("port: not supported on this platform")
}
func (unsupportedSet) Unwatch(libcollab.EventLoop) {}
func (unsupportedSet) CollectFDs() []int           { return nil }
func (unsupportedSet) DistributeFDs([]FDEntry) error {
	return fmt.Errorf("port: not supported on this platform")
}
func (unsupportedSet) Ports() []*Port { return nil }
