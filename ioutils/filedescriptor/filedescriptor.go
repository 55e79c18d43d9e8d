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

// Package filedescriptor manages the process-wide RLIMIT_NOFILE ceiling and
// the per-fd flags (close-on-exec, non-blocking) that PortSet applies to
// every socket it creates (spec §4.2) and that re-exec preserves or clears
// across StateSerializer's handoff (spec §7). Trimmed from the teacher's
// ioutils/fileDescriptor package down to the Unix path: the unit engine has
// no Windows surface (unix sockets, mkfifo, SO_PEERCRED, epoll are all
// POSIX-only), so the teacher's maxstdio/Windows branch is dropped rather
// than adapted — see DESIGN.md.
package filedescriptor

// SystemFileDescriptor queries or raises the process RLIMIT_NOFILE.
// newValue <= 0 queries the current limits without modification; a larger
// newValue attempts to raise the soft (and if needed hard) limit.
func SystemFileDescriptor(newValue int) (current int, max int, err error) {
	return systemFileDescriptor(newValue)
}
