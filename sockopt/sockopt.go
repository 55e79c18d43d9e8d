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

// Package sockopt is component C of the engine (SPEC_FULL.md §A): applies
// the manifest's post-creation socket/FIFO options, tolerating per-option
// failure the way systemd's socket unit does — a setsockopt that fails is a
// warning, never a reason to refuse the listener. The Linux implementation
// (sockopt_linux.go) is grounded directly in golang.org/x/sys/unix; other
// platforms get a no-op Applier (sockopt_other.go) since SMACK labelling and
// several of these options (F_SETPIPE_SZ, SO_MARK, SO_PASSCRED) are Linux
// kernel features this engine's domain has no portable equivalent for.
package sockopt

// Options is the subset of the manifest surface (spec §6) that
// OptionApplier is responsible for; bind-time options (BindIPv6Only,
// BindToDevice, FreeBind, Transparent, ReusePort's bind-phase use) are
// applied by PortSet itself before listen(2), not here.
type Options struct {
	KeepAlive       bool
	Broadcast       bool
	PassCredentials bool
	PassSecurity    bool
	Priority        int
	ReceiveBuffer   int
	SendBuffer      int
	Mark            int
	IPTOS           int
	IPTTL           int
	ReusePort       bool
	TCPCongestion   string
	PipeSize        int
	SmackLabel      string
	SmackLabelIPIn  string
	SmackLabelIPOut string
}

// Warn receives a non-fatal failure for a named option.
type Warn func(option string, err error)

// Applier applies Options to already-created descriptors.
type Applier interface {
	ApplySocket(fd int, opt Options, isIPv6 bool, warn Warn) error
	ApplyFifo(fd int, opt Options, warn Warn) error
}
