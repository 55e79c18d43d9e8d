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

package sockopt

import (
	"golang.org/x/sys/unix"
)

type applier struct{}

// New returns the default Applier, backed directly by golang.org/x/sys/unix.
func New() Applier {
	return applier{}
}

func (applier) ApplySocket(fd int, opt Options, isIPv6 bool, warn Warn) error {
	report := func(name string, err error) {
		if err != nil && warn != nil {
			warn(name, err)
		}
	}

	if opt.KeepAlive {
		report("keepAlive", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1))
	}
	if opt.Broadcast {
		report("broadcast", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_BROADCAST, 1))
	}
	if opt.PassCredentials {
		report("passCredentials", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_PASSCRED, 1))
	}
	if opt.PassSecurity {
		report("passSecurity", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_PASSSEC, 1))
	}
	if opt.Priority != 0 {
		report("priority", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_PRIORITY, opt.Priority))
	}
	if opt.ReceiveBuffer > 0 {
		report("receiveBuffer", setBufferForceFallback(fd, unix.SO_RCVBUFFORCE, unix.SO_RCVBUF, opt.ReceiveBuffer))
	}
	if opt.SendBuffer > 0 {
		report("sendBuffer", setBufferForceFallback(fd, unix.SO_SNDBUFFORCE, unix.SO_SNDBUF, opt.SendBuffer))
	}
	if opt.Mark != 0 {
		report("mark", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_MARK, opt.Mark))
	}
	if opt.IPTOS != 0 {
		report("ipTos", unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TOS, opt.IPTOS))
	}
	if opt.ReusePort {
		report("reusePort", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1))
	}
	if opt.IPTTL != 0 {
		report("ipTtl", setIPTTL(fd, opt.IPTTL, isIPv6))
	}
	if opt.TCPCongestion != "" {
		report("tcpCongestion", unix.SetsockoptString(fd, unix.IPPROTO_TCP, unix.TCP_CONGESTION, opt.TCPCongestion))
	}
	if opt.SmackLabelIPIn != "" {
		report("smackLabelIPIn", unix.Fsetxattr(fd, "security.SMACK64IPIN", []byte(opt.SmackLabelIPIn), 0))
	}
	if opt.SmackLabelIPOut != "" {
		report("smackLabelIPOut", unix.Fsetxattr(fd, "security.SMACK64IPOUT", []byte(opt.SmackLabelIPOut), 0))
	}

	return nil
}

func (applier) ApplyFifo(fd int, opt Options, warn Warn) error {
	report := func(name string, err error) {
		if err != nil && warn != nil {
			warn(name, err)
		}
	}

	if opt.PipeSize > 0 {
		_, err := unix.FcntlInt(uintptr(fd), unix.F_SETPIPE_SZ, opt.PipeSize)
		report("pipeSize", err)
	}
	if opt.SmackLabel != "" {
		report("smackLabel", unix.Fsetxattr(fd, "security.SMACK64", []byte(opt.SmackLabel), 0))
	}

	return nil
}

// setBufferForceFallback tries the *FORCE variant (which bypasses
// net.core.{r,w}mem_max) then falls back to the plain option (spec §4.3).
func setBufferForceFallback(fd, forceOpt, plainOpt, value int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, forceOpt, value); err == nil {
		return nil
	}
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, plainOpt, value)
}

// setIPTTL tries IP_TTL, then IPV6_UNICAST_HOPS when the port is IPv6;
// warns only when every attempt fails (spec §4.3).
func setIPTTL(fd, ttl int, isIPv6 bool) error {
	err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TTL, ttl)
	if err == nil {
		return nil
	}
	if !isIPv6 {
		return err
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_UNICAST_HOPS, ttl)
}
