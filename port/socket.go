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

	libsockopt "github.com/nabbar/sockunit/sockopt"

	"golang.org/x/sys/unix"
)

func domainOf(f Family) int {
	switch f {
	case FamilyInet4:
		return unix.AF_INET
	case FamilyInet6:
		return unix.AF_INET6
	case FamilyNetlink:
		return unix.AF_NETLINK
	default:
		return unix.AF_UNIX
	}
}

func sockTypeOf(t SockType) int {
	switch t {
	case TypeDatagram:
		return unix.SOCK_DGRAM
	case TypeSeqPacket:
		return unix.SOCK_SEQPACKET
	case TypeRaw:
		return unix.SOCK_RAW
	default:
		return unix.SOCK_STREAM
	}
}

func sockaddrOf(a Address) (unix.Sockaddr, error) {
	switch a.Family {
	case FamilyInet4:
		var ip [4]byte
		copy(ip[:], a.IP.To4())
		return &unix.SockaddrInet4{Port: a.Port, Addr: ip}, nil
	case FamilyInet6:
		var ip [16]byte
		copy(ip[:], a.IP.To16())
		return &unix.SockaddrInet6{Port: a.Port, Addr: ip}, nil
	case FamilyNetlink:
		return &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: a.NetlinkGroups}, nil
	default:
		return &unix.SockaddrUnix{Name: a.Path}, nil
	}
}

// openSocket implements the Socket branch of PortSet.open() (spec §4.2):
// label (best-effort), socket(2), bind-time options, bind(2), listen(2) for
// stream/seqpacket, then OptionApplier.applySocket.
func openSocket(p *Port, ctx OpenContext, warn libsockopt.Warn) error {
	if ctx.Label != nil {
		if err := ctx.Label(labelPathOf(p.Addr), KindSocket); err != nil && err != unix.EPERM {
			return fmt.Errorf("port: socket label: %w", err)
		}
	}

	fd, err := unix.Socket(domainOf(p.Addr.Family), sockTypeOf(p.Addr.Type)|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("port: socket: %w", err)
	}

	if err := applyBindTimeOptions(fd, p.Addr.Family, ctx); err != nil {
		_ = unix.Close(fd)
		return err
	}

	sa, err := sockaddrOf(p.Addr)
	if err != nil {
		_ = unix.Close(fd)
		return fmt.Errorf("port: sockaddr: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return fmt.Errorf("port: bind: %w", err)
	}

	if p.Addr.Type.Acceptable() {
		backlog := ctx.Backlog
		if backlog <= 0 {
			backlog = unix.SOMAXCONN
		}
		if err := unix.Listen(fd, backlog); err != nil {
			_ = unix.Close(fd)
			return fmt.Errorf("port: listen: %w", err)
		}
	}

	if ctx.Applier != nil {
		_ = ctx.Applier.ApplySocket(fd, ctx.Options, p.Addr.Family == FamilyInet6, warn)
	}

	p.FD = fd
	return nil
}

func applyBindTimeOptions(fd int, fam Family, ctx OpenContext) error {
	if ctx.FreeBind {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_FREEBIND, 1); err != nil {
			return fmt.Errorf("port: IP_FREEBIND: %w", err)
		}
	}
	if ctx.Transparent {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TRANSPARENT, 1); err != nil {
			return fmt.Errorf("port: IP_TRANSPARENT: %w", err)
		}
	}
	if fam == FamilyInet6 && ctx.BindIPv6Only {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1); err != nil {
			return fmt.Errorf("port: IPV6_V6ONLY: %w", err)
		}
	}
	if ctx.ReusePort {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			return fmt.Errorf("port: SO_REUSEPORT: %w", err)
		}
	}
	if ctx.BindToDevice != "" {
		if err := unix.BindToDevice(fd, ctx.BindToDevice); err != nil {
			return fmt.Errorf("port: SO_BINDTODEVICE: %w", err)
		}
	}
	return nil
}

func labelPathOf(a Address) string {
	return a.Path
}
