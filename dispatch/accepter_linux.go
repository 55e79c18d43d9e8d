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

package dispatch

import (
	"net"

	"golang.org/x/sys/unix"
)

type accepter struct{}

// NewAccepter returns the default Accepter: non-blocking accept4 with
// SOCK_NONBLOCK|SOCK_CLOEXEC, retried on EINTR (spec §4.1 step 1).
func NewAccepter() Accepter {
	return accepter{}
}

func (accepter) Accept(fd int) (int, net.Addr, net.Addr, error) {
	for {
		cfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, nil, nil, err
		}

		local, lerr := unix.Getsockname(cfd)
		remote := sa

		var la, ra net.Addr
		if lerr == nil {
			la = addrOf(local)
		}
		ra = addrOf(remote)
		return cfd, la, ra, nil
	}
}

func addrOf(sa unix.Sockaddr) net.Addr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}
	case *unix.SockaddrUnix:
		return &net.UnixAddr{Name: v.Name, Net: "unix"}
	default:
		return nil
	}
}

// PeerCredOf reads SO_PEERCRED for a UNIX domain connection (spec §4.1:
// "UNIX: via SO_PEERCRED").
func PeerCredOf(cfd int) (PeerCred, error) {
	cred, err := unix.GetsockoptUcred(cfd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return PeerCred{}, err
	}
	return PeerCred{Pid: int(cred.Pid), Uid: int(cred.Uid)}, nil
}
