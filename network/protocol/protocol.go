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

// Package protocol enumerates the socket families/types the engine can bind
// (spec §3 Port.address, §6 Listen* manifest keys). It follows the same
// String/(Un)MarshalText/viper-hook shape as the teacher's network/protocol
// package, extended with the socket kinds a generic dialer never needs
// (seqpacket, netlink) because this engine also owns listen(2), not just
// dial(2).
package protocol

import (
	"fmt"
	"reflect"
	"strings"

	libmap "github.com/mitchellh/mapstructure"
	"golang.org/x/sys/unix"
)

type NetworkProtocol uint8

const (
	Unknown NetworkProtocol = iota
	TCP
	TCP4
	TCP6
	UDP
	UDP4
	UDP6
	Unix
	UnixGram
	UnixPacket
	Netlink
)

var names = map[NetworkProtocol]string{
	Unknown:    "",
	TCP:        "tcp",
	TCP4:       "tcp4",
	TCP6:       "tcp6",
	UDP:        "udp",
	UDP4:       "udp4",
	UDP6:       "udp6",
	Unix:       "unix",
	UnixGram:   "unixgram",
	UnixPacket: "unixpacket",
	Netlink:    "netlink",
}

func Parse(s string) (NetworkProtocol, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, v := range names {
		if v == s && k != Unknown {
			return k, nil
		}
	}
	return Unknown, fmt.Errorf("protocol: unknown network %q", s)
}

func (n NetworkProtocol) String() string {
	if s, ok := names[n]; ok && n != Unknown {
		return s
	}
	return "unknown"
}

// SockType returns the socket(2) SOCK_* constant this protocol binds with.
func (n NetworkProtocol) SockType() int {
	switch n {
	case TCP, TCP4, TCP6, Unix, UnixPacket:
		return unix.SOCK_STREAM
	case UDP, UDP4, UDP6, UnixGram:
		return unix.SOCK_DGRAM
	case Netlink:
		return unix.SOCK_RAW
	default:
		return 0
	}
}

// CanAccept reports whether sockets of this protocol support accept(2) —
// the acceptance condition of spec invariant 5 (`Accept=yes` requires
// stream-or-seqpacket).
func (n NetworkProtocol) CanAccept() bool {
	switch n {
	case TCP, TCP4, TCP6, Unix, UnixPacket:
		return true
	default:
		return false
	}
}

func (n NetworkProtocol) IsUnixFamily() bool {
	switch n {
	case Unix, UnixGram, UnixPacket:
		return true
	default:
		return false
	}
}

func (n *NetworkProtocol) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*n = p
	return nil
}

func (n NetworkProtocol) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// DecodeHook lets viper/mapstructure decode a manifest Network=... string
// field directly into a NetworkProtocol, mirroring the teacher's
// file/perm.ViperDecoderHook pattern.
func DecodeHook() libmap.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		var zero NetworkProtocol

		if from.Kind() != reflect.String || to != reflect.TypeOf(zero) {
			return data, nil
		}

		return Parse(data.(string))
	}
}
