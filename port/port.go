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

// Package port is component B of the engine (SPEC_FULL.md §A): it owns the
// listening/endpoint descriptors a SocketUnit activates — sockets, FIFOs,
// special device files and POSIX message queues — and is responsible for
// their construction, option application (delegated to sockopt), watch
// registration and close discipline.
package port

import (
	"crypto/tls"
	"net"

	libcert "github.com/nabbar/sockunit/certificates"
	libcollab "github.com/nabbar/sockunit/collab"
	libperm "github.com/nabbar/sockunit/file/perm"
	libsockopt "github.com/nabbar/sockunit/sockopt"
)

// Set owns the ordered sequence of Ports a SocketUnit activates (spec §4.2).
type Set interface {
	Open(ctx OpenContext) error
	Close()
	Watch(loop libcollab.EventLoop, onReady func(p *Port)) error
	Unwatch(loop libcollab.EventLoop)
	CollectFDs() []int
	DistributeFDs(bag []FDEntry) error
	Ports() []*Port
}

// FDEntry pairs one inherited descriptor with the Port identity
// distributeFds() matches it against (spec §4.5, §9: structural re-adoption
// — family/type/address for sockets, path for fifo/special/mq — prevents fd
// aliasing across a re-execution). The caller (the re-exec harness that
// owns the raw FdBag) is responsible for pairing each fd with the kind/
// address it was opened for.
type FDEntry struct {
	FD   int
	Kind Kind
	Addr Address
}

// Kind is the endpoint flavour a Port wraps (spec §3).
type Kind uint8

const (
	KindSocket Kind = iota
	KindFifo
	KindSpecial
	KindMessageQueue
)

func (k Kind) String() string {
	switch k {
	case KindSocket:
		return "socket"
	case KindFifo:
		return "fifo"
	case KindSpecial:
		return "special"
	case KindMessageQueue:
		return "messagequeue"
	default:
		return "unknown"
	}
}

// Family is the socket address family for a Socket-kind port.
type Family uint8

const (
	FamilyUnix Family = iota
	FamilyInet4
	FamilyInet6
	FamilyNetlink
)

// SockType is the socket(2) type for a Socket-kind port.
type SockType uint8

const (
	TypeStream SockType = iota
	TypeDatagram
	TypeSeqPacket
	TypeRaw
)

func (t SockType) String() string {
	switch t {
	case TypeStream:
		return "stream"
	case TypeDatagram:
		return "dgram"
	case TypeSeqPacket:
		return "seqpacket"
	case TypeRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Acceptable reports whether a socket of this type supports accept(2), per
// invariant 5 ("accept ⇒ every Port.kind == Socket and the address is
// stream-or-seqpacket").
func (t SockType) Acceptable() bool {
	return t == TypeStream || t == TypeSeqPacket
}

// Address is the sockaddr union / filesystem path a Port binds to.
type Address struct {
	Family Family
	Type   SockType

	// Path addresses a unix socket, a fifo, a special file or a message
	// queue name (leading '/' per mq_open(3) convention).
	Path string

	IP   net.IP
	Port int

	NetlinkProtocol int
	NetlinkGroups   uint32
}

// Equal reports whether a and b address the same endpoint, comparing only
// the fields meaningful to that family (spec §4.5, §9 fd re-adoption).
func (a Address) Equal(b Address) bool {
	if a.Family != b.Family || a.Type != b.Type {
		return false
	}
	switch a.Family {
	case FamilyInet4, FamilyInet6:
		return a.IP.Equal(b.IP) && a.Port == b.Port
	case FamilyNetlink:
		return a.NetlinkProtocol == b.NetlinkProtocol && a.NetlinkGroups == b.NetlinkGroups
	default:
		return a.Path == b.Path
	}
}

// Port is one endpoint (spec §3).
type Port struct {
	Kind    Kind
	Addr    Address
	Accept  bool
	FD      int
	watch   uint64
	watched bool

	// TLS, when non-nil, is handed to the instantiated ServiceUnit as
	// SetSocketFD's backref (SPEC_FULL.md §D extension): a stream listener
	// with a TLS block wraps each accepted connection fd under this config
	// rather than leaving it to speak cleartext.
	TLS *tls.Config
}

// NewPort returns a Port in the closed state (FD == -1).
func NewPort(kind Kind, addr Address, accept bool) *Port {
	return &Port{Kind: kind, Addr: addr, Accept: accept, FD: -1}
}

// ApplyTLS resolves cfg into p.TLS (SPEC_FULL.md §D), a no-op when cfg is
// disabled. Whatever builds a Set from manifest data calls this once per
// stream Port that carries a TLS block.
func ApplyTLS(p *Port, cfg libcert.Config) error {
	t, err := cfg.TLS()
	if err != nil {
		return err
	}
	p.TLS = t
	return nil
}

// OpenContext bundles everything PortSet.open() needs beyond the ports
// themselves (spec §4.2): mode/ownership, backlog, bind-time socket flags
// and the OptionApplier each newly-opened descriptor is handed to.
type OpenContext struct {
	DirectoryMode libperm.Perm
	SocketMode    libperm.Perm
	Umask         int

	Backlog int

	// FDLimit, when > 0, raises RLIMIT_NOFILE to at least this value before
	// any port opens (spec §4.2); best-effort, a failure here is logged by
	// the caller but never blocks Open.
	FDLimit int

	BindIPv6Only bool
	FreeBind     bool
	Transparent  bool
	ReusePort    bool
	BindToDevice string

	MqMaxMsg   int
	MqMsgSize  int

	UID int
	GID int

	Options libsockopt.Options
	Applier libsockopt.Applier

	// Label is a best-effort SELinux/SMACK creation-context installer;
	// EPERM is tolerated by callers per spec §4.2, other errors propagate.
	Label func(path string, kind Kind) error
}
