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

package dispatch_test

import (
	"net"
	"testing"

	libdispatch "github.com/nabbar/sockunit/dispatch"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDispatch(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "dispatch suite")
}

type stubAccepter struct {
	cfd     int
	local   net.Addr
	remote  net.Addr
	err     error
	calls   int
}

func (s *stubAccepter) Accept(fd int) (int, net.Addr, net.Addr, error) {
	s.calls++
	return s.cfd, s.local, s.remote, s.err
}

var _ = Describe("InstanceString", func() {
	It("formats an IPv4 instance (scenario C)", func() {
		local := &net.TCPAddr{IP: net.ParseIP("10.0.0.1"), Port: 80}
		remote := &net.TCPAddr{IP: net.ParseIP("192.168.1.5"), Port: 54321}

		Expect(libdispatch.InstanceString(7, local, remote)).To(Equal("7-10.0.0.1:80-192.168.1.5:54321"))
	})

	It("formats a v4-mapped v6 instance identically to scenario C (scenario D)", func() {
		local := &net.TCPAddr{IP: net.ParseIP("::ffff:10.0.0.1"), Port: 80}
		remote := &net.TCPAddr{IP: net.ParseIP("::ffff:192.168.1.5"), Port: 54321}

		Expect(libdispatch.InstanceString(7, local, remote)).To(Equal("7-10.0.0.1:80-192.168.1.5:54321"))
	})

	It("is deterministic for identical inputs", func() {
		local := &net.TCPAddr{IP: net.ParseIP("10.0.0.1"), Port: 80}
		remote := &net.TCPAddr{IP: net.ParseIP("192.168.1.5"), Port: 54321}

		a := libdispatch.InstanceString(7, local, remote)
		b := libdispatch.InstanceString(7, local, remote)
		Expect(a).To(Equal(b))
	})

	It("formats a UNIX peer-credential instance", func() {
		local := &net.UnixAddr{Name: "/run/foo.sock", Net: "unix"}
		remote := libdispatch.PeerCred{Pid: 4242, Uid: 1000}

		Expect(libdispatch.InstanceString(3, local, remote)).To(Equal("3-4242-1000"))
	})
})

var _ = Describe("Dispatcher", func() {
	var local, remote net.Addr

	BeforeEach(func() {
		local = &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9000}
		remote = &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 55555}
	})

	It("accepts and, once Complete is called, advances nAccepted and nConnections", func() {
		acc := &stubAccepter{cfd: 7, local: local, remote: remote}
		d := libdispatch.New(acc, 2, "test-unit")

		inst, err := d.Accept(3)
		Expect(err).ToNot(HaveOccurred())
		Expect(inst.Name).To(Equal("1-127.0.0.1:9000-127.0.0.1:55555"))
		Expect(d.NAccepted()).To(Equal(uint64(0)), "nAccepted must not advance before Complete")

		d.Complete(inst)
		Expect(d.NAccepted()).To(Equal(uint64(1)))
		Expect(d.NConnections()).To(Equal(1))
	})

	It("refuses admission once nConnections reaches maxConnections, never exceeding it (scenario B)", func() {
		acc := &stubAccepter{cfd: 7, local: local, remote: remote}
		d := libdispatch.New(acc, 2, "test-unit")

		for i := 0; i < 2; i++ {
			inst, err := d.Accept(3)
			Expect(err).ToNot(HaveOccurred())
			d.Complete(inst)
		}

		_, err := d.Accept(3)
		Expect(err).To(MatchError(libdispatch.ErrLimitReached))
		Expect(d.NConnections()).To(Equal(2))
	})

	It("silently drops the connection and returns ErrStopPending when draining", func() {
		acc := &stubAccepter{cfd: 7, local: local, remote: remote}
		d := libdispatch.New(acc, 2, "test-unit")
		d.SetStopPending(true)

		_, err := d.Accept(3)
		Expect(err).To(MatchError(libdispatch.ErrStopPending))
	})

	It("decrements nConnections when a connection is released", func() {
		acc := &stubAccepter{cfd: 7, local: local, remote: remote}
		d := libdispatch.New(acc, 2, "test-unit")

		inst, err := d.Accept(3)
		Expect(err).ToNot(HaveOccurred())
		d.Complete(inst)
		Expect(d.NConnections()).To(Equal(1))

		d.Released()
		Expect(d.NConnections()).To(Equal(0))
	})
})
