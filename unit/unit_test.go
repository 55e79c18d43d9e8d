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

package unit_test

import (
	"io"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	libcollab "github.com/nabbar/sockunit/collab"
	libdispatch "github.com/nabbar/sockunit/dispatch"
	libport "github.com/nabbar/sockunit/port"
	libunit "github.com/nabbar/sockunit/unit"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestUnit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "unit suite")
}

// fakeLoop is a synchronous stand-in for collab.EventLoop: timers and pid
// watches are recorded rather than actually scheduled, and tests fire them
// explicitly to drive the state machine deterministically.
type fakeLoop struct {
	mu        sync.Mutex
	timers    map[uint64]func()
	nextTimer uint64
	pidWaits  map[int]func(code int, signaled bool, sig os.Signal)
	reads     map[int]func()
}

func newFakeLoop() *fakeLoop {
	return &fakeLoop{
		timers:   map[uint64]func(){},
		pidWaits: map[int]func(code int, signaled bool, sig os.Signal){},
		reads:    map[int]func(){},
	}
}

func (f *fakeLoop) WatchRead(fd int, onReady func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[fd] = onReady
	return nil
}

func (f *fakeLoop) Unwatch(fd int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reads, fd)
	return nil
}

func (f *fakeLoop) ArmTimer(d time.Duration, onExpire func()) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTimer++
	h := f.nextTimer
	f.timers[h] = onExpire
	return h
}

func (f *fakeLoop) DisarmTimer(handle uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.timers, handle)
}

func (f *fakeLoop) Remaining(handle uint64) time.Duration { return 0 }

func (f *fakeLoop) WatchPid(pid int, onExit func(code int, signaled bool, signal os.Signal)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pidWaits[pid] = onExit
	return nil
}

func (f *fakeLoop) UnwatchPid(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pidWaits, pid)
}

func (f *fakeLoop) Now() int64 { return 0 }

// reapPid simulates EventLoop reaping pid with the given outcome.
func (f *fakeLoop) reapPid(pid, code int, signaled bool, sig os.Signal) {
	f.mu.Lock()
	cb := f.pidWaits[pid]
	f.mu.Unlock()
	if cb != nil {
		cb(code, signaled, sig)
	}
}

// fakeSpawner hands out incrementing fake pids and never actually forks.
type fakeSpawner struct {
	mu      sync.Mutex
	nextPID int
	err     error
}

func (s *fakeSpawner) Spawn(req libcollab.SpawnRequest) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.nextPID++
	return s.nextPID, nil
}

// fakePortSet is a minimal in-memory stand-in for port.Set.
type fakePortSet struct {
	ports     []*libport.Port
	openErr   error
	watchErr  error
	onReady   func(p *libport.Port)
	opened    bool
	closed    bool
	watched   bool
}

func (f *fakePortSet) Open(ctx libport.OpenContext) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}

func (f *fakePortSet) Close() { f.closed = true }

func (f *fakePortSet) Watch(loop libcollab.EventLoop, onReady func(p *libport.Port)) error {
	if f.watchErr != nil {
		return f.watchErr
	}
	f.watched = true
	f.onReady = onReady
	return nil
}

func (f *fakePortSet) Unwatch(loop libcollab.EventLoop) { f.watched = false }

func (f *fakePortSet) CollectFDs() []int {
	fds := make([]int, 0, len(f.ports))
	for _, p := range f.ports {
		fds = append(fds, p.FD)
	}
	return fds
}

func (f *fakePortSet) DistributeFDs(bag []libport.FDEntry) error { return nil }

func (f *fakePortSet) Ports() []*libport.Port { return f.ports }

// fakeManifest addresses a single hard-coded sibling unit.
type fakeManifest struct {
	unit    libcollab.Unit
	loadErr error
}

func (m *fakeManifest) LoadUnit(name string) (libcollab.Unit, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.unit, nil
}
func (m *fakeManifest) LoadRelatedUnit(selfID, suffix string) (libcollab.Unit, error) {
	return m.unit, nil
}
func (m *fakeManifest) UnitNameToPrefix(id string) string { return id }
func (m *fakeManifest) UnitNameBuild(prefix, instance, suffix string) string {
	return prefix + "@" + instance + "." + suffix
}

// fakeService is both a collab.Unit and a collab.ServiceUnit.
type fakeService struct {
	name      string
	fd        int
	setErr    error
	sawSocket bool
}

func (s *fakeService) Name() string { return s.name }
func (s *fakeService) SetSocketFD(fd int, backref interface{}) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.fd = fd
	s.sawSocket = true
	return nil
}
func (s *fakeService) State() string               { return "active" }
func (s *fakeService) LoadState() string            { return "loaded" }
func (s *fakeService) ExecCommandStart() []string   { return nil }
func (s *fakeService) IsSysV() bool                 { return false }
func (s *fakeService) Result() string               { return "success" }

// fakeAccepter always succeeds with a fixed fd/addr pair.
type fakeAccepter struct {
	cfd    int
	local  net.Addr
	remote net.Addr
	err    error
}

func (a *fakeAccepter) Accept(fd int) (int, net.Addr, net.Addr, error) {
	return a.cfd, a.local, a.remote, a.err
}

func newTestUnit(cfg libunit.Config, ports *fakePortSet, loop *fakeLoop, spawner *fakeSpawner, manifest *fakeManifest, acc *fakeAccepter) *libunit.Unit {
	u := libunit.New(cfg, ports, loop, spawner, manifest, acc)
	u.SetService(&fakeService{name: "svc"})
	return u
}

var _ = Describe("Unit lifecycle (scenario A: happy path)", func() {
	It("goes Dead -> StartPre -> StartChown -> StartPost -> Listening with no hooks configured", func() {
		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{}, false)}}
		loop := newFakeLoop()
		spawner := &fakeSpawner{}
		manifest := &fakeManifest{unit: &fakeService{name: "svc"}}
		acc := &fakeAccepter{}

		u := newTestUnit(libunit.Config{ID: "test.socket"}, ports, loop, spawner, manifest, acc)

		Expect(u.State()).To(Equal(libunit.Dead))
		Expect(u.Start()).To(Succeed())

		Expect(u.State()).To(Equal(libunit.Listening))
		Expect(ports.opened).To(BeTrue())
		Expect(ports.watched).To(BeTrue())
	})

	It("runs ExecStartPre before opening ports, and stays in StartPre until it exits", func() {
		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{}, false)}}
		loop := newFakeLoop()
		spawner := &fakeSpawner{}
		manifest := &fakeManifest{unit: &fakeService{name: "svc"}}
		acc := &fakeAccepter{}

		u := newTestUnit(libunit.Config{ID: "test.socket"}, ports, loop, spawner, manifest, acc)
		u.SetCommands(libunit.PhaseStartPre, []*libunit.ExecStep{{Path: "/bin/true"}})

		Expect(u.Start()).To(Succeed())
		Expect(u.State()).To(Equal(libunit.StartPre))
		Expect(ports.opened).To(BeFalse())

		loop.reapPid(1, 0, false, nil)

		Expect(u.State()).To(Equal(libunit.Listening))
		Expect(ports.opened).To(BeTrue())
	})

	It("routes a failed ExecStartPre straight to FinalSigterm then Dead with result=ExitCode", func() {
		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{}, false)}}
		loop := newFakeLoop()
		spawner := &fakeSpawner{}
		manifest := &fakeManifest{unit: &fakeService{name: "svc"}}
		acc := &fakeAccepter{}

		u := newTestUnit(libunit.Config{ID: "test.socket"}, ports, loop, spawner, manifest, acc)
		u.SetCommands(libunit.PhaseStartPre, []*libunit.ExecStep{{Path: "/bin/false"}})

		Expect(u.Start()).To(Succeed())
		loop.reapPid(1, 1, false, nil)

		Expect(u.State()).To(Equal(libunit.Dead))
		Expect(u.Result()).To(Equal(libunit.ExitCode))
	})
})

var _ = Describe("Unit stop path", func() {
	It("marks the dispatcher draining and runs ExecStopPre/ExecStopPost before going Dead", func() {
		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{}, false)}}
		loop := newFakeLoop()
		spawner := &fakeSpawner{}
		manifest := &fakeManifest{unit: &fakeService{name: "svc"}}
		acc := &fakeAccepter{}

		u := newTestUnit(libunit.Config{ID: "test.socket"}, ports, loop, spawner, manifest, acc)
		Expect(u.Start()).To(Succeed())
		Expect(u.State()).To(Equal(libunit.Listening))

		Expect(u.Stop()).To(Succeed())
		Expect(u.State()).To(Equal(libunit.Dead))
		Expect(u.Result()).To(Equal(libunit.Success))
	})

	It("routes a failed ExecStopPost straight to Dead instead of re-spawning it forever", func() {
		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{}, false)}}
		loop := newFakeLoop()
		spawner := &fakeSpawner{}
		manifest := &fakeManifest{unit: &fakeService{name: "svc"}}
		acc := &fakeAccepter{}

		u := newTestUnit(libunit.Config{ID: "test.socket"}, ports, loop, spawner, manifest, acc)
		u.SetCommands(libunit.PhaseStopPost, []*libunit.ExecStep{{Path: "/bin/false"}})

		Expect(u.Start()).To(Succeed())
		Expect(u.State()).To(Equal(libunit.Listening))

		Expect(u.Stop()).To(Succeed())
		Expect(u.State()).To(Equal(libunit.StopPost))

		loop.reapPid(1, 1, false, nil)

		Expect(u.State()).To(Equal(libunit.Dead))
		Expect(u.Result()).To(Equal(libunit.ExitCode))
	})
})

var _ = Describe("Unit Verify (spec scenarios B/F)", func() {
	It("rejects Accept=yes with MaxConnections<=0", func() {
		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{Type: libport.TypeStream}, true)}}
		u := libunit.New(libunit.Config{ID: "t", Accept: true}, ports, newFakeLoop(), &fakeSpawner{}, &fakeManifest{}, &fakeAccepter{})
		Expect(u.Verify()).To(HaveOccurred())
	})

	It("rejects Accept=yes with a FIFO-only port (scenario F)", func() {
		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindFifo, libport.Address{}, false)}}
		u := libunit.New(libunit.Config{ID: "t", Accept: true, MaxConnections: 4}, ports, newFakeLoop(), &fakeSpawner{}, &fakeManifest{}, &fakeAccepter{})
		Expect(u.Verify()).To(MatchError(libunit.ErrInvalidConfig))
	})

	It("rejects Accept=yes combined with an explicit service binding", func() {
		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{Type: libport.TypeStream}, true)}}
		u := libunit.New(libunit.Config{ID: "t", Accept: true, MaxConnections: 4, ExplicitService: true}, ports, newFakeLoop(), &fakeSpawner{}, &fakeManifest{}, &fakeAccepter{})
		Expect(u.Verify()).To(HaveOccurred())
	})

	It("accepts a valid Accept=yes configuration", func() {
		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{Type: libport.TypeStream}, true)}}
		u := libunit.New(libunit.Config{ID: "t", Accept: true, MaxConnections: 4}, ports, newFakeLoop(), &fakeSpawner{}, &fakeManifest{}, &fakeAccepter{})
		Expect(u.Verify()).ToNot(HaveOccurred())
	})
})

var _ = Describe("Unit accept dispatch", func() {
	It("hands an accepted connection's fd to the instantiated template service", func() {
		localAddr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9000}
		remoteAddr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 5555}
		svc := &fakeService{name: "inst"}
		manifest := &fakeManifest{unit: svc}
		acc := &fakeAccepter{cfd: 9, local: localAddr, remote: remoteAddr}
		p := libport.NewPort(libport.KindSocket, libport.Address{Type: libport.TypeStream}, true)
		p.FD = 3
		ports := &fakePortSet{ports: []*libport.Port{p}}
		loop := newFakeLoop()

		u := newTestUnit(libunit.Config{ID: "test.socket", Accept: true, MaxConnections: 4}, ports, loop, &fakeSpawner{}, manifest, acc)
		Expect(u.Start()).To(Succeed())
		Expect(u.State()).To(Equal(libunit.Listening))

		Expect(ports.onReady).ToNot(BeNil())
		ports.onReady(p)

		Expect(svc.sawSocket).To(BeTrue())
		Expect(svc.fd).To(Equal(9))
		Expect(u.NAccepted()).To(Equal(uint64(1)))
	})
})

var _ = Describe("Unit Reset", func() {
	It("clears Failed back to Dead and resets result", func() {
		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{}, false)}}
		loop := newFakeLoop()
		spawner := &fakeSpawner{}
		manifest := &fakeManifest{unit: &fakeService{name: "svc"}}
		acc := &fakeAccepter{}

		u := newTestUnit(libunit.Config{ID: "test.socket"}, ports, loop, spawner, manifest, acc)
		u.SetCommands(libunit.PhaseStartPre, []*libunit.ExecStep{{Path: "/bin/false"}})

		Expect(u.Start()).To(Succeed())
		loop.reapPid(1, 1, false, nil)
		Expect(u.State()).To(Equal(libunit.Dead))

		u.Reset()
		Expect(u.Result()).To(Equal(libunit.Success))
	})
})

var _ = Describe("Unit SaveState/LoadState round-trip", func() {
	It("serializes state/result/nAccepted and restores them", func() {
		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{}, false)}}
		loop := newFakeLoop()
		spawner := &fakeSpawner{}
		manifest := &fakeManifest{unit: &fakeService{name: "svc"}}
		acc := &fakeAccepter{}

		u := newTestUnit(libunit.Config{ID: "test.socket"}, ports, loop, spawner, manifest, acc)
		Expect(u.Start()).To(Succeed())

		var buf testBuffer
		Expect(u.SaveState(&buf)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("state listening"))

		u2 := newTestUnit(libunit.Config{ID: "test.socket"}, &fakePortSet{}, newFakeLoop(), &fakeSpawner{}, manifest, acc)
		Expect(u2.LoadState(&buf)).To(Succeed())
		Expect(u2.State()).To(Equal(libunit.Listening))
	})
})

type testBuffer struct {
	data []byte
}

func (b *testBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *testBuffer) Read(p []byte) (int, error) {
	if len(b.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.data)
	b.data = b.data[n:]
	return n, nil
}

func (b *testBuffer) String() string { return string(b.data) }
