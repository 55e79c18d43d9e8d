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

// Package dispatch is component D of the engine (SPEC_FULL.md §A): the
// acceptance loop and per-connection instance naming for accept=true
// sockets (spec §4.1, §4.4).
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"

	libatomic "github.com/nabbar/sockunit/atomic"
	libsemaphore "github.com/nabbar/sockunit/semaphore"
)

// ErrStopPending is returned by Accept when the unit has a stop pending;
// the caller must close cfd silently and flush listeners to drain (spec
// §4.1 step 2).
var ErrStopPending = errors.New("dispatch: stop pending")

// ErrLimitReached is returned by Accept when nConnections >= maxConnections
// (spec §4.1 step 3); the caller logs a warning and stays in Listening.
var ErrLimitReached = errors.New("dispatch: connection limit reached")

// ErrPeerReset corresponds to ENOTCONN during acceptance (spec §4.1 step 4:
// "silently discard cfd and return").
var ErrPeerReset = errors.New("dispatch: peer reset before accept completed")

// Accepter performs the syscall-level non-blocking accept (spec: "retried
// on EINTR"); implementations wrap accept4(fd, SOCK_NONBLOCK).
type Accepter interface {
	Accept(fd int) (cfd int, local, remote net.Addr, err error)
}

// Dispatcher owns nAccepted/nConnections bookkeeping and the acceptance
// loop for one accept=true Port (spec §4.1, §4.4). Admission is bounded by
// a weighted semaphore (package semaphore) rather than a hand-rolled
// counter+mutex, acquired in Accept and released in Release/Released.
// nAccepted/nConnections themselves are lock-free counters (package atomic)
// since they're read by a status poller concurrently with the single
// event-loop goroutine that drives Accept/Complete/Released.
type Dispatcher struct {
	mu             sync.Mutex
	accepter       Accepter
	maxConnections int
	sem            libsemaphore.Sem
	unitID         string
	nAccepted      libatomic.Counter
	nConnections   libatomic.Counter
	stopPending    bool
}

// New returns a Dispatcher bounded by maxConnections (spec §3: default 64),
// labeling its Prometheus counters/gauges with unitID. maxConnections <= 0
// builds an unbounded Dispatcher (no accept=true socket is expected to reach
// it in that configuration).
func New(accepter Accepter, maxConnections int, unitID string) *Dispatcher {
	weight := int64(-1)
	if maxConnections > 0 {
		weight = int64(maxConnections)
	}
	return &Dispatcher{
		accepter:       accepter,
		maxConnections: maxConnections,
		unitID:         unitID,
		sem:            libsemaphore.New(context.Background(), weight),
	}
}

func (d *Dispatcher) NAccepted() uint64 {
	return uint64(d.nAccepted.Load())
}

func (d *Dispatcher) NConnections() int {
	return int(d.nConnections.Load())
}

// SetStopPending marks this dispatcher as draining (spec §4.1 step 2).
func (d *Dispatcher) SetStopPending(pending bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopPending = pending
}

// Restore re-seeds nAccepted from a coldplug snapshot (spec §4.5 "n-accepted"),
// without touching nConnections — a re-executed unit has no live connections
// until DistributeFDs and the caller's own per-connection bookkeeping rebuild them.
func (d *Dispatcher) Restore(nAccepted uint64) {
	d.nAccepted.Store(int64(nAccepted))
}

// Released decrements nConnections and gives back the admission slot
// reserved by Accept, when a per-connection service ends.
func (d *Dispatcher) Released() {
	for {
		old := d.nConnections.Load()
		if old <= 0 {
			break
		}
		if d.nConnections.CompareAndSwap(old, old-1) {
			break
		}
	}
	d.sem.DeferWorker()
	metricOpenConnections.WithLabelValues(d.unitID).Dec()
}

// Release gives back an admission slot reserved by Accept without touching
// nConnections — used when the caller could not finish connection setup
// (manifest resolution, SetSocketFD) before Complete would have run.
func (d *Dispatcher) Release() {
	d.sem.DeferWorker()
}

// Instance is one accepted connection, ready for the template service to
// be instantiated against.
type Instance struct {
	CFD      int
	Name     string
	Accepted uint64
}

// Accept implements the per-connection branch of onFdReady (spec §4.1
// steps 1-4). Tie-break per spec §4.4: the admission slot is tested *before*
// peer-credential acceptance; the caller is responsible for incrementing
// nAccepted only once the template service has been set up successfully
// (Complete must be called after a successful Accept), and for calling
// Release if it cannot get that far.
func (d *Dispatcher) Accept(listenFD int) (Instance, error) {
	d.mu.Lock()
	stopPending := d.stopPending
	d.mu.Unlock()

	if stopPending {
		cfd, _, _, err := d.accepter.Accept(listenFD)
		if err == nil {
			_ = closeQuiet(cfd)
		}
		return Instance{}, ErrStopPending
	}

	if !d.sem.NewWorkerTry() {
		cfd, _, _, err := d.accepter.Accept(listenFD)
		if err == nil {
			_ = closeQuiet(cfd)
		}
		return Instance{}, ErrLimitReached
	}

	nr := uint64(d.nAccepted.Load()) + 1

	cfd, local, remote, err := d.accepter.Accept(listenFD)
	if err != nil {
		d.sem.DeferWorker()
		if isENOTCONN(err) {
			return Instance{}, ErrPeerReset
		}
		return Instance{}, fmt.Errorf("dispatch: accept: %w", err)
	}

	name := InstanceString(nr, local, remote)
	return Instance{CFD: cfd, Name: name, Accepted: nr}, nil
}

// Complete records that the template service was successfully set up for
// inst — nAccepted and nConnections only advance here (spec §4.4).
func (d *Dispatcher) Complete(inst Instance) {
	d.nAccepted.Store(int64(inst.Accepted))
	d.nConnections.Add(1)

	metricAcceptedTotal.WithLabelValues(d.unitID).Inc()
	metricOpenConnections.WithLabelValues(d.unitID).Inc()
}

func closeQuiet(fd int) error { return syscall.Close(fd) }

func isENOTCONN(err error) bool {
	return errors.Is(err, syscall.ENOTCONN)
}
