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

package unit

import (
	"fmt"
	"io"
	"syscall"

	libport "github.com/nabbar/sockunit/port"
	libserialize "github.com/nabbar/sockunit/serialize"
)

var phaseNames = map[Phase]string{
	PhaseStartPre:  "ExecStartPre",
	PhaseStartPost: "ExecStartPost",
	PhaseStopPre:   "ExecStopPre",
	PhaseStopPost:  "ExecStopPost",
}

func portKindOf(k libport.Kind) libserialize.PortKind {
	switch k {
	case libport.KindFifo:
		return libserialize.PortFifo
	case libport.KindSpecial:
		return libserialize.PortSpecial
	case libport.KindMessageQueue:
		return libserialize.PortMQueue
	default:
		return libserialize.PortSocket
	}
}

// CollectFDs gathers every open Port.fd for a re-execution's FdBag (spec
// §4.5 "collectFds()").
func (u *Unit) CollectFDs() []int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ports.CollectFDs()
}

// DistributeFDs re-attaches a just-inherited FdBag, structurally matching
// each entry back to its Port by kind and address rather than position
// (spec §4.5 "distributeFds()", §9 "prevent fd aliasing across reloads").
// The caller owns pairing each raw descriptor with the kind/address it was
// originally opened for.
func (u *Unit) DistributeFDs(bag []libport.FDEntry) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ports.DistributeFDs(bag)
}

// SaveState writes this unit's full snapshot (spec §4.5 "serialize()").
func (u *Unit) SaveState(w io.Writer) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	snap := libserialize.Snapshot{
		State:      u.state.String(),
		Result:     u.result.String(),
		NAccepted:  u.dispatcher.NAccepted(),
		ControlPID: u.controlPID,
		TmpDir:     u.tmpDir,
		VarTmpDir:  u.varTmpDir,
	}

	if u.controlCommand != nil {
		snap.ControlCommand = fmt.Sprintf("%s[%d]", phaseNames[u.controlPhase], u.controlCommandIdx)
	}

	for i, p := range u.ports.Ports() {
		entry := libserialize.PortEntry{Kind: portKindOf(p.Kind), BagIndex: i, Path: p.Addr.Path}
		if p.Kind == libport.KindSocket {
			entry.Path = fmt.Sprintf("%s:%d", p.Addr.IP, p.Addr.Port)
			entry.SocketType = p.Addr.Type.String()
		}
		snap.Ports = append(snap.Ports, entry)
	}

	return libserialize.Write(w, snap)
}

// LoadState restores a previously-saved snapshot as the starting point for
// coldplug (spec §4.5 "deserializeItem()" consumed as a batch via the
// already-parsed Snapshot rather than key-by-key, since package serialize
// parses the whole stream up front).
func (u *Unit) LoadState(r io.Reader) error {
	snap, err := libserialize.Read(r)
	if err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if st, ok := parseState(snap.State); ok {
		u.state = st
	}
	if res, ok := parseResult(snap.Result); ok {
		u.result = res
	}
	u.controlPID = snap.ControlPID
	u.dispatcher.Restore(snap.NAccepted)
	u.tmpDir = snap.TmpDir
	u.varTmpDir = snap.VarTmpDir

	return nil
}

// Kill sends sig to the tracked control pid (spec §6 "kill(who, signo)");
// who is accepted for interface symmetry with systemd's kill verb but this
// engine only ever tracks a single control process per unit.
func (u *Unit) Kill(who string, sig syscall.Signal) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.controlPID <= 0 {
		return ErrUnitVanished
	}
	return syscall.Kill(u.controlPID, sig)
}
