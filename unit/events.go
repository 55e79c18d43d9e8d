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
	"errors"
	"os"
	"syscall"

	libcollab "github.com/nabbar/sockunit/collab"
	libdispatch "github.com/nabbar/sockunit/dispatch"
	liblogger "github.com/nabbar/sockunit/logger"
	libport "github.com/nabbar/sockunit/port"
)

// armDeadlineLocked arms the per-hook timeout (spec §6 manifest surface:
// TimeoutUSec); a zero timeout means wait indefinitely.
func (u *Unit) armDeadlineLocked() {
	if u.timeoutUsec <= 0 {
		return
	}
	u.armTimerLocked(u.timeoutUsec, u.onTimer)
}

// watchControlPID subscribes to the reaping of the currently-tracked
// controlPid and routes the classified outcome to onDone (spec §4.1
// "Child-exit routing").
func (u *Unit) watchControlPID(onDone func(success bool)) {
	pid := u.controlPID
	step := u.controlCommand

	_ = u.loop.WatchPid(pid, func(code int, signaled bool, sig os.Signal) {
		u.mu.Lock()
		defer u.mu.Unlock()

		if u.controlPID != pid {
			// A later transition already disarmed this hook; stale reap.
			return
		}

		ignore := step != nil && step.Ignore
		oc := classifyExit(code, signaled, sig, ignore)

		u.disarmTimerLocked()
		u.controlPID = 0
		u.lastChildResult = oc.result

		onDone(oc.success)
	})
}

// onTimer implements the timer-timeout dispatch table (spec §4.1): what
// happens when a hook or signal-wait overruns TimeoutUSec.
func (u *Unit) onTimer() {
	switch u.state {
	case StartPre, StartChown, StartPost:
		u.enterSignal(FinalSigterm, Timeout)
	case StopPre:
		u.enterStopPost(Timeout)
	case StopPreSigterm:
		if u.sendSigkill {
			u.enterSignal(StopPreSigkill, Timeout)
		} else {
			u.enterStopPost(Timeout)
		}
	case StopPreSigkill:
		u.enterStopPost(Timeout)
	case StopPost:
		u.enterSignal(FinalSigterm, Timeout)
	case FinalSigterm:
		if u.sendSigkill {
			u.enterSignal(FinalSigkill, Timeout)
		} else {
			u.enterFailed(Timeout)
		}
	case FinalSigkill:
		u.enterFailed(Timeout)
	}
}

// spawnRequestFor builds the ProcessSpawner request for step, or for the
// built-in chown helper when step is nil (spec §4.1 "enterStartChown").
func (u *Unit) spawnRequestFor(step *ExecStep, builtin string) libcollab.SpawnRequest {
	if step != nil {
		return libcollab.SpawnRequest{ExecStep: step.Path, Argv: step.Argv, UnitID: u.id, Env: u.scratchEnv()}
	}
	return libcollab.SpawnRequest{ExecStep: builtin, Argv: []string{u.user, u.group}, UnitID: u.id, Env: u.scratchEnv()}
}

// dispatchReady is the onReady callback passed to ports.Watch (spec §4.1
// "onFdReady"). It implements both the per-connection accept branch and
// the shared-descriptor branch.
func (u *Unit) dispatchReady(p *libport.Port) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != Listening && u.state != Running {
		return
	}

	if p.Accept {
		u.dispatchAccept(p)
		return
	}

	u.dispatchShared(p)
}

func (u *Unit) dispatchAccept(p *libport.Port) {
	inst, err := u.dispatcher.Accept(p.FD)
	if err != nil {
		switch {
		case errors.Is(err, libdispatch.ErrStopPending), errors.Is(err, libdispatch.ErrPeerReset):
			return
		case errors.Is(err, libdispatch.ErrLimitReached):
			u.log.Warning("connection limit reached, dropping incoming connection", liblogger.Fields{})
			return
		default:
			u.log.Warning("accept failed", liblogger.Fields{"error": err.Error()})
			return
		}
	}

	template := u.serviceName
	if template == "" {
		template = u.id
	}
	prefix := u.manifest.UnitNameToPrefix(template)
	name := u.manifest.UnitNameBuild(prefix, inst.Name, "service")

	resolved, err := u.manifest.LoadUnit(name)
	if err != nil {
		u.log.Warning("failed to instantiate per-connection service", liblogger.Fields{"instance": inst.Name, "error": err.Error()})
		_ = syscall.Close(inst.CFD)
		u.dispatcher.Release()
		return
	}

	svc, ok := resolved.(libcollab.ServiceUnit)
	if !ok {
		_ = syscall.Close(inst.CFD)
		u.dispatcher.Release()
		return
	}

	if err := svc.SetSocketFD(inst.CFD, p.TLS); err != nil {
		u.log.Warning("failed to hand connection fd to instantiated service", liblogger.Fields{"instance": inst.Name, "error": err.Error()})
		_ = syscall.Close(inst.CFD)
		u.dispatcher.Release()
		return
	}

	u.dispatcher.Complete(inst)
}

func (u *Unit) dispatchShared(p *libport.Port) {
	if u.service != nil {
		if err := u.service.SetSocketFD(p.FD, p.TLS); err == nil {
			u.enterRunning()
		}
	}

	for _, t := range u.triggers {
		if u.startPending[t] {
			continue
		}
		u.startPending[t] = true
		u.triggerNotify(t)
	}
}

// triggerNotify records that other should be started as a consequence of
// this unit's readiness (spec §4.1 "Shared-descriptor branch"). Actually
// starting the sibling unit is the manager's job — ManifestLoader's Unit
// seam exposes only Name(), so this package cannot drive it directly; a
// ControlBus-backed manager is expected to observe startPending via
// SubState/serialize and act on it.
func (u *Unit) triggerNotify(other string) {
	u.log.Info("readiness trigger fired", liblogger.Fields{"target": other})
}
