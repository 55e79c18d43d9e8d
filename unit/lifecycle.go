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
	"syscall"
	"time"

	liblogger "github.com/nabbar/sockunit/logger"
)

// setState is the single choke point every transition goes through (spec
// §4.1 "State transitions"): it cancels the timer/controlPid watch when
// new is outside the active-hook set, closes every Port.fd when new is
// outside the fd-open set, suspends read-readiness when new != Listening,
// and notifies the manager via ActiveState.
func (u *Unit) setState(new State) {
	old := u.state
	u.state = new

	if !activeHookStates[new] {
		u.disarmTimerLocked()
		u.controlPID = 0
		u.controlCommand = nil
	}

	if !fdOpenStates[new] {
		u.ports.Close()
	}

	if new != Listening {
		u.ports.Unwatch(u.loop)
	}

	if new == Dead || new == Failed {
		u.releaseScratchDirsLocked()
	}

	u.log.Debug("state transition", liblogger.Fields{"from": old.String(), "to": new.String()})
}

func (u *Unit) disarmTimerLocked() {
	if u.timerArmed {
		u.loop.DisarmTimer(u.timerHandle)
		u.timerArmed = false
		u.timerHandle = 0
	}
}

func (u *Unit) armTimerLocked(d time.Duration, onExpire func()) {
	u.disarmTimerLocked()
	u.timerHandle = u.loop.ArmTimer(d, onExpire)
	u.timerArmed = true
}

// Start implements start() (spec §4.1 "Happy path"): from Dead|Failed it
// resets result=Success and calls enterStartPre().
func (u *Unit) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != Dead && u.state != Failed {
		return nil
	}
	if u.service == nil {
		return ErrUnitVanished
	}

	u.result = Success
	u.enterStartPre()
	return nil
}

func (u *Unit) enterStartPre() {
	u.ensureScratchDirsLocked()
	u.controlPhase = PhaseStartPre
	u.runPhaseOrAdvance(PhaseStartPre, StartPre, u.enterStartChown)
}

func (u *Unit) enterStartChown() {
	u.setState(StartChown)

	if err := u.ports.Open(u.openCtx); err != nil {
		u.enterStopPre(Resources)
		return
	}

	if u.user != "" || u.group != "" {
		u.spawnChownHelper()
		return
	}

	u.enterStartPost()
}

func (u *Unit) spawnChownHelper() {
	pid, err := u.spawner.Spawn(u.spawnRequestFor(nil, "chown"))
	if err != nil {
		u.enterStopPre(Resources)
		return
	}
	u.controlPID = pid
	u.armDeadlineLocked()
	u.watchControlPID(func(success bool) {
		if success {
			u.enterStartPost()
		} else {
			u.enterStopPre(Resources)
		}
	})
}

func (u *Unit) enterStartPost() {
	u.controlPhase = PhaseStartPost
	u.runPhaseOrAdvance(PhaseStartPost, StartPost, u.enterListening)
}

func (u *Unit) enterListening() {
	u.setState(Listening)
	if err := u.ports.Watch(u.loop, u.dispatchReady); err != nil {
		u.enterStopPre(Resources)
	}
}

func (u *Unit) enterRunning() {
	u.setState(Running)
}

// Stop implements stop() (spec §4.1 "Stop path").
func (u *Unit) Stop() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stopLocked()
	return nil
}

func (u *Unit) stopLocked() {
	switch u.state {
	case StopPre, StopPreSigterm, StopPreSigkill, StopPost, FinalSigterm, FinalSigkill:
		return
	case StartPre, StartChown, StartPost:
		u.enterSignal(StopPreSigterm, Success)
	case Listening, Running:
		if u.dispatcher != nil {
			u.dispatcher.SetStopPending(true)
		}
		u.enterStopPre(Success)
	}
}

func (u *Unit) enterStopPre(f Result) {
	if f != Success {
		u.result = f
	}
	u.controlPhase = PhaseStopPre
	u.runPhaseOrAdvance(PhaseStopPre, StopPre, func() { u.enterStopPost(Success) })
}

func (u *Unit) enterStopPost(f Result) {
	if f != Success {
		u.result = f
	}
	u.controlPhase = PhaseStopPost
	u.runPhaseOrAdvance(PhaseStopPost, StopPost, func() { u.enterDead(Success) })
}

// enterSignal implements kill_context (spec §4.1 "enterSignal"): sends
// SIGTERM or SIGKILL (depending on state) to controlPid; if nothing
// survived, advances immediately, else arms the timer and waits.
func (u *Unit) enterSignal(state State, f Result) {
	if f != Success {
		u.result = f
	}
	u.setState(state)

	sig := syscall.SIGTERM
	if state == StopPreSigkill || state == FinalSigkill {
		sig = syscall.SIGKILL
	}

	survived := u.signalControlPID(sig)
	if !survived {
		u.advanceAfterSignal(state)
		return
	}

	u.armDeadlineLocked()
}

func (u *Unit) advanceAfterSignal(state State) {
	switch state {
	case StopPreSigterm, StopPreSigkill:
		u.enterStopPost(Success)
	case FinalSigterm, FinalSigkill:
		u.enterDead(Success)
	}
}

func (u *Unit) signalControlPID(sig syscall.Signal) bool {
	if u.controlPID <= 0 {
		return false
	}
	_ = syscall.Kill(u.controlPID, sig)
	return true
}

func (u *Unit) enterDead(f Result) {
	if f != Success {
		u.result = f
	}
	u.setState(Dead)
}

func (u *Unit) enterFailed(f Result) {
	if f != Success {
		u.result = f
	}
	u.setState(Failed)
}

// runPhaseOrAdvance spawns phase's first ExecStep (tracking it as
// controlCommand/controlPid and arming the deadline), or calls onEmpty
// immediately if the phase has no steps (spec §4.1: "spawn X hook (if
// any) -> on success -> Y").
func (u *Unit) runPhaseOrAdvance(phase Phase, state State, onEmpty func()) {
	u.setState(state)

	steps := u.commands[phase]
	if len(steps) == 0 {
		onEmpty()
		return
	}

	u.spawnStep(steps[0], phase, 0, onEmpty, func(f Result) { u.routeHookFailure(state, f) })
}

func (u *Unit) routeHookFailure(state State, f Result) {
	switch state {
	case StartPre:
		u.enterSignal(FinalSigterm, f)
	case StartChown, StartPost:
		u.enterStopPre(f)
	case StopPre, StopPreSigterm, StopPreSigkill:
		u.enterStopPost(f)
	case StopPost:
		// Final child-exit of StopPost is terminal either way (spec §4.1
		// child-exit table): routing back through enterStopPost would
		// re-spawn commands[PhaseStopPost][0] and loop forever on a
		// hook that keeps failing.
		u.enterDead(f)
	case FinalSigterm, FinalSigkill:
		u.enterStopPost(f)
	}
}

func (u *Unit) spawnStep(step *ExecStep, phase Phase, idx int, onPhaseDone func(), onFailure func(Result)) {
	pid, err := u.spawner.Spawn(u.spawnRequestFor(step, ""))
	if err != nil {
		onFailure(Resources)
		return
	}

	u.controlCommand = step
	u.controlCommandIdx = idx
	u.controlPID = pid
	u.armDeadlineLocked()

	u.watchControlPID(func(success bool) {
		if !success {
			onFailure(u.lastChildResult)
			return
		}
		if step.Next != nil {
			u.spawnStep(step.Next, phase, idx+1, onPhaseDone, onFailure)
			return
		}
		onPhaseDone()
	})
}
