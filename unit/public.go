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

// Load validates the manifest-derived configuration this unit was built
// from (spec: "constructed by ManifestLoader, validated (verify())").
func (u *Unit) Load() error {
	return u.Verify()
}

// Coldplug restores runtime behaviour after DistributeFDs/LoadState have
// repopulated a unit's descriptors and snapshot across a re-execution
// (spec: "possibly coldplugged from a serialized snapshot"): it re-arms
// read-readiness watching if the restored state is Listening, and
// re-subscribes to the in-flight control pid if a hook was running.
func (u *Unit) Coldplug() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state == Listening {
		if err := u.ports.Watch(u.loop, u.dispatchReady); err != nil {
			return err
		}
	}

	if activeHookStates[u.state] && u.controlPID > 0 {
		u.armDeadlineLocked()
		u.watchControlPID(func(success bool) {
			if !success {
				u.routeHookFailure(u.state, u.lastChildResult)
				return
			}
			u.advanceColdplugged()
		})
	}

	return nil
}

// advanceColdplugged resumes the phase sequence a reaped coldplugged
// control pid belonged to, from wherever the snapshot left it.
func (u *Unit) advanceColdplugged() {
	switch u.controlPhase {
	case PhaseStartPre:
		u.enterStartChown()
	case PhaseStartPost:
		u.enterListening()
	case PhaseStopPre:
		u.enterStopPost(Success)
	case PhaseStopPost:
		u.enterSignal(FinalSigterm, Success)
	}
}

// Reset clears a Failed unit back to Dead so it becomes startable again
// (spec public contract "reset()").
func (u *Unit) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state == Failed {
		u.state = Dead
	}
	u.result = Success
}
