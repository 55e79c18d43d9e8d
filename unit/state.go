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
	libstatus "github.com/nabbar/sockunit/status"
)

// State is one of the thirteen states a socket unit's state machine can
// occupy (spec §3).
type State uint8

const (
	Dead State = iota
	StartPre
	StartChown
	StartPost
	Listening
	Running
	StopPre
	StopPreSigterm
	StopPreSigkill
	StopPost
	FinalSigterm
	FinalSigkill
	Failed
)

var stateNames = map[State]string{
	Dead:           "dead",
	StartPre:       "start-pre",
	StartChown:     "start-chown",
	StartPost:      "start-post",
	Listening:      "listening",
	Running:        "running",
	StopPre:        "stop-pre",
	StopPreSigterm: "stop-pre-sigterm",
	StopPreSigkill: "stop-pre-sigkill",
	StopPost:       "stop-post",
	FinalSigterm:   "final-sigterm",
	FinalSigkill:   "final-sigkill",
	Failed:         "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// activeHookStates is the set that may carry a nonzero controlPid or armed
// timer (spec invariant 4).
var activeHookStates = map[State]bool{
	StartPre: true, StartChown: true, StartPost: true,
	StopPre: true, StopPreSigterm: true, StopPreSigkill: true, StopPost: true,
	FinalSigterm: true, FinalSigkill: true,
}

// fdOpenStates is the set in which Port.fds stay open across setState
// (spec §4.1: "closes all Port.fds when new ∉ {...}").
var fdOpenStates = map[State]bool{
	StartChown: true, StartPost: true, Listening: true, Running: true,
	StopPre: true, StopPreSigterm: true, StopPreSigkill: true,
}

// ActiveState maps a State to the public UnitActiveState the manager sees
// (spec §4.1: "notifies the manager with a mapping to public
// UnitActiveState").
func (s State) ActiveState() libstatus.ActiveState {
	switch s {
	case Dead:
		return libstatus.Inactive
	case StartPre, StartChown, StartPost:
		return libstatus.Activating
	case Listening, Running:
		return libstatus.Active
	case StopPre, StopPreSigterm, StopPreSigkill, StopPost, FinalSigterm, FinalSigkill:
		return libstatus.Deactivating
	case Failed:
		return libstatus.Failed
	default:
		return libstatus.Inactive
	}
}

// Result is the outcome recorded against a start/stop cycle (spec §3, §7).
type Result uint8

const (
	Success Result = iota
	Resources
	Timeout
	ExitCode
	Signal
	CoreDump
	ServiceFailedPermanent
)

var resultNames = map[Result]string{
	Success:                "success",
	Resources:              "resources",
	Timeout:                "timeout",
	ExitCode:               "exit-code",
	Signal:                 "signal",
	CoreDump:               "core-dump",
	ServiceFailedPermanent: "service-failed-permanent",
}

func (r Result) String() string {
	if n, ok := resultNames[r]; ok {
		return n
	}
	return "unknown"
}

func parseState(s string) (State, bool) {
	for k, v := range stateNames {
		if v == s {
			return k, true
		}
	}
	return Dead, false
}

func parseResult(s string) (Result, bool) {
	for k, v := range resultNames {
		if v == s {
			return k, true
		}
	}
	return Success, false
}
