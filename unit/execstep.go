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
	"os"
	"syscall"
)

// Phase is one of the exec phases a manifest's command lists belong to
// (spec §3: "commands[phase]"; spec §6 manifest surface: ExecStartPre,
// ExecStartPost, ExecStopPre, ExecStopPost). StartChown has no ExecStep
// list of its own — it forks a built-in chown helper, not a manifest
// command (spec §4.1).
type Phase uint8

const (
	PhaseStartPre Phase = iota
	PhaseStartPost
	PhaseStopPre
	PhaseStopPost
)

// ExecStep is one command in a phase's ordered sequence (spec §3:
// "ExecStep (path + argv + ignore-failure flag, via command_next linked
// continuation)").
type ExecStep struct {
	Path   string
	Argv   []string
	Ignore bool

	// Next chains to the following step in the same phase (spec §5
	// ordering guarantee 2: "the next step is spawned only after the
	// previous yields a final exit").
	Next *ExecStep
}

// outcome classifies a reaped child's exit per spec §4.1 "Child-exit
// routing" and §7.
type outcome struct {
	result  Result
	success bool
}

// coreDumpingSignals is the set of signals whose default disposition is to
// dump core, used to distinguish CoreDump from a plain Signal result —
// EventLoop.WatchPid reports only the terminating os.Signal, not the
// kernel's WCOREDUMP bit, so this is a best-effort classification.
var coreDumpingSignals = map[os.Signal]bool{
	syscall.SIGQUIT: true, syscall.SIGILL: true, syscall.SIGABRT: true,
	syscall.SIGFPE: true, syscall.SIGSEGV: true, syscall.SIGBUS: true,
	syscall.SIGTRAP: true, syscall.SIGSYS: true, syscall.SIGXCPU: true,
	syscall.SIGXFSZ: true,
}

// classifyExit turns an EventLoop.WatchPid callback's raw values into an
// outcome (spec §4.1: "classifies outcome into Success / ExitCode / Signal
// / CoreDump").
func classifyExit(code int, signaled bool, sig os.Signal, ignore bool) outcome {
	if ignore {
		return outcome{result: Success, success: true}
	}
	switch {
	case signaled && coreDumpingSignals[sig]:
		return outcome{result: CoreDump}
	case signaled:
		return outcome{result: Signal}
	case code != 0:
		return outcome{result: ExitCode}
	default:
		return outcome{result: Success, success: true}
	}
}
