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

// Package collab declares the boundary a SocketUnit is driven through: the
// event loop that wakes it, the process spawner that runs its lifecycle
// hooks, the manifest loader and companion service unit it hands
// connections to, the control bus that exposes it for introspection, and
// the process-group/security-context primitives its ProcessSpawner
// implementation may lean on. Every interface here is a seam — this module
// ships one reference implementation of EventLoop (package eventloop) and
// ProcessSpawner (package spawner) and expects a caller to supply the rest
// (ManifestLoader, ServiceUnit, ControlBus, ProcessGroupRealizer,
// SecurityContext are out of this module's scope, per spec §1).
package collab

import (
	"context"
	"os"
	"time"
)

// EventLoop is the single-threaded reactor a SocketUnit registers its
// descriptors, timer and spawned pids against (spec §6).
type EventLoop interface {
	// WatchRead registers fd for read-readiness notification; onReady is
	// invoked on the loop's own goroutine whenever fd becomes readable.
	WatchRead(fd int, onReady func()) error

	// Unwatch deregisters a descriptor previously passed to WatchRead.
	Unwatch(fd int) error

	// ArmTimer schedules onExpire to run once after d; a zero-value handle
	// return lets the caller call DisarmTimer later. Arming again before
	// the previous timer fires disarms it first.
	ArmTimer(d time.Duration, onExpire func()) (handle uint64)

	// DisarmTimer cancels a timer returned from ArmTimer; a no-op for an
	// already-fired or unknown handle.
	DisarmTimer(handle uint64)

	// Remaining reports the time left on an armed timer, or 0 if it is not
	// armed (spec §6: "remaining(timer) in µs").
	Remaining(handle uint64) time.Duration

	// WatchPid subscribes onExit to the termination of pid; EventLoop
	// reaps it (wait4) and reports the CodeError classification through
	// onExit exactly once.
	WatchPid(pid int, onExit func(code int, signaled bool, signal os.Signal)) error

	// UnwatchPid cancels a WatchPid subscription without reaping.
	UnwatchPid(pid int)

	// Now returns the loop's monotonic clock reading in microseconds
	// (spec §6: "now() in µs").
	Now() int64
}

// SpawnRequest bundles what ProcessSpawner.Spawn needs to launch one
// lifecycle hook (spec §6: "spawn(execStep, expandedArgv, execContext,
// env, cgroupHandle, unitId) -> pid").
type SpawnRequest struct {
	ExecStep      string
	Argv          []string
	ExecContext   context.Context
	Env           []string
	CgroupHandle  string
	UnitID        string
	ConfirmSpawn  bool
	Workdirectory string
}

// ProcessSpawner launches a unit's lifecycle hooks (StartPre, StartPost,
// StopPre, StopPost, ...) and returns the child pid for EventLoop to reap.
type ProcessSpawner interface {
	// Spawn must inherit the caller's close-on-exec discipline on every fd
	// not explicitly passed down, and must honor req.ConfirmSpawn by
	// blocking until the child has signaled readiness before returning.
	Spawn(req SpawnRequest) (pid int, err error)
}

// Unit is the minimal surface ManifestLoader hands back — enough for a
// SocketUnit to address a sibling unit by name without depending on its
// concrete type.
type Unit interface {
	Name() string
}

// ManifestLoader resolves unit names to units and builds instance names
// (spec §6), e.g. for Accept=yes "<prefix>@<instance>.service".
type ManifestLoader interface {
	LoadUnit(name string) (Unit, error)
	LoadRelatedUnit(selfID, suffix string) (Unit, error)
	UnitNameToPrefix(id string) string
	UnitNameBuild(prefix, instance, suffix string) string
}

// ServiceUnit is the companion service a SocketUnit triggers on
// connection/readiness (spec §6).
type ServiceUnit interface {
	Name() string
	SetSocketFD(fd int, backref interface{}) error
	State() string
	LoadState() string
	ExecCommandStart() []string
	IsSysV() bool
	Result() string
}

// ControlBus is the IPC surface used for introspection and property
// mutation (systemd's D-Bus equivalent, spec §6) — this module only
// defines the seam; wiring a transport is left to the caller.
type ControlBus interface {
	Publish(unitID string, snapshot interface{}) error
	Subscribe(unitID string, onMutate func(property string, value interface{})) (unsubscribe func())
}

// ProcessGroupRealizer creates/joins the cgroup (or process-group
// fallback) a spawned hook and its descendants run inside, so
// KillMode=control-group can reach every descendant on stop.
type ProcessGroupRealizer interface {
	Realize(unitID string) (cgroupHandle string, err error)
	KillAll(cgroupHandle string, sig os.Signal) error
	Release(cgroupHandle string) error
}

// SecurityContext applies a mandatory-access-control label (SMACK,
// SELinux, ...) to a spawned process or its sockets.
type SecurityContext interface {
	Apply(pid int, label string) error
	ApplyToFD(fd int, label string) error
}
