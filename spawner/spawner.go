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

// Package spawner is this module's reference implementation of
// collab.ProcessSpawner: it launches a unit's lifecycle hooks with os/exec
// and hands the pid back for the caller's EventLoop to reap. It never calls
// Wait itself — wait4(pid) is the EventLoop's job (package eventloop), and a
// pid must have exactly one waiter.
package spawner

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	libcollab "github.com/nabbar/sockunit/collab"
	liberr "github.com/nabbar/sockunit/errors"
)

// readyFD is the fd number a ConfirmSpawn child is handed its readiness
// pipe's write end on, past stdin/stdout/stderr (spec §6: "ConfirmSpawn ...
// blocking until the child has signaled readiness").
const readyFD = 3

// Spawner launches lifecycle hooks via os/exec.
type Spawner struct {
	// Stdout/Stderr, when set, are attached to every spawned child;
	// nil leaves them closed, matching a daemon's usual hook behavior.
	Stdout, Stderr *os.File
}

// New builds a Spawner that inherits this process's stdout/stderr.
func New() *Spawner {
	return &Spawner{Stdout: os.Stdout, Stderr: os.Stderr}
}

var _ libcollab.ProcessSpawner = (*Spawner)(nil)

// Spawn implements collab.ProcessSpawner.
func (s *Spawner) Spawn(req libcollab.SpawnRequest) (int, error) {
	var cmd *exec.Cmd
	if req.ExecContext != nil {
		cmd = exec.CommandContext(req.ExecContext, req.ExecStep, req.Argv...)
	} else {
		cmd = exec.Command(req.ExecStep, req.Argv...)
	}

	cmd.Env = req.Env
	cmd.Dir = req.Workdirectory
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	var readyR *os.File
	if req.ConfirmSpawn {
		r, w, err := os.Pipe()
		if err != nil {
			return 0, liberr.New(liberr.Resources, "spawner: creating readiness pipe for %s: %s", req.ExecStep, err)
		}
		readyR = r
		cmd.ExtraFiles = append(cmd.ExtraFiles, w)
		cmd.Env = append(cmd.Env, fmt.Sprintf("NOTIFY_FD=%d", readyFD))
		defer func() { _ = w.Close() }()
	}

	if err := cmd.Start(); err != nil {
		if readyR != nil {
			_ = readyR.Close()
		}
		return 0, liberr.New(liberr.Resources, "spawner: starting %s: %s", req.ExecStep, err)
	}

	pid := cmd.Process.Pid

	if req.CgroupHandle != "" {
		if err := joinCgroup(req.CgroupHandle, pid); err != nil {
			return pid, liberr.New(liberr.PermissionDenied, "spawner: joining cgroup %s for pid %d: %s", req.CgroupHandle, pid, err)
		}
	}

	if readyR != nil {
		defer func() { _ = readyR.Close() }()
		if err := waitReady(readyR); err != nil {
			return pid, liberr.New(liberr.Timeout, "spawner: waiting for readiness from %s (pid %d): %s", req.ExecStep, pid, err)
		}
	}

	return pid, nil
}

// waitReady blocks until r's writer closes or sends a non-empty line,
// mirroring the readiness-pipe handshake a confirm-spawn hook uses to tell
// its parent it is up (e.g. after binding its own sockets).
func waitReady(r *os.File) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if line != "" {
		return nil
	}
	return err
}

// joinCgroup writes pid into handle's cgroup.procs, the cgroupv2 unified
// hierarchy's join mechanism; handle is expected to already exist, realized
// by a collab.ProcessGroupRealizer before Spawn is called.
func joinCgroup(handle string, pid int) error {
	f, err := os.OpenFile(filepath.Join(handle, "cgroup.procs"), os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = f.WriteString(strconv.Itoa(pid))
	return err
}
