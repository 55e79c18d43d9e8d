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

//go:build linux

package port

import (
	"fmt"
	"os"
	"path/filepath"

	libsockopt "github.com/nabbar/sockunit/sockopt"

	"golang.org/x/sys/unix"
)

// ErrFileConflict is returned when an existing filesystem node at a port's
// path does not match the mode/ownership/type this port expects to own
// (spec §4.2: "fail with FileConflict").
var ErrFileConflict = fmt.Errorf("port: file conflict")

// openFifo implements the Fifo branch of PortSet.open() (spec §4.2).
func openFifo(p *Port, ctx OpenContext, warn libsockopt.Warn) error {
	if err := os.MkdirAll(filepath.Dir(p.Addr.Path), ctx.DirectoryMode.FileMode()); err != nil {
		return fmt.Errorf("port: mkdir_parents: %w", err)
	}

	if ctx.Label != nil {
		if err := ctx.Label(p.Addr.Path, KindFifo); err != nil && err != unix.EPERM {
			return fmt.Errorf("port: fifo label: %w", err)
		}
	}

	effective := ctx.SocketMode.WithUmask(ctx.Umask)
	if err := unix.Mkfifo(p.Addr.Path, uint32(effective)); err != nil && err != unix.EEXIST {
		return fmt.Errorf("port: mkfifo: %w", err)
	}

	fd, err := unix.Open(p.Addr.Path, unix.O_RDWR|unix.O_CLOEXEC|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_NOFOLLOW, 0)
	if err != nil {
		return fmt.Errorf("port: open fifo: %w", err)
	}

	if err := verifyNode(fd, unix.S_IFIFO, uint32(effective), ctx.UID, ctx.GID); err != nil {
		_ = unix.Close(fd)
		return err
	}

	if ctx.Applier != nil {
		_ = ctx.Applier.ApplyFifo(fd, ctx.Options, warn)
	}

	p.FD = fd
	return nil
}

// verifyNode enforces the fstat() discipline spec §4.2 demands of
// Fifo/MessageQueue ports after open: type, effective mode, and ownership.
func verifyNode(fd int, wantType uint32, wantMode uint32, wantUID, wantGID int) error {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return fmt.Errorf("port: fstat: %w", err)
	}

	if st.Mode&unix.S_IFMT != wantType {
		return fmt.Errorf("%w: unexpected node type", ErrFileConflict)
	}
	if st.Mode&uint32(07777) != wantMode&07777 {
		return fmt.Errorf("%w: unexpected mode", ErrFileConflict)
	}
	if wantUID >= 0 && st.Uid != uint32(wantUID) {
		return fmt.Errorf("%w: unexpected owner", ErrFileConflict)
	}
	if wantGID >= 0 && st.Gid != uint32(wantGID) {
		return fmt.Errorf("%w: unexpected group", ErrFileConflict)
	}
	return nil
}
