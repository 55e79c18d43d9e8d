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
	"unsafe"

	"golang.org/x/sys/unix"
)

// mqAttr mirrors glibc's struct mq_attr for mq_open(2)'s optional attribute
// argument — golang.org/x/sys/unix does not wrap mq_open on Linux, so this
// engine calls the raw syscall directly the way it does for Getrlimit in
// the filedescriptor package.
type mqAttr struct {
	Flags   int64
	Maxmsg  int64
	Msgsize int64
	Curmsgs int64
	pad     [4]int64
}

func mqOpen(name string, oflag int, mode uint32, attr *mqAttr) (int, error) {
	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return -1, err
	}

	var attrPtr uintptr
	if attr != nil {
		attrPtr = uintptr(unsafe.Pointer(attr))
	}

	fd, _, errno := unix.Syscall6(unix.SYS_MQ_OPEN, uintptr(unsafe.Pointer(p)), uintptr(oflag), uintptr(mode), attrPtr, 0, 0)
	if errno != 0 {
		return -1, errno
	}
	return int(fd), nil
}

// openMessageQueue implements the MessageQueue branch of PortSet.open()
// (spec §4.2).
func openMessageQueue(p *Port, ctx OpenContext) error {
	var attr *mqAttr
	if ctx.MqMaxMsg > 0 && ctx.MqMsgSize > 0 {
		attr = &mqAttr{
			Flags:   unix.O_NONBLOCK,
			Maxmsg:  int64(ctx.MqMaxMsg),
			Msgsize: int64(ctx.MqMsgSize),
		}
	}

	effective := ctx.SocketMode.WithUmask(ctx.Umask)
	fd, err := mqOpen(p.Addr.Path, unix.O_RDONLY|unix.O_CLOEXEC|unix.O_NONBLOCK|unix.O_CREAT, uint32(effective), attr)
	if err != nil {
		return fmt.Errorf("port: mq_open: %w", err)
	}

	// mq descriptors do not carry a conventional S_IFMT bit; only
	// ownership/mode are checked here, matching spec §4.2's "as for FIFO"
	// note for the mode/uid/gid half of the verification.
	if st, err := mqStat(fd); err == nil {
		conflict := st.Mode&07777 != uint32(effective)&07777
		if ctx.UID >= 0 && st.Uid != uint32(ctx.UID) {
			conflict = true
		}
		if ctx.GID >= 0 && st.Gid != uint32(ctx.GID) {
			conflict = true
		}
		if conflict {
			_ = unix.Close(fd)
			return ErrFileConflict
		}
	}

	p.FD = fd
	return nil
}

func mqStat(fd int) (unix.Stat_t, error) {
	var st unix.Stat_t
	err := unix.Fstat(fd, &st)
	return st, err
}
