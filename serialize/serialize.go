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

// Package serialize is component E of the engine (SPEC_FULL.md §A): it
// emits and consumes the textual `key value` snapshot a SocketUnit carries
// across a controlled re-execution (spec §4.5, §8 law "serialize then
// deserialize on an inactive snapshot round-trips").
package serialize

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PortKind mirrors port.Kind without importing package port, keeping
// serialize free of a dependency its tests don't need.
type PortKind string

const (
	PortFifo     PortKind = "fifo"
	PortSpecial  PortKind = "special"
	PortMQueue   PortKind = "mqueue"
	PortSocket   PortKind = "socket"
	PortNetlink  PortKind = "netlink"
)

// PortEntry is one `<kind> <copy> ...` line (spec §4.5): a duplicated fd
// index into an external FdBag plus the textual address/path that lets
// distributeFds structurally match it back to a Port.
type PortEntry struct {
	Kind       PortKind
	BagIndex   int
	Path       string // fifo/special/mqueue path, or socket/netlink address
	SocketType string // only meaningful for PortSocket/PortNetlink
}

// Snapshot is everything StateSerializer round-trips for one SocketUnit
// (spec §4.5, §8 law 3).
type Snapshot struct {
	// State and Result are the SocketUnit's own 13-state / result-kind
	// names (spec §3), passed through as plain strings so this package
	// does not need to depend on the state-machine package — the caller
	// converts to/from its own enum.
	State          string
	Result         string
	NAccepted      uint64
	ControlPID     int
	ControlCommand string
	Ports          []PortEntry
	TmpDir         string
	VarTmpDir      string
}

// Write emits Snapshot as a stream of `key value` lines (spec §4.5).
func Write(w io.Writer, s Snapshot) error {
	bw := bufio.NewWriter(w)

	lines := [][2]string{
		{"state", s.State},
		{"result", s.Result},
		{"n-accepted", strconv.FormatUint(s.NAccepted, 10)},
		{"control-pid", strconv.Itoa(s.ControlPID)},
		{"control-command", s.ControlCommand},
		{"tmp-dir", s.TmpDir},
		{"var-tmp-dir", s.VarTmpDir},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(bw, "%s %s\n", l[0], l[1]); err != nil {
			return err
		}
	}

	for _, p := range s.Ports {
		var line string
		switch p.Kind {
		case PortSocket, PortNetlink:
			line = fmt.Sprintf("%s %d %s %s\n", p.Kind, p.BagIndex, p.SocketType, p.Path)
		default:
			line = fmt.Sprintf("%s %d %s\n", p.Kind, p.BagIndex, p.Path)
		}
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Read consumes a stream previously produced by Write. Unknown keys are
// ignored (forward-compat, spec §4.5).
func Read(r io.Reader) (Snapshot, error) {
	var s Snapshot
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		key := fields[0]
		rest := fields[1:]

		switch PortKind(key) {
		case PortFifo, PortSpecial, PortMQueue:
			if len(rest) < 2 {
				continue
			}
			idx, err := strconv.Atoi(rest[0])
			if err != nil {
				continue
			}
			s.Ports = append(s.Ports, PortEntry{Kind: PortKind(key), BagIndex: idx, Path: strings.Join(rest[1:], " ")})
			continue
		case PortSocket, PortNetlink:
			if len(rest) < 3 {
				continue
			}
			idx, err := strconv.Atoi(rest[0])
			if err != nil {
				continue
			}
			s.Ports = append(s.Ports, PortEntry{
				Kind:       PortKind(key),
				BagIndex:   idx,
				SocketType: rest[1],
				Path:       strings.Join(rest[2:], " "),
			})
			continue
		}

		value := strings.Join(rest, " ")
		switch key {
		case "state":
			s.State = value
		case "result":
			s.Result = value
		case "n-accepted":
			if n, err := strconv.ParseUint(value, 10, 64); err == nil {
				s.NAccepted = n
			}
		case "control-pid":
			if n, err := strconv.Atoi(value); err == nil {
				s.ControlPID = n
			}
		case "control-command":
			s.ControlCommand = value
		case "tmp-dir":
			s.TmpDir = value
		case "var-tmp-dir":
			s.VarTmpDir = value
		default:
			// unknown key: ignored, forward-compat (spec §4.5).
		}
	}

	return s, scanner.Err()
}
