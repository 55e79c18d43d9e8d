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
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	libmapcloser "github.com/nabbar/sockunit/ioutils/mapcloser"
)

// rmCloser adapts os.RemoveAll to io.Closer so a scratch directory can be
// tracked in the same handle bag as any other per-activation resource.
type rmCloser string

func (d rmCloser) Close() error { return os.RemoveAll(string(d)) }

// ensureScratchDirsLocked lazily allocates this unit's private tmp-dir and
// var-tmp-dir (spec §4.5 "tmp-dir"/"var-tmp-dir"), uuid-suffixed the same
// way a re-exec's snapshot round-trips them, tracking both in a fresh
// handle bag (package ioutils/mapcloser) so a single Close guarantees both
// are removed even if one RemoveAll fails. A coldplugged unit already
// carries both from LoadState, so this is a no-op on restart.
func (u *Unit) ensureScratchDirsLocked() {
	if u.tmpDir != "" && u.varTmpDir != "" {
		return
	}

	suffix := uuid.New().String()
	u.tmpDir = filepath.Join(os.TempDir(), "sockunit-"+u.id+"-"+suffix)
	u.varTmpDir = filepath.Join(string(filepath.Separator), "var", "tmp", "sockunit-"+u.id+"-"+suffix)

	_ = os.MkdirAll(u.tmpDir, 0700)
	_ = os.MkdirAll(u.varTmpDir, 0700)

	u.scratchCloser = libmapcloser.New(context.Background())
	u.scratchCloser.Add(rmCloser(u.tmpDir), rmCloser(u.varTmpDir))
}

// releaseScratchDirsLocked removes both scratch directories once the unit
// reaches a terminal state (spec §4.5: these are per-activation, not
// persisted beyond one run), mirroring PrivateTmp teardown semantics.
func (u *Unit) releaseScratchDirsLocked() {
	if u.scratchCloser != nil {
		_ = u.scratchCloser.Close()
		u.scratchCloser = nil
	}
	u.tmpDir = ""
	u.varTmpDir = ""
}

// scratchEnv returns the TMPDIR-style environment entries a spawned hook
// should inherit, once scratch dirs have been allocated.
func (u *Unit) scratchEnv() []string {
	if u.tmpDir == "" {
		return nil
	}
	return []string{"TMPDIR=" + u.tmpDir, "SOCKUNIT_VAR_TMP_DIR=" + u.varTmpDir}
}
