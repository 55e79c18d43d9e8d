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

package spawner_test

import (
	"syscall"
	"testing"
	"time"

	libcollab "github.com/nabbar/sockunit/collab"
	libspawner "github.com/nabbar/sockunit/spawner"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSpawner(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "spawner suite")
}

var _ = Describe("Spawner.Spawn", func() {
	It("returns a live pid for a simple command without waiting on it", func() {
		s := libspawner.New()
		pid, err := s.Spawn(libcollab.SpawnRequest{ExecStep: "/bin/sleep", Argv: []string{"0.2"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(pid).To(BeNumerically(">", 0))

		Expect(syscall.Kill(pid, 0)).To(Succeed())

		var ws syscall.WaitStatus
		_, werr := syscall.Wait4(pid, &ws, 0, nil)
		Expect(werr).NotTo(HaveOccurred())
	})

	It("surfaces a start failure for a nonexistent executable", func() {
		s := libspawner.New()
		_, err := s.Spawn(libcollab.SpawnRequest{ExecStep: "/no/such/executable-xyz"})
		Expect(err).To(HaveOccurred())
	})

	It("blocks on ConfirmSpawn until the child signals readiness", func() {
		s := libspawner.New()

		// The shell script writes one byte to its readiness fd (3) as soon
		// as it starts, then sleeps briefly before exiting.
		script := `echo ready >&3; sleep 0.05`
		start := time.Now()
		pid, err := s.Spawn(libcollab.SpawnRequest{
			ExecStep:     "/bin/sh",
			Argv:         []string{"-c", script},
			ConfirmSpawn: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(pid).To(BeNumerically(">", 0))
		Expect(time.Since(start)).To(BeNumerically("<", time.Second))

		var ws syscall.WaitStatus
		_, werr := syscall.Wait4(pid, &ws, 0, nil)
		Expect(werr).NotTo(HaveOccurred())
	})

	It("times out waiting for readiness from a child that never confirms", func() {
		s := libspawner.New()

		pid, err := s.Spawn(libcollab.SpawnRequest{
			ExecStep:     "/bin/sh",
			Argv:         []string{"-c", "sleep 0.05"},
			ConfirmSpawn: true,
		})
		// The pipe's write end closes when the child exits without ever
		// writing, which unblocks waitReady with io.EOF — reported as an
		// error rather than a hang.
		Expect(err).To(HaveOccurred())
		Expect(pid).To(BeNumerically(">", 0))

		var ws syscall.WaitStatus
		_, _ = syscall.Wait4(pid, &ws, 0, nil)
	})
})
