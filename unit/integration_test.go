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

package unit_test

import (
	"context"
	"time"

	libeventloop "github.com/nabbar/sockunit/eventloop"
	libport "github.com/nabbar/sockunit/port"
	libspawner "github.com/nabbar/sockunit/spawner"
	libunit "github.com/nabbar/sockunit/unit"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// These specs wire the real poll(2)-backed EventLoop (package eventloop) and
// the real os/exec-backed ProcessSpawner (package spawner) behind a Unit,
// rather than the fakeLoop/fakeSpawner stand-ins the rest of this file uses.
// spawnStep/reapPid here ride the actual WatchPid->wait4->onExit path.
var _ = Describe("Unit driven by the real EventLoop and Spawner", func() {
	It("runs a real ExecStartPre child and reaches Listening once it exits", func() {
		loop, pump := libeventloop.New()
		Expect(pump.Start(context.Background())).To(Succeed())
		defer func() { _ = pump.Stop(context.Background()) }()

		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{}, false)}}
		manifest := &fakeManifest{unit: &fakeService{name: "svc"}}
		acc := &fakeAccepter{}
		spawner := libspawner.New()

		u := libunit.New(libunit.Config{ID: "real.socket"}, ports, loop, spawner, manifest, acc)
		u.SetService(&fakeService{name: "svc"})
		u.SetCommands(libunit.PhaseStartPre, []*libunit.ExecStep{{Path: "/bin/true"}})

		Expect(u.Start()).To(Succeed())
		Expect(u.State()).To(Equal(libunit.StartPre))

		Eventually(u.State, 2*time.Second, 10*time.Millisecond).Should(Equal(libunit.Listening))
		Expect(ports.opened).To(BeTrue())
	})

	It("routes a real ExecStartPre failure to Dead with result=ExitCode", func() {
		loop, pump := libeventloop.New()
		Expect(pump.Start(context.Background())).To(Succeed())
		defer func() { _ = pump.Stop(context.Background()) }()

		ports := &fakePortSet{ports: []*libport.Port{libport.NewPort(libport.KindSocket, libport.Address{}, false)}}
		manifest := &fakeManifest{unit: &fakeService{name: "svc"}}
		acc := &fakeAccepter{}
		spawner := libspawner.New()

		u := libunit.New(libunit.Config{ID: "real.socket"}, ports, loop, spawner, manifest, acc)
		u.SetService(&fakeService{name: "svc"})
		u.SetCommands(libunit.PhaseStartPre, []*libunit.ExecStep{{Path: "/bin/false"}})

		Expect(u.Start()).To(Succeed())

		Eventually(u.State, 2*time.Second, 10*time.Millisecond).Should(Equal(libunit.Dead))
		Expect(u.Result()).To(Equal(libunit.ExitCode))
	})
})
