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

package runner_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	librun "github.com/nabbar/sockunit/runner"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRunner(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "runner suite")
}

var _ = Describe("Construction", func() {
	It("is not running and has zero uptime initially", func() {
		r := librun.New(
			func(ctx context.Context) error { return nil },
			func(ctx context.Context) error { return nil },
		)
		Expect(r.IsRunning()).To(BeFalse())
		Expect(r.Uptime()).To(BeZero())
		Expect(r.ErrorsLast()).To(BeNil())
		Expect(r.ErrorsList()).To(BeEmpty())
	})

	It("tolerates nil start/stop functions", func() {
		Expect(librun.New(nil, nil)).ToNot(BeNil())
	})
})

var _ = Describe("Lifecycle", func() {
	It("runs the start function and reports running", func() {
		x, n := context.WithTimeout(context.Background(), 5*time.Second)
		defer n()

		var running atomic.Bool
		start := func(c context.Context) error {
			running.Store(true)
			<-c.Done()
			running.Store(false)
			return nil
		}
		stop := func(c context.Context) error { return nil }

		r := librun.New(start, stop)
		Expect(r.Start(x)).ToNot(HaveOccurred())

		Eventually(func() bool { return running.Load() && r.IsRunning() }, time.Second).Should(BeTrue())

		Expect(r.Stop(x)).ToNot(HaveOccurred())
		Eventually(r.IsRunning, time.Second).Should(BeFalse())
	})

	It("calls stop exactly once even under repeated Stop calls", func() {
		x, n := context.WithTimeout(context.Background(), 5*time.Second)
		defer n()

		var stopCount atomic.Int32
		start := func(c context.Context) error { <-c.Done(); return nil }
		stop := func(c context.Context) error { stopCount.Add(1); return nil }

		r := librun.New(start, stop)
		Expect(r.Start(x)).ToNot(HaveOccurred())
		Eventually(r.IsRunning, time.Second).Should(BeTrue())

		Expect(r.Stop(x)).ToNot(HaveOccurred())
		Expect(r.Stop(x)).ToNot(HaveOccurred())

		Consistently(func() int32 { return stopCount.Load() }, 100*time.Millisecond).Should(Equal(int32(1)))
	})

	It("is a no-op to stop when never started", func() {
		r := librun.New(
			func(ctx context.Context) error { return nil },
			func(ctx context.Context) error { return nil },
		)
		Expect(r.Stop(context.Background())).ToNot(HaveOccurred())
	})

	It("stops the previous generation when Start is called again", func() {
		x, n := context.WithTimeout(context.Background(), 5*time.Second)
		defer n()

		var startCount atomic.Int32
		start := func(c context.Context) error {
			startCount.Add(1)
			<-c.Done()
			return nil
		}
		stop := func(c context.Context) error { return nil }

		r := librun.New(start, stop)
		Expect(r.Start(x)).ToNot(HaveOccurred())
		Eventually(r.IsRunning, time.Second).Should(BeTrue())

		first := startCount.Load()
		Expect(r.Start(x)).ToNot(HaveOccurred())
		Eventually(func() int32 { return startCount.Load() }, time.Second).Should(BeNumerically(">", first))

		_ = r.Stop(x)
	})

	It("restarts, producing a new generation", func() {
		x, n := context.WithTimeout(context.Background(), 5*time.Second)
		defer n()

		var startCount atomic.Int32
		start := func(c context.Context) error {
			startCount.Add(1)
			<-c.Done()
			return nil
		}
		stop := func(c context.Context) error { return nil }

		r := librun.New(start, stop)
		Expect(r.Start(x)).ToNot(HaveOccurred())
		Eventually(r.IsRunning, time.Second).Should(BeTrue())

		first := startCount.Load()
		Expect(r.Restart(x)).ToNot(HaveOccurred())
		Eventually(func() int32 { return startCount.Load() }, time.Second).Should(BeNumerically(">", first))

		_ = r.Stop(x)
	})
})

var _ = Describe("Uptime", func() {
	It("increases while running and resets to zero on stop", func() {
		x, n := context.WithTimeout(context.Background(), 5*time.Second)
		defer n()

		start := func(ctx context.Context) error { <-ctx.Done(); return nil }
		stop := func(ctx context.Context) error { return nil }

		r := librun.New(start, stop)
		Expect(r.Start(x)).ToNot(HaveOccurred())
		Eventually(r.IsRunning, time.Second).Should(BeTrue())

		time.Sleep(60 * time.Millisecond)
		u1 := r.Uptime()
		Expect(u1).To(BeNumerically(">", 0))

		time.Sleep(60 * time.Millisecond)
		u2 := r.Uptime()
		Expect(u2).To(BeNumerically(">", u1))

		Expect(r.Stop(x)).ToNot(HaveOccurred())
		Eventually(r.Uptime, time.Second).Should(BeZero())
	})
})

var _ = Describe("Errors", func() {
	It("records errors returned by the start/stop functions", func() {
		x, n := context.WithTimeout(context.Background(), 5*time.Second)
		defer n()

		startErr := context.DeadlineExceeded
		start := func(ctx context.Context) error { <-ctx.Done(); return startErr }
		stop := func(ctx context.Context) error { return nil }

		r := librun.New(start, stop)
		Expect(r.Start(x)).ToNot(HaveOccurred())
		Eventually(r.IsRunning, time.Second).Should(BeTrue())

		Expect(r.Stop(x)).ToNot(HaveOccurred())
		Eventually(r.ErrorsLast, time.Second).Should(Equal(startErr))
		Eventually(r.ErrorsList, time.Second).Should(ContainElement(startErr))
	})
})
