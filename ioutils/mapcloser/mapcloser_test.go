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

package mapcloser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	libmc "github.com/nabbar/sockunit/ioutils/mapcloser"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMapCloser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "mapcloser suite")
}

type fakeCloser struct {
	closed bool
	err    error
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return f.err
}

var _ = Describe("Closer", func() {
	It("registers and returns closers via Get/Len", func() {
		c := libmc.New(context.Background())
		a, b := &fakeCloser{}, &fakeCloser{}

		c.Add(a, b)
		Expect(c.Len()).To(Equal(2))
		Expect(c.Get()).To(HaveLen(2))
	})

	It("filters out nil closers", func() {
		c := libmc.New(context.Background())
		c.Add(nil, &fakeCloser{})
		Expect(c.Len()).To(Equal(1))
	})

	It("Clean removes all registered closers without closing them", func() {
		c := libmc.New(context.Background())
		a := &fakeCloser{}
		c.Add(a)
		c.Clean()

		Expect(c.Len()).To(Equal(0))
		Expect(a.closed).To(BeFalse())
	})

	It("Close closes every registered closer and aggregates errors", func() {
		c := libmc.New(context.Background())
		ok := &fakeCloser{}
		bad := &fakeCloser{err: errors.New("boom")}

		c.Add(ok, bad)

		err := c.Close()
		Expect(err).To(HaveOccurred())
		Expect(ok.closed).To(BeTrue())
		Expect(bad.closed).To(BeTrue())
	})

	It("returns an error on a second Close", func() {
		c := libmc.New(context.Background())
		Expect(c.Close()).ToNot(HaveOccurred())
		Expect(c.Close()).To(HaveOccurred())
	})

	It("closes automatically when its context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		c := libmc.New(ctx)

		a := &fakeCloser{}
		c.Add(a)

		cancel()

		Eventually(func() bool { return a.closed }, time.Second).Should(BeTrue())
	})

	It("Clone copies state independently", func() {
		c := libmc.New(context.Background())
		c.Add(&fakeCloser{})

		clone := c.Clone()
		Expect(clone).ToNot(BeNil())
		Expect(clone.Len()).To(Equal(1))

		clone.Add(&fakeCloser{})
		Expect(clone.Len()).To(Equal(2))
		Expect(c.Len()).To(Equal(1))
	})
})
