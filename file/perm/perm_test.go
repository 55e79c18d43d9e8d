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

package perm_test

import (
	"testing"

	libprm "github.com/nabbar/sockunit/file/perm"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPerm(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "perm suite")
}

var _ = Describe("Parse", func() {
	It("parses a plain octal string", func() {
		p, err := libprm.Parse("0644")
		Expect(err).ToNot(HaveOccurred())
		Expect(p).To(Equal(libprm.Perm(0644)))
	})

	It("parses a quoted octal string", func() {
		p, err := libprm.Parse(`"0755"`)
		Expect(err).ToNot(HaveOccurred())
		Expect(p).To(Equal(libprm.DefaultDirectory))
	})

	It("rejects non-octal input", func() {
		_, err := libprm.Parse("rwxr-xr-x")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("WithUmask", func() {
	It("clears bits present in the umask", func() {
		p := libprm.Perm(0666).WithUmask(0022)
		Expect(p).To(Equal(libprm.Perm(0644)))
	})
})

var _ = Describe("String/MarshalText", func() {
	It("formats as a # prefixed octal", func() {
		Expect(libprm.Perm(0755).String()).To(Equal("0755"))
	})
})

var _ = Describe("defaults", func() {
	It("matches the manifest defaults of spec §3", func() {
		Expect(libprm.DefaultDirectory).To(Equal(libprm.Perm(0755)))
		Expect(libprm.DefaultSocket).To(Equal(libprm.Perm(0666)))
	})
})
