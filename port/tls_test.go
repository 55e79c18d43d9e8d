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

package port_test

import (
	libcert "github.com/nabbar/sockunit/certificates"
	libport "github.com/nabbar/sockunit/port"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ApplyTLS", func() {
	It("leaves Port.TLS nil when the block is disabled", func() {
		p := libport.NewPort(libport.KindSocket, libport.Address{}, true)
		Expect(libport.ApplyTLS(p, libcert.Config{})).To(Succeed())
		Expect(p.TLS).To(BeNil())
	})

	It("surfaces a config error without touching Port.TLS", func() {
		p := libport.NewPort(libport.KindSocket, libport.Address{}, true)
		err := libport.ApplyTLS(p, libcert.Config{Enabled: true})
		Expect(err).To(HaveOccurred())
		Expect(p.TLS).To(BeNil())
	})
})
