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

package unit_test

import (
	"time"

	"github.com/spf13/viper"

	libunit "github.com/nabbar/sockunit/unit"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoadConfig", func() {
	It("decodes a manifest-shaped map into Config, including TimeoutUsec", func() {
		v := viper.New()
		v.Set("id", "echo.socket")
		v.Set("accept", true)
		v.Set("max_connections", 16)
		v.Set("timeout_usec", "30s")
		v.Set("service_name", "echo@.service")
		v.Set("triggers", []string{"sibling.socket"})

		cfg, err := libunit.LoadConfig(v)
		Expect(err).ToNot(HaveOccurred())

		Expect(cfg.ID).To(Equal("echo.socket"))
		Expect(cfg.Accept).To(BeTrue())
		Expect(cfg.MaxConnections).To(Equal(16))
		Expect(cfg.TimeoutUsec.TimeDuration()).To(Equal(30 * time.Second))
		Expect(cfg.ServiceName).To(Equal("echo@.service"))
		Expect(cfg.Triggers).To(ConsistOf("sibling.socket"))
	})

	It("decodes a bare-integer TimeoutUsec as whole seconds", func() {
		v := viper.New()
		v.Set("timeout_usec", 90)

		cfg, err := libunit.LoadConfig(v)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.TimeoutUsec.TimeDuration()).To(Equal(90 * time.Second))
	})
})
