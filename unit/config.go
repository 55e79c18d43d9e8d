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
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	libduration "github.com/nabbar/sockunit/duration"
	libperm "github.com/nabbar/sockunit/file/perm"
	libproto "github.com/nabbar/sockunit/network/protocol"
)

// LoadConfig decodes a manifest's [Socket] block out of v into a Config,
// composing this module's mapstructure decode hooks the same way the
// teacher's ViperDecoderHook doc comment prescribes (file/perm.DecodeHook,
// network/protocol.DecodeHook, duration.DecodeHook).
func LoadConfig(v *viper.Viper) (Config, error) {
	var cfg Config

	opt := viper.DecoderConfigOption(func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			libperm.DecodeHook(),
			libproto.DecodeHook(),
			libduration.DecodeHook(),
		)
	})

	if err := v.Unmarshal(&cfg, opt); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
