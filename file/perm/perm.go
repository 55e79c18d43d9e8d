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

// Package perm wraps os.FileMode for the manifest's DirectoryMode/SocketMode
// keys (spec §6), trimmed from the teacher's file/perm package down to octal
// parsing/formatting and a viper decode hook.
package perm

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	libmap "github.com/mitchellh/mapstructure"
)

type Perm os.FileMode

// DefaultDirectory is the default directoryMode (spec §3).
const DefaultDirectory Perm = 0755

// DefaultSocket is the default socketMode (spec §3).
const DefaultSocket Perm = 0666

func Parse(s string) (Perm, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)

	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("perm: invalid octal mode %q: %w", s, err)
	}

	return Perm(n), nil
}

func ParseFileMode(m os.FileMode) Perm {
	return Perm(m)
}

func (p Perm) FileMode() os.FileMode {
	return os.FileMode(p)
}

func (p Perm) String() string {
	return fmt.Sprintf("%#o", uint32(p))
}

// WithUmask returns the effective mode after applying umask, as PortSet
// does for mkfifo/mq_open (spec §4.2: "effective mode (socketMode & ~oldUmask)").
func (p Perm) WithUmask(umask int) Perm {
	return p &^ Perm(umask)
}

func (p *Perm) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Perm) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func DecodeHook() libmap.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		var zero Perm

		if from.Kind() != reflect.String || to != reflect.TypeOf(zero) {
			return data, nil
		}

		return Parse(data.(string))
	}
}
