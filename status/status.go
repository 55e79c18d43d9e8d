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

// Package status projects a SocketUnit's 13-state machine down to the
// coarse ActiveState a supervisor (or a "systemctl"-like caller) actually
// cares about, the way the teacher's monitor/status package collapses a
// monitored resource's detail into KO/Warn/OK. Modeled on that package's
// Status type: a small uint8 enum with String/Parse/mapstructure hook.
package status

import (
	"reflect"
	"strings"

	libmap "github.com/mitchellh/mapstructure"
)

// ActiveState is the coarse state a SocketUnit reports to the outside
// world (spec §2 groups the 13 internal states into these bands).
type ActiveState uint8

const (
	Inactive ActiveState = iota
	Activating
	Active
	Deactivating
	Failed
)

var activeStateNames = map[ActiveState]string{
	Inactive:     "inactive",
	Activating:   "activating",
	Active:       "active",
	Deactivating: "deactivating",
	Failed:       "failed",
}

func (a ActiveState) String() string {
	if s, ok := activeStateNames[a]; ok {
		return s
	}
	return "inactive"
}

func (a ActiveState) Int() int {
	return int(a)
}

// Parse accepts the canonical names case-insensitively, trimmed of
// surrounding whitespace and quotes; anything unrecognized is Inactive.
func Parse(s string) ActiveState {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, `"'`)

	for k, v := range activeStateNames {
		if v == s {
			return k
		}
	}
	return Inactive
}

func (a *ActiveState) UnmarshalText(b []byte) error {
	*a = Parse(string(b))
	return nil
}

func (a ActiveState) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func DecodeHook() libmap.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		var zero ActiveState

		if from.Kind() != reflect.String || to != reflect.TypeOf(zero) {
			return data, nil
		}

		return Parse(data.(string)), nil
	}
}
