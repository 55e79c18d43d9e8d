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

// Package duration wraps time.Duration with the parsing/formatting/viper
// integration the manifest surface needs for TimeoutSec and similar knobs
// (spec §6), trimmed from the teacher's much larger duration package down to
// the subset this engine exercises.
package duration

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	libmap "github.com/mitchellh/mapstructure"
)

// Duration is a time.Duration that unmarshals from a bare integer number of
// seconds (as systemd's TimeoutSec= does) or from a Go duration string
// ("90s", "1m30s").
type Duration time.Duration

// Seconds builds a Duration from a whole number of seconds.
func Seconds(n int64) Duration {
	return Duration(time.Duration(n) * time.Second)
}

func (d Duration) TimeDuration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) IsZero() bool {
	return d == 0
}

func (d *Duration) UnmarshalText(b []byte) error {
	s := string(b)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Seconds(n)
		return nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: invalid value %q: %w", s, err)
	}

	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DecodeHook is a mapstructure.DecodeHookFunc that lets viper/mapstructure
// decode a manifest's TimeoutSec-shaped field (string or integer seconds)
// directly into a Duration, following the same hook pattern the teacher
// uses for file/perm and network/protocol.
func DecodeHook() libmap.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		var zero Duration

		if to != reflect.TypeOf(zero) {
			return data, nil
		}

		switch from.Kind() {
		case reflect.String:
			var d Duration
			if err := d.UnmarshalText([]byte(data.(string))); err != nil {
				return nil, err
			}
			return d, nil
		case reflect.Int, reflect.Int32, reflect.Int64:
			return Seconds(reflect.ValueOf(data).Int()), nil
		default:
			return data, nil
		}
	}
}
