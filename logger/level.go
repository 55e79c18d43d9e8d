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

package logger

import "github.com/hashicorp/go-hclog"

// Level mirrors the teacher's logger/level package ordering: lower is more
// severe, NilLevel silences the logger entirely.
type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	NilLevel
)

func (l Level) Int() int {
	return int(l)
}

func (l Level) Code() string {
	switch l {
	case PanicLevel:
		return "Crit"
	case FatalLevel:
		return "Fatal"
	case ErrorLevel:
		return "Err"
	case WarnLevel:
		return "Warn"
	case InfoLevel:
		return "Info"
	case DebugLevel:
		return "Debug"
	default:
		return "None"
	}
}

func (l Level) String() string {
	return l.Code()
}

// hclogLevel maps to the equivalent github.com/hashicorp/go-hclog level.
func (l Level) hclogLevel() hclog.Level {
	switch l {
	case PanicLevel, FatalLevel, ErrorLevel:
		return hclog.Error
	case WarnLevel:
		return hclog.Warn
	case InfoLevel:
		return hclog.Info
	case DebugLevel:
		return hclog.Debug
	default:
		return hclog.Off
	}
}
