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

package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// Error is a chaining error carrying a CodeError, a message, an optional
// set of parent errors and the frame of its caller. It implements the
// standard errors.Is/errors.Unwrap protocol.
type Error interface {
	error

	Code() CodeError
	Is(err error) bool
	Unwrap() []error

	Add(parent ...error) Error
	HasCode(code CodeError) bool
	Trace() string
}

type ers struct {
	c CodeError
	m string
	p []error
	t runtime.Frame
}

// New builds an Error with the given code and formatted message, capturing
// the immediate caller's frame for Trace().
func New(code CodeError, format string, args ...interface{}) Error {
	e := &ers{
		c: code,
		m: fmt.Sprintf(format, args...),
	}

	if pc, file, line, ok := runtime.Caller(1); ok {
		fn := runtime.FuncForPC(pc)
		name := ""
		if fn != nil {
			name = fn.Name()
		}
		e.t = runtime.Frame{File: file, Line: line, Function: name}
	}

	return e
}

// Wrap attaches parent errors to a fresh Error without discarding them —
// used when an operation must surface a single CodeError while preserving
// the underlying cause(s) for logging.
func Wrap(code CodeError, msg string, parents ...error) Error {
	e := New(code, "%s", msg)
	return e.Add(parents...)
}

func (e *ers) Error() string {
	if e.m == "" {
		return e.c.String()
	}
	return e.m
}

func (e *ers) Code() CodeError {
	return e.c
}

func (e *ers) Trace() string {
	if e.t.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filterPath(e.t.File), e.t.Line)
}

func (e *ers) Add(parent ...error) Error {
	for _, v := range parent {
		if v != nil {
			e.p = append(e.p, v)
		}
	}
	return e
}

func (e *ers) Unwrap() []error {
	return e.p
}

func (e *ers) Is(err error) bool {
	if err == nil {
		return false
	}

	if o, ok := err.(*ers); ok {
		return o.c == e.c && strings.EqualFold(o.m, e.m)
	}

	return strings.EqualFold(e.m, err.Error())
}

func (e *ers) HasCode(code CodeError) bool {
	if e.c == code {
		return true
	}

	for _, p := range e.p {
		if er, ok := p.(Error); ok && er.HasCode(code) {
			return true
		}
	}

	return false
}

func filterPath(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
