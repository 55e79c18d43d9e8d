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

// Package errors provides the CodeError/Error chain used as the result type
// of the socket-activation engine. It mirrors the chaining-error model of
// the teacher library: every Error carries a numeric code, a message, an
// optional parent chain and a caller trace frame.
package errors

// CodeError is the numeric result/verification code carried by an Error.
// The first block matches SocketUnit.result (spec §3); the second block is
// returned only from load-time verify() failures (spec §6/§7).
type CodeError uint16

const (
	Success CodeError = iota
	Resources
	Timeout
	ExitCode
	Signal
	CoreDump
	ServiceFailedPermanent

	InvalidConfig
	FileConflict
	UnitVanished
	PermissionDenied
	NotSupported
)

func (c CodeError) Uint16() uint16 {
	return uint16(c)
}

func (c CodeError) String() string {
	switch c {
	case Success:
		return "success"
	case Resources:
		return "resources"
	case Timeout:
		return "timeout"
	case ExitCode:
		return "exit-code"
	case Signal:
		return "signal"
	case CoreDump:
		return "core-dump"
	case ServiceFailedPermanent:
		return "service-failed-permanent"
	case InvalidConfig:
		return "invalid-config"
	case FileConflict:
		return "file-conflict"
	case UnitVanished:
		return "unit-vanished"
	case PermissionDenied:
		return "permission-denied"
	case NotSupported:
		return "not-supported"
	default:
		return "unknown"
	}
}

// IsResult reports whether c belongs to the §3 `result` enumeration, as
// opposed to a load-time-only verification code.
func (c CodeError) IsResult() bool {
	return c <= ServiceFailedPermanent
}
