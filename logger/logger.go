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

// Package logger is the structured logging surface every other package
// writes state transitions, spawn failures, and dispatch events through —
// trimmed from the teacher's much larger logger package down to a single
// hclog-backed implementation (the teacher's syslog/file/gorm/gin hooks are
// dropped: this engine runs as a single foreground/daemon process writing
// to whatever io.Writer the caller hands it, usually the unit's own
// stderr).
package logger

import (
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Logger is the structured logging contract used throughout this module.
type Logger interface {
	SetLevel(lvl Level)
	GetLevel() Level

	With(fields Fields) Logger
	Named(name string) Logger

	Debug(message string, fields Fields)
	Info(message string, fields Fields)
	Warning(message string, fields Fields)
	Error(message string, fields Fields)

	// Hclog exposes the underlying hclog.Logger, for wiring into libraries
	// (e.g. a DB driver) that accept one directly.
	Hclog() hclog.Logger
}

type lgr struct {
	mu     sync.RWMutex
	level  Level
	fields Fields
	hc     hclog.Logger
}

// New builds a Logger named name, writing through an hclog.Logger at
// InfoLevel by default.
func New(name string) Logger {
	l := &lgr{
		level:  InfoLevel,
		fields: Fields{},
		hc: hclog.New(&hclog.LoggerOptions{
			Name:  name,
			Level: InfoLevel.hclogLevel(),
		}),
	}
	return l
}

func (l *lgr) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = lvl
	l.hc.SetLevel(lvl.hclogLevel())
}

func (l *lgr) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *lgr) With(fields Fields) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	merged := l.fields.Merge(fields)
	return &lgr{
		level:  l.level,
		fields: merged,
		hc:     l.hc.With(merged.hclogArgs()...),
	}
}

func (l *lgr) Named(name string) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return &lgr{
		level:  l.level,
		fields: l.fields,
		hc:     l.hc.Named(name),
	}
}

func (l *lgr) Debug(message string, fields Fields) {
	l.hc.Debug(message, fields.hclogArgs()...)
}

func (l *lgr) Info(message string, fields Fields) {
	l.hc.Info(message, fields.hclogArgs()...)
}

func (l *lgr) Warning(message string, fields Fields) {
	l.hc.Warn(message, fields.hclogArgs()...)
}

func (l *lgr) Error(message string, fields Fields) {
	l.hc.Error(message, fields.hclogArgs()...)
}

func (l *lgr) Hclog() hclog.Logger {
	return l.hc
}
