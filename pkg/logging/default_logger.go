// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var _ Logger = (*DefaultLogger)(nil)

// Redacted replaces the value of sensitive fields.
const Redacted = "[REDACTED]"

// SensitiveKeys lists field key fragments whose values are never written.
// Matching is case-insensitive on a substring of the key.
var SensitiveKeys = []string{"passphrase", "password", "privatekey", "private_key", "keystore_blob"}

// LoggerOptions configures a DefaultLogger.
type LoggerOptions struct {
	Level  LogLevel
	Format LogFormat
	// Formatter overrides Format, TimeFormat and ShowLevel when set.
	Formatter Formatter
	// Output defaults to os.Stderr.
	Output     io.Writer
	TimeFormat string
	ShowLevel  bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// DefaultLoggerOptions returns info level text output on stderr.
func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		Level:  LevelInfo,
		Format: FormatText,
		Output: os.Stderr,
	}
}

// DefaultLogger is the built-in Logger. It is safe for concurrent use.
type DefaultLogger struct {
	mu        sync.Mutex
	level     LogLevel
	formatter Formatter
	out       io.Writer
	now       func() time.Time
	fields    map[string]interface{}
}

// NewLogger returns a text logger on stderr at debug level when verbose is
// set, info level otherwise.
func NewLogger(verbose bool) *DefaultLogger {
	opts := DefaultLoggerOptions()
	if verbose {
		opts.Level = LevelDebug
	}
	return NewLoggerWithOptions(opts)
}

// NewLoggerWithOptions returns a DefaultLogger configured by opts.
func NewLoggerWithOptions(opts LoggerOptions) *DefaultLogger {
	l := &DefaultLogger{
		level:     opts.Level,
		formatter: opts.Formatter,
		out:       opts.Output,
		now:       opts.Now,
	}
	if l.out == nil {
		l.out = os.Stderr
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.formatter == nil {
		if opts.Format == FormatJSON {
			l.formatter = &JSONFormatter{TimeFormat: opts.TimeFormat}
		} else {
			l.formatter = &TextFormatter{TimeFormat: opts.TimeFormat, ShowLevel: opts.ShowLevel}
		}
	}
	return l
}

// WithFields returns a child logger with fields merged over the parent's.
func (l *DefaultLogger) WithFields(fields map[string]interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = redact(k, v)
	}
	return &DefaultLogger{
		level:     l.level,
		formatter: l.formatter,
		out:       l.out,
		now:       l.now,
		fields:    merged,
	}
}

// WithField returns a child logger with one more field.
func (l *DefaultLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *DefaultLogger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *DefaultLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

// Silent reports whether debug output is suppressed.
func (l *DefaultLogger) Silent() bool {
	return l.GetLevel() > LevelDebug
}

// Enabled reports whether a message at level would be written.
func (l *DefaultLogger) Enabled(level LogLevel) bool {
	return level != LevelSilent && level >= l.GetLevel()
}

func (l *DefaultLogger) log(level LogLevel, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level || l.level == LevelSilent {
		return
	}

	data, err := l.formatter.Format(LogEntry{
		Timestamp: l.now(),
		Level:     level,
		Message:   msg,
		Fields:    l.fields,
	})
	if err != nil {
		fmt.Fprintf(l.out, "logging: %v\n", err)
		return
	}
	_, _ = l.out.Write(data)
}

func (l *DefaultLogger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, fmt.Sprintf(format, args...))
}
func (l *DefaultLogger) Debugln(msg string) { l.log(LevelDebug, msg) }

func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...))
}
func (l *DefaultLogger) Infoln(msg string) { l.log(LevelInfo, msg) }

func (l *DefaultLogger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...))
}
func (l *DefaultLogger) Warnln(msg string) { l.log(LevelWarn, msg) }

func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...))
}
func (l *DefaultLogger) Errorln(msg string) { l.log(LevelError, msg) }

func redact(key string, value interface{}) interface{} {
	k := strings.ToLower(key)
	for _, s := range SensitiveKeys {
		if strings.Contains(k, s) {
			return Redacted
		}
	}
	return value
}
