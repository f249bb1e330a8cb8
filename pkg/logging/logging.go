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

// Package logging is the leveled, structured logger used by the signing
// packages and the cicero-sign CLI.
//
// Log output goes to stderr by default so command results written to stdout
// stay machine readable. Field values whose key names a secret (see
// SensitiveKeys) are replaced before formatting.
package logging

import (
	"fmt"
	"strings"
)

// LogLevel is the severity of a log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelSilent disables all output.
	LevelSilent
)

var levelNames = map[LogLevel]string{
	LevelDebug:  "debug",
	LevelInfo:   "info",
	LevelWarn:   "warn",
	LevelError:  "error",
	LevelSilent: "silent",
}

// String returns the lowercase level name.
func (l LogLevel) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "unknown"
}

// ParseLogLevel parses a level name, falling back to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	l, err := ParseLogLevelStrict(s)
	if err != nil {
		return LevelInfo
	}
	return l
}

// ParseLogLevelStrict parses a level name and rejects unknown names.
func ParseLogLevelStrict(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "none", "off":
		return LevelSilent, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// LogFormat selects the output encoding.
type LogFormat int

const (
	FormatText LogFormat = iota
	FormatJSON
)

// String returns the format name.
func (f LogFormat) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseLogFormat parses a format name, falling back to FormatText.
func ParseLogFormat(s string) LogFormat {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Logger is the logging interface accepted throughout the module.
type Logger interface {
	Debug(format string, args ...interface{})
	Debugln(msg string)
	Info(format string, args ...interface{})
	Infoln(msg string)
	Warn(format string, args ...interface{})
	Warnln(msg string)
	Error(format string, args ...interface{})
	Errorln(msg string)

	// GetLevel returns the minimum level that is written.
	GetLevel() LogLevel
	// Silent reports whether debug output is suppressed.
	Silent() bool

	// WithField returns a Logger that adds key=value to every entry.
	WithField(key string, value interface{}) Logger
	// WithFields returns a Logger that adds fields to every entry.
	WithFields(fields map[string]interface{}) Logger
}

// Default returns an info level text logger writing to stderr.
func Default() Logger {
	return NewLogger(false)
}

// Discard returns a logger that writes nothing.
func Discard() Logger {
	return NewLoggerWithOptions(LoggerOptions{Level: LevelSilent})
}

// EnsureLogger returns l, or Default() when l is nil.
func EnsureLogger(l Logger) Logger {
	if l == nil {
		return Default()
	}
	return l
}
