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
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newBufferLogger(level LogLevel, format LogFormat) (*DefaultLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLoggerWithOptions(LoggerOptions{
		Level:     level,
		Format:    format,
		Output:    &buf,
		ShowLevel: true,
		Now:       func() time.Time { return fixedTime },
	})
	return l, &buf
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name       string
		verbose    bool
		wantLevel  LogLevel
		wantSilent bool
	}{
		{"verbose", true, LevelDebug, false},
		{"quiet", false, LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLogger(tt.verbose)
			if l.GetLevel() != tt.wantLevel {
				t.Errorf("GetLevel() = %v, want %v", l.GetLevel(), tt.wantLevel)
			}
			if l.Silent() != tt.wantSilent {
				t.Errorf("Silent() = %v, want %v", l.Silent(), tt.wantSilent)
			}
			if l.out != os.Stderr {
				t.Error("NewLogger() should write to os.Stderr")
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  []string
	}{
		{LevelDebug, []string{"d", "i", "w", "e"}},
		{LevelInfo, []string{"i", "w", "e"}},
		{LevelWarn, []string{"w", "e"}},
		{LevelError, []string{"e"}},
		{LevelSilent, nil},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			l, buf := newBufferLogger(tt.level, FormatText)
			l.Debug("%s", "d")
			l.Infoln("i")
			l.Warn("w")
			l.Errorln("e")

			var got []string
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				if line == "" {
					continue
				}
				got = append(got, line[strings.LastIndex(line, " ")+1:])
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTextFormatterSortsFields(t *testing.T) {
	l, buf := newBufferLogger(LevelInfo, FormatText)
	l.WithFields(map[string]interface{}{"zeta": 1, "alpha": "a"}).Info("signed %s", "t@1.0.0")

	want := "[INFO] signed t@1.0.0 alpha=a zeta=1\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestJSONFormatter(t *testing.T) {
	l, buf := newBufferLogger(LevelInfo, FormatJSON)
	l.WithField("instance", "abc").WithField("err", errors.New("boom")).Warnln("careful")

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	checks := map[string]string{
		"level":    "warn",
		"msg":      "careful",
		"instance": "abc",
		"err":      "boom",
		"time":     "2026-01-02T03:04:05Z",
	}
	for k, want := range checks {
		if doc[k] != want {
			t.Errorf("%s = %v, want %q", k, doc[k], want)
		}
	}
}

func TestSensitiveFieldsAreRedacted(t *testing.T) {
	l, buf := newBufferLogger(LevelInfo, FormatText)
	l.WithFields(map[string]interface{}{
		"passphrase":       "hunter2",
		"KeystorePassword": "hunter3",
		"path":             "/tmp/ks.p12",
	}).Infoln("loading")

	out := buf.String()
	if strings.Contains(out, "hunter") {
		t.Errorf("secret leaked: %q", out)
	}
	if !strings.Contains(out, "passphrase="+Redacted) {
		t.Errorf("passphrase not redacted: %q", out)
	}
	if !strings.Contains(out, "path=/tmp/ks.p12") {
		t.Errorf("ordinary field missing: %q", out)
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	parent, buf := newBufferLogger(LevelInfo, FormatText)
	_ = parent.WithField("child", true)
	parent.Infoln("plain")
	if strings.Contains(buf.String(), "child") {
		t.Errorf("parent picked up child field: %q", buf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" INFO ", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"off", LevelSilent, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevelStrict(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevelStrict(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevelStrict(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if ParseLogLevel(tt.in) != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, ParseLogLevel(tt.in), tt.want)
			}
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	if ParseLogFormat("JSON") != FormatJSON {
		t.Error("ParseLogFormat(JSON) should be FormatJSON")
	}
	for _, s := range []string{"text", "", "yaml"} {
		if ParseLogFormat(s) != FormatText {
			t.Errorf("ParseLogFormat(%q) should be FormatText", s)
		}
	}
	if FormatJSON.String() != "json" || LogFormat(9).String() != "unknown" {
		t.Error("unexpected LogFormat.String()")
	}
	if LogLevel(42).String() != "unknown" {
		t.Error("unexpected LogLevel.String()")
	}
}

func TestDiscardAndEnsure(t *testing.T) {
	d := Discard()
	if d.GetLevel() != LevelSilent {
		t.Errorf("Discard().GetLevel() = %v", d.GetLevel())
	}
	if EnsureLogger(d) != d {
		t.Error("EnsureLogger should return a non-nil logger unchanged")
	}
	if EnsureLogger(nil) == nil {
		t.Error("EnsureLogger(nil) returned nil")
	}
}

func TestEnabled(t *testing.T) {
	l, _ := newBufferLogger(LevelWarn, FormatText)
	if l.Enabled(LevelInfo) || !l.Enabled(LevelError) {
		t.Error("Enabled() disagrees with the configured level")
	}
	l.SetLevel(LevelDebug)
	if !l.Enabled(LevelDebug) {
		t.Error("SetLevel did not take effect")
	}
}
