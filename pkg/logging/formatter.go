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
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// LogEntry is what a Formatter renders.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
	Fields    map[string]interface{}
}

// Formatter renders a LogEntry, including the trailing newline.
type Formatter interface {
	Format(entry LogEntry) ([]byte, error)
}

// TextFormatter renders "[LEVEL] message key=value ..." with fields in key
// order.
type TextFormatter struct {
	// TimeFormat enables a leading timestamp when non-empty.
	TimeFormat string
	ShowLevel  bool
}

// Format implements Formatter.
func (f *TextFormatter) Format(entry LogEntry) ([]byte, error) {
	var b strings.Builder
	if f.TimeFormat != "" {
		b.WriteString(entry.Timestamp.Format(f.TimeFormat))
		b.WriteByte(' ')
	}
	if f.ShowLevel {
		fmt.Fprintf(&b, "[%s] ", strings.ToUpper(entry.Level.String()))
	}
	b.WriteString(entry.Message)
	for _, k := range sortedFieldKeys(entry.Fields) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// JSONFormatter renders one JSON object per line. Fields are inlined next
// to "time", "level" and "msg"; a field cannot replace those three keys.
type JSONFormatter struct {
	// TimeFormat defaults to time.RFC3339Nano.
	TimeFormat string
}

// Format implements Formatter.
func (f *JSONFormatter) Format(entry LogEntry) ([]byte, error) {
	doc := make(map[string]interface{}, len(entry.Fields)+3)
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		doc[k] = v
	}
	timeFmt := f.TimeFormat
	if timeFmt == "" {
		timeFmt = time.RFC3339Nano
	}
	doc["time"] = entry.Timestamp.UTC().Format(timeFmt)
	doc["level"] = entry.Level.String()
	doc["msg"] = entry.Message

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode log entry: %w", err)
	}
	return append(data, '\n'), nil
}

func sortedFieldKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
