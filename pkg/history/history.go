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

// Package history implements the append-only operation log carried by
// contract instances.
package history

import (
	"encoding/json"
	"fmt"
)

// Operation identifies the kind of state change an Entry records.
type Operation string

const (
	// OpInstantiate is recorded once, at index 0, when an instance is created.
	OpInstantiate Operation = "instantiate"
	// OpSign is recorded for every party signature.
	OpSign Operation = "sign"
)

// InstantiateState is the payload of an OpInstantiate entry.
type InstantiateState struct {
	Data map[string]interface{} `json:"data"`
}

// SignState is the payload of an OpSign entry.
type SignState struct {
	Signatory   string `json:"signatory,omitempty"`
	ContentHash string `json:"contentHash"`
}

// Entry is one history record. Exactly one payload pointer is set and it
// matches Operation.
type Entry struct {
	Operation   Operation         `json:"operation"`
	Timestamp   int64             `json:"timestamp"`
	Instantiate *InstantiateState `json:"instantiate,omitempty"`
	Sign        *SignState        `json:"sign,omitempty"`
}

// NewInstantiate returns an OpInstantiate entry.
func NewInstantiate(data map[string]interface{}, timestamp int64) Entry {
	return Entry{
		Operation:   OpInstantiate,
		Timestamp:   timestamp,
		Instantiate: &InstantiateState{Data: copyData(data)},
	}
}

// NewSign returns an OpSign entry.
func NewSign(signatory, contentHash string, timestamp int64) Entry {
	return Entry{
		Operation: OpSign,
		Timestamp: timestamp,
		Sign:      &SignState{Signatory: signatory, ContentHash: contentHash},
	}
}

// Validate checks that the payload matches the operation.
func (e Entry) Validate() error {
	switch e.Operation {
	case OpInstantiate:
		if e.Instantiate == nil || e.Sign != nil {
			return fmt.Errorf("history entry %q must carry only an instantiate payload", e.Operation)
		}
	case OpSign:
		if e.Sign == nil || e.Instantiate != nil {
			return fmt.Errorf("history entry %q must carry only a sign payload", e.Operation)
		}
	default:
		return fmt.Errorf("unknown history operation %q", e.Operation)
	}
	return nil
}

func (e Entry) clone() Entry {
	out := Entry{Operation: e.Operation, Timestamp: e.Timestamp}
	if e.Instantiate != nil {
		out.Instantiate = &InstantiateState{Data: copyData(e.Instantiate.Data)}
	}
	if e.Sign != nil {
		s := *e.Sign
		out.Sign = &s
	}
	return out
}

// Log is an immutable, ordered sequence of entries. The zero Log is empty.
type Log struct {
	entries []Entry
}

// Initial seeds a log with the instantiate entry.
func Initial(data map[string]interface{}, timestamp int64) Log {
	return Log{entries: []Entry{NewInstantiate(data, timestamp)}}
}

// Append returns a new log with e added at the end. l is not modified.
func Append(l Log, e Entry) Log {
	entries := make([]Entry, len(l.entries), len(l.entries)+1)
	copy(entries, l.entries)
	return Log{entries: append(entries, e.clone())}
}

// Len returns the number of entries.
func (l Log) Len() int { return len(l.entries) }

// At returns a copy of entry i.
func (l Log) At(i int) Entry { return l.entries[i].clone() }

// Entries returns a copy of all entries in order.
func (l Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.clone()
	}
	return out
}

// Validate checks that index 0 is the instantiate entry and every other
// entry is well formed.
func (l Log) Validate() error {
	if len(l.entries) == 0 {
		return fmt.Errorf("history is empty")
	}
	for i, e := range l.entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("history[%d]: %w", i, err)
		}
		if (i == 0) != (e.Operation == OpInstantiate) {
			return fmt.Errorf("history[%d]: instantiate must be the first and only the first entry", i)
		}
	}
	return nil
}

// MarshalJSON encodes the log as a JSON array.
func (l Log) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

// UnmarshalJSON decodes a JSON array of entries and validates it.
func (l *Log) UnmarshalJSON(b []byte) error {
	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	candidate := Log{entries: entries}
	if len(entries) > 0 {
		if err := candidate.Validate(); err != nil {
			return err
		}
	}
	*l = candidate
	return nil
}

// copyData makes a deep copy of JSON-like data.
func copyData(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = CopyValue(v)
	}
	return out
}

// CopyValue deep-copies a decoded JSON value.
func CopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyData(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = CopyValue(e)
		}
		return out
	default:
		return v
	}
}

// CopyData deep-copies a decoded JSON object.
func CopyData(in map[string]interface{}) map[string]interface{} {
	return copyData(in)
}
