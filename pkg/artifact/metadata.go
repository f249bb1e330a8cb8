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

package artifact

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sanketshevkar/cicero/pkg/history"
)

// TemplateType distinguishes full contract templates from clause templates.
type TemplateType string

const (
	TemplateTypeContract TemplateType = "contract"
	TemplateTypeClause   TemplateType = "clause"
)

// Metadata describes a template. It is an immutable value: every With*
// method returns a modified copy and accessors return copies of any maps
// or slices.
type Metadata struct {
	name         string
	version      string
	description  string
	displayName  string
	keywords     []string
	templateType TemplateType
	runtime      string
	contractType string
	logo         []byte
	samples      map[string]string
	request      map[string]interface{}
	dataSchema   json.RawMessage
}

// NewMetadata returns metadata for name at version. version must be a
// semantic version.
func NewMetadata(name, version string) (Metadata, error) {
	if strings.TrimSpace(name) == "" {
		return Metadata{}, fmt.Errorf("template name is required")
	}
	if _, err := semver.StrictNewVersion(version); err != nil {
		return Metadata{}, fmt.Errorf("invalid template version %q: %w", version, err)
	}
	return Metadata{name: name, version: version}, nil
}

func (m Metadata) Name() string               { return m.name }
func (m Metadata) Version() string            { return m.version }
func (m Metadata) Description() string        { return m.description }
func (m Metadata) DisplayName() string        { return m.displayName }
func (m Metadata) TemplateType() TemplateType { return m.templateType }
func (m Metadata) Runtime() string            { return m.runtime }

// ContractType is the fully qualified type name the bound data must carry
// in its $class property.
func (m Metadata) ContractType() string { return m.contractType }

// Identifier returns name@version.
func (m Metadata) Identifier() string { return m.name + "@" + m.version }

// SemVer parses the version.
func (m Metadata) SemVer() (*semver.Version, error) {
	return semver.StrictNewVersion(m.version)
}

func (m Metadata) Keywords() []string { return copyStrings(m.keywords) }
func (m Metadata) Logo() []byte       { return copyBytes(m.logo) }

// Samples returns the sample texts keyed by locale.
func (m Metadata) Samples() map[string]string { return copyStringMap(m.samples) }

// Request returns the sample request object.
func (m Metadata) Request() map[string]interface{} { return history.CopyData(m.request) }

// DataSchema returns the JSON schema for contract data, or nil.
func (m Metadata) DataSchema() json.RawMessage { return copyBytes(m.dataSchema) }

// Sample returns the sample text for locale, falling back to "default".
func (m Metadata) Sample(locale string) (string, bool) {
	if s, ok := m.samples[locale]; ok {
		return s, true
	}
	s, ok := m.samples["default"]
	return s, ok
}

// WithVersion returns a copy with the version replaced.
func (m Metadata) WithVersion(version string) (Metadata, error) {
	if _, err := semver.StrictNewVersion(version); err != nil {
		return Metadata{}, fmt.Errorf("invalid template version %q: %w", version, err)
	}
	m.version = version
	return m, nil
}

func (m Metadata) WithDescription(s string) Metadata { m.description = s; return m }
func (m Metadata) WithDisplayName(s string) Metadata { m.displayName = s; return m }
func (m Metadata) WithRuntime(s string) Metadata     { m.runtime = s; return m }
func (m Metadata) WithContractType(s string) Metadata {
	m.contractType = s
	return m
}

func (m Metadata) WithTemplateType(t TemplateType) Metadata {
	m.templateType = t
	return m
}

func (m Metadata) WithKeywords(k []string) Metadata {
	m.keywords = copyStrings(k)
	return m
}

func (m Metadata) WithLogo(b []byte) Metadata {
	m.logo = copyBytes(b)
	return m
}

func (m Metadata) WithSamples(s map[string]string) Metadata {
	m.samples = copyStringMap(s)
	return m
}

func (m Metadata) WithRequest(r map[string]interface{}) Metadata {
	m.request = history.CopyData(r)
	return m
}

// WithDataSchema returns a copy carrying schema. The schema must be a JSON
// object; it is hashed as part of the metadata.
func (m Metadata) WithDataSchema(schema []byte) (Metadata, error) {
	if len(schema) == 0 {
		m.dataSchema = nil
		return m, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(schema, &obj); err != nil {
		return Metadata{}, fmt.Errorf("data schema is not a JSON object: %w", err)
	}
	m.dataSchema = copyBytes(schema)
	return m, nil
}

// IsZero reports whether m was never initialized.
func (m Metadata) IsZero() bool { return m.name == "" && m.version == "" }

type metadataJSON struct {
	Name         string                 `json:"name"`
	Version      string                 `json:"version"`
	Description  string                 `json:"description,omitempty"`
	DisplayName  string                 `json:"displayName,omitempty"`
	Keywords     []string               `json:"keywords,omitempty"`
	TemplateType TemplateType           `json:"template,omitempty"`
	Runtime      string                 `json:"runtime,omitempty"`
	ContractType string                 `json:"contractType,omitempty"`
	Logo         []byte                 `json:"logo,omitempty"`
	Samples      map[string]string      `json:"samples,omitempty"`
	Request      map[string]interface{} `json:"request,omitempty"`
	DataSchema   json.RawMessage        `json:"dataSchema,omitempty"`
}

// MarshalJSON encodes the metadata. The same encoding feeds the content hash.
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(metadataJSON{
		Name:         m.name,
		Version:      m.version,
		Description:  m.description,
		DisplayName:  m.displayName,
		Keywords:     m.keywords,
		TemplateType: m.templateType,
		Runtime:      m.runtime,
		ContractType: m.contractType,
		Logo:         m.logo,
		Samples:      m.samples,
		Request:      m.request,
		DataSchema:   m.dataSchema,
	})
}

// UnmarshalJSON decodes and validates metadata.
func (m *Metadata) UnmarshalJSON(b []byte) error {
	var raw metadataJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out, err := NewMetadata(raw.Name, raw.Version)
	if err != nil {
		return err
	}
	out, err = out.WithDataSchema(raw.DataSchema)
	if err != nil {
		return err
	}
	*m = out.
		WithDescription(raw.Description).
		WithDisplayName(raw.DisplayName).
		WithKeywords(raw.Keywords).
		WithTemplateType(raw.TemplateType).
		WithRuntime(raw.Runtime).
		WithContractType(raw.ContractType).
		WithLogo(raw.Logo).
		WithSamples(raw.Samples).
		WithRequest(raw.Request)
	return nil
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
