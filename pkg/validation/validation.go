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

// Package validation checks contract data against the template it is bound
// to before an instance is created.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sanketshevkar/cicero/pkg/artifact"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
)

// ClassProperty is the data property naming the contract type.
const ClassProperty = "$class"

// Validator confirms data conforms to the template's declared type.
// Failures are errdefs.ErrTypeSchemaMismatch errors.
type Validator interface {
	Validate(t artifact.Template, data map[string]interface{}) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(t artifact.Template, data map[string]interface{}) error

// Validate implements Validator.
func (f ValidatorFunc) Validate(t artifact.Template, data map[string]interface{}) error {
	return f(t, data)
}

// ClassValidator requires data[$class] to equal the template's contract
// type. Templates without a contract type accept any data.
type ClassValidator struct{}

var _ Validator = ClassValidator{}

// Validate implements Validator.
func (ClassValidator) Validate(t artifact.Template, data map[string]interface{}) error {
	want := t.Metadata().ContractType()
	if want == "" {
		return nil
	}
	got, ok := data[ClassProperty].(string)
	if !ok {
		return errdefs.Newf(errdefs.ErrTypeSchemaMismatch, "data has no %s property, expected %q", ClassProperty, want)
	}
	if got != want {
		return errdefs.Newf(errdefs.ErrTypeSchemaMismatch, "data %s is %q, expected %q", ClassProperty, got, want)
	}
	return nil
}

// SchemaValidator validates data with the template's JSON schema. Compiled
// schemas are cached by schema text.
type SchemaValidator struct {
	mu    sync.Mutex
	cache map[string]*jsonschema.Schema
}

var _ Validator = (*SchemaValidator)(nil)

// NewSchemaValidator returns an empty SchemaValidator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{cache: map[string]*jsonschema.Schema{}}
}

// Validate implements Validator. Templates without a schema accept any data.
func (v *SchemaValidator) Validate(t artifact.Template, data map[string]interface{}) error {
	raw := t.Metadata().DataSchema()
	if len(raw) == 0 {
		return nil
	}
	schema, err := v.compile(t, raw)
	if err != nil {
		return err
	}

	doc, err := normalize(data)
	if err != nil {
		return errdefs.New(errdefs.ErrTypeSchemaMismatch, "data is not valid JSON", err)
	}
	if err := schema.Validate(doc); err != nil {
		return errdefs.New(errdefs.ErrTypeSchemaMismatch,
			fmt.Sprintf("data does not match the schema of %s", t.Identifier()), err)
	}
	return nil
}

func (v *SchemaValidator) compile(t artifact.Template, raw []byte) (*jsonschema.Schema, error) {
	key := string(raw)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cache == nil {
		v.cache = map[string]*jsonschema.Schema{}
	}
	if s, ok := v.cache[key]; ok {
		return s, nil
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://cicero.schemas.local/%s/data.schema.json", t.Identifier())
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, errdefs.New(errdefs.ErrTypeInvalidArtifact, "failed to load data schema", err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, errdefs.New(errdefs.ErrTypeInvalidArtifact, "failed to compile data schema", err)
	}
	v.cache[key] = s
	return s, nil
}

// normalize round-trips data through encoding/json so the validator sees
// the same value types a decoded document would have.
func normalize(data map[string]interface{}) (interface{}, error) {
	if data == nil {
		return map[string]interface{}{}, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Chain runs validators in order and stops at the first failure.
type Chain []Validator

var _ Validator = Chain(nil)

// Validate implements Validator.
func (c Chain) Validate(t artifact.Template, data map[string]interface{}) error {
	for _, v := range c {
		if v == nil {
			continue
		}
		if err := v.Validate(t, data); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the class check, the safe integer check and schema
// validation, in that order.
func Default() Validator {
	return Chain{ClassValidator{}, SafeIntegerValidator{}, NewSchemaValidator()}
}
