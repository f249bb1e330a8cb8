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

package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sanketshevkar/cicero/pkg/artifact"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
	"github.com/sanketshevkar/cicero/pkg/history"
	"github.com/sanketshevkar/cicero/pkg/signature"
)

// StateVersion is written into every state file.
const StateVersion = 1

// State is the persisted form of a template or contract instance.
type State struct {
	Version  int            `json:"version"`
	Kind     artifact.Kind  `json:"kind"`
	Template TemplateState  `json:"template"`
	Instance *InstanceState `json:"instance,omitempty"`
}

// TemplateState holds template content and its author signature. For a
// contract the template never carries a signature.
type TemplateState struct {
	Metadata        artifact.Metadata `json:"metadata"`
	Grammar         string            `json:"grammar,omitempty"`
	Models          map[string]string `json:"models"`
	Scripts         map[string]string `json:"scripts"`
	AuthorSignature *signature.Record `json:"authorSignature,omitempty"`
}

// InstanceState holds the contract specific parts of a State.
type InstanceState struct {
	ID                 string                 `json:"id"`
	TemplateRef        artifact.TemplateRef   `json:"templateRef"`
	Data               map[string]interface{} `json:"data"`
	ContractSignatures []signature.Record     `json:"contractSignatures"`
	History            history.Log            `json:"history"`
}

func templateState(t artifact.Template) TemplateState {
	ts := TemplateState{
		Metadata: t.Metadata(),
		Grammar:  t.Grammar(),
		Models:   t.Models(),
		Scripts:  t.Scripts(),
	}
	if ts.Models == nil {
		ts.Models = map[string]string{}
	}
	if ts.Scripts == nil {
		ts.Scripts = map[string]string{}
	}
	if rec, ok := t.Signature(); ok {
		ts.AuthorSignature = &rec
	}
	return ts
}

// FromTemplate captures t.
func FromTemplate(t artifact.Template) State {
	return State{Version: StateVersion, Kind: artifact.KindTemplate, Template: templateState(t)}
}

// FromInstance captures ci.
func FromInstance(ci artifact.ContractInstance) State {
	sigs := ci.Signatures()
	if sigs == nil {
		sigs = []signature.Record{}
	}
	return State{
		Version:  StateVersion,
		Kind:     artifact.KindContract,
		Template: templateState(ci.Template()),
		Instance: &InstanceState{
			ID:                 ci.ID(),
			TemplateRef:        ci.TemplateRef(),
			Data:               ci.Data(),
			ContractSignatures: sigs,
			History:            ci.History(),
		},
	}
}

// ToTemplate rebuilds the template held by s. For a contract state this is
// the template snapshot.
func (s State) ToTemplate() (artifact.Template, error) {
	t, err := artifact.NewTemplate(s.Template.Metadata)
	if err != nil {
		return artifact.Template{}, errdefs.New(errdefs.ErrTypeInvalidArtifact, "invalid template state", err)
	}
	t = t.WithGrammar(s.Template.Grammar)
	for ns, content := range s.Template.Models {
		t = t.WithModel(ns, content)
	}
	for id, content := range s.Template.Scripts {
		t = t.WithScript(id, content)
	}
	if s.Template.AuthorSignature != nil {
		t = t.WithAuthorSignature(*s.Template.AuthorSignature)
	}
	return t, nil
}

// ToContractInstance rebuilds the contract instance held by s.
func (s State) ToContractInstance() (artifact.ContractInstance, error) {
	if s.Kind != artifact.KindContract || s.Instance == nil {
		return artifact.ContractInstance{}, errdefs.Newf(errdefs.ErrTypeInvalidArtifact,
			"state holds a %s, not a contract", s.Kind)
	}
	t, err := s.ToTemplate()
	if err != nil {
		return artifact.ContractInstance{}, err
	}
	in := s.Instance
	ci, err := artifact.RestoreContractInstance(in.ID, t, in.TemplateRef, in.Data, in.ContractSignatures, in.History)
	if err != nil {
		return artifact.ContractInstance{}, errdefs.New(errdefs.ErrTypeInvalidArtifact, "invalid contract state", err)
	}
	return ci, nil
}

// Validate checks the version and kind of s.
func (s State) Validate() error {
	if s.Version != StateVersion {
		return errdefs.Newf(errdefs.ErrTypeInvalidArtifact, "unsupported state version %d", s.Version)
	}
	switch s.Kind {
	case artifact.KindTemplate:
		if s.Instance != nil {
			return errdefs.Newf(errdefs.ErrTypeInvalidArtifact, "template state must not hold an instance")
		}
	case artifact.KindContract:
		if s.Instance == nil {
			return errdefs.Newf(errdefs.ErrTypeInvalidArtifact, "contract state has no instance")
		}
	default:
		return errdefs.Newf(errdefs.ErrTypeInvalidArtifact, "unknown state kind %q", s.Kind)
	}
	return nil
}

// WriteState writes s to path, replacing any existing file in one rename.
func WriteState(path string, s State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errdefs.New(errdefs.ErrTypeInvalidArtifact, "cannot encode state", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errdefs.New(errdefs.ErrTypeIO, "cannot create state file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errdefs.New(errdefs.ErrTypeIO, "cannot write state file", err)
	}
	if err := tmp.Close(); err != nil {
		return errdefs.New(errdefs.ErrTypeIO, "cannot write state file", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errdefs.New(errdefs.ErrTypeIO, fmt.Sprintf("cannot replace %s", path), err)
	}
	return nil
}

// ReadState loads and validates a state file.
func ReadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, errdefs.New(errdefs.ErrTypeIO, "cannot read state file", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, errdefs.New(errdefs.ErrTypeInvalidArtifact, "malformed state file", err)
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}
