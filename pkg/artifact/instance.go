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
	"fmt"

	"github.com/google/uuid"

	"github.com/sanketshevkar/cicero/pkg/contenthash"
	"github.com/sanketshevkar/cicero/pkg/history"
	"github.com/sanketshevkar/cicero/pkg/signature"
)

// TemplateRef identifies the template an instance was created from.
type TemplateRef struct {
	Identifier string `json:"identifier"`
	Hash       string `json:"hash"`
}

// ContractInstance is a template bound to contract data and signed by any
// number of parties.
//
// The instance keeps a snapshot of the template content it was created
// from rather than a live link to a mutable template.
type ContractInstance struct {
	id          string
	template    Template
	templateRef TemplateRef
	data        map[string]interface{}
	signatures  []signature.Record
	history     history.Log
}

var _ Artifact = ContractInstance{}

// NewContractInstance binds data to t. The history is seeded with an
// instantiate entry at timestamp. data is assumed to be validated.
func NewContractInstance(t Template, data map[string]interface{}, timestamp int64) (ContractInstance, error) {
	if t.IsZero() {
		return ContractInstance{}, fmt.Errorf("template is required")
	}
	h, err := t.Hash()
	if err != nil {
		return ContractInstance{}, fmt.Errorf("failed to hash template: %w", err)
	}
	return ContractInstance{
		id:          uuid.NewString(),
		template:    t.WithoutSignature(),
		templateRef: TemplateRef{Identifier: t.Identifier(), Hash: h.Hex()},
		data:        history.CopyData(data),
		history:     history.Initial(data, timestamp),
	}, nil
}

// RestoreContractInstance rebuilds an instance from persisted parts. The
// history must start with an instantiate entry and hold one sign entry per
// signature, in signature order: entry i+1 names the signatory, content
// hash and timestamp of signature i.
func RestoreContractInstance(id string, t Template, ref TemplateRef, data map[string]interface{},
	sigs []signature.Record, log history.Log) (ContractInstance, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ContractInstance{}, fmt.Errorf("invalid instance id %q: %w", id, err)
	}
	if t.IsZero() {
		return ContractInstance{}, fmt.Errorf("template is required")
	}
	if err := log.Validate(); err != nil {
		return ContractInstance{}, err
	}
	if log.Len() != len(sigs)+1 {
		return ContractInstance{}, fmt.Errorf("history has %d sign entries but instance has %d signatures",
			log.Len()-1, len(sigs))
	}
	for i, rec := range sigs {
		e := log.At(i + 1)
		if e.Sign.Signatory != rec.Signatory || e.Sign.ContentHash != rec.ContentHash || e.Timestamp != rec.Timestamp {
			return ContractInstance{}, fmt.Errorf("history entry %d does not match signature %d", i+1, i)
		}
	}
	return ContractInstance{
		id:          id,
		template:    t.WithoutSignature(),
		templateRef: ref,
		data:        history.CopyData(data),
		signatures:  signature.CopyRecords(sigs),
		history:     log,
	}, nil
}

// Kind implements Artifact.
func (c ContractInstance) Kind() Kind { return KindContract }

// IsZero reports whether c was never initialized.
func (c ContractInstance) IsZero() bool { return c.id == "" }

// ID returns the instance identifier. It is not part of the content hash.
func (c ContractInstance) ID() string { return c.id }

// Template returns the template snapshot.
func (c ContractInstance) Template() Template { return c.template }

// TemplateRef returns the originating template identifier and hash.
func (c ContractInstance) TemplateRef() TemplateRef { return c.templateRef }

// Data returns a copy of the bound data.
func (c ContractInstance) Data() map[string]interface{} { return history.CopyData(c.data) }

// Signatures implements Artifact, in signing order.
func (c ContractInstance) Signatures() []signature.Record {
	return signature.CopyRecords(c.signatures)
}

// History implements Artifact.
func (c ContractInstance) History() history.Log { return c.history }

// Content returns the hashed content: template content plus data.
func (c ContractInstance) Content() contenthash.Content {
	content := c.template.Content()
	content.Data = c.data
	content.HasData = true
	return content
}

// Hash implements Artifact.
func (c ContractInstance) Hash() (contenthash.Digest, error) {
	return contenthash.Hash(c.Content())
}

// WithData returns a copy with the bound data replaced. Signatures and
// history are kept, so existing signatures stop verifying.
func (c ContractInstance) WithData(data map[string]interface{}) ContractInstance {
	c.data = history.CopyData(data)
	return c
}

// WithSignature returns a copy with rec appended to the signatures and a
// matching sign entry appended to the history.
func (c ContractInstance) WithSignature(rec signature.Record, entry history.Entry) ContractInstance {
	sigs := make([]signature.Record, len(c.signatures), len(c.signatures)+1)
	copy(sigs, c.signatures)
	c.signatures = append(sigs, rec)
	c.history = history.Append(c.history, entry)
	return c
}
