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

// Package artifact defines the two signable artifact kinds, Template and
// ContractInstance.
//
// Both are immutable values. Every With* method returns a new value with one
// field replaced, and maps and slices are copied on the way in and out, so no
// alias can observe a half-updated artifact.
package artifact

import (
	"github.com/sanketshevkar/cicero/pkg/contenthash"
	"github.com/sanketshevkar/cicero/pkg/history"
	"github.com/sanketshevkar/cicero/pkg/signature"
)

// Kind names an artifact variant.
type Kind string

const (
	KindTemplate Kind = "template"
	KindContract Kind = "contract"
)

// Artifact is the behaviour shared by templates and contract instances.
type Artifact interface {
	// Hash recomputes the content hash from the current content.
	Hash() (contenthash.Digest, error)
	// History returns the operation log. Templates return an empty log.
	History() history.Log
	// Signatures returns a copy of the attached signature records.
	Signatures() []signature.Record
	// Kind identifies the variant.
	Kind() Kind
}
