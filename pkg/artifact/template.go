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

	"github.com/sanketshevkar/cicero/pkg/contenthash"
	"github.com/sanketshevkar/cicero/pkg/history"
	"github.com/sanketshevkar/cicero/pkg/signature"
)

// Template is a signable bundle of metadata, grammar, models and scripts.
// It carries at most one author signature and no history.
type Template struct {
	metadata  Metadata
	grammar   string
	models    map[string]string
	scripts   map[string]string
	signature *signature.Record
}

var _ Artifact = Template{}

// NewTemplate returns an unsigned template with the given metadata.
func NewTemplate(metadata Metadata) (Template, error) {
	if metadata.IsZero() {
		return Template{}, fmt.Errorf("template metadata is required")
	}
	return Template{metadata: metadata}, nil
}

// Kind implements Artifact.
func (t Template) Kind() Kind { return KindTemplate }

// IsZero reports whether t was never initialized.
func (t Template) IsZero() bool { return t.metadata.IsZero() }

func (t Template) Metadata() Metadata { return t.metadata }
func (t Template) Grammar() string    { return t.grammar }

// Identifier returns name@version.
func (t Template) Identifier() string { return t.metadata.Identifier() }

// Models returns the model files keyed by namespace.
func (t Template) Models() map[string]string { return copyStringMap(t.models) }

// Namespaces returns the model namespaces in sorted order.
func (t Template) Namespaces() []string { return sortedKeys(t.models) }

// Scripts returns the script files keyed by identifier.
func (t Template) Scripts() map[string]string { return copyStringMap(t.scripts) }

// Signature returns the author signature, if any.
func (t Template) Signature() (signature.Record, bool) {
	if t.signature == nil {
		return signature.Record{}, false
	}
	return *t.signature, true
}

// Signatures implements Artifact. It holds zero or one record.
func (t Template) Signatures() []signature.Record {
	if t.signature == nil {
		return nil
	}
	return []signature.Record{*t.signature}
}

// History implements Artifact. Templates do not keep history.
func (t Template) History() history.Log { return history.Log{} }

// Content returns the hashed content of the template.
func (t Template) Content() contenthash.Content {
	return contenthash.Content{
		Metadata: t.metadata,
		Grammar:  t.grammar,
		Models:   t.models,
		Scripts:  t.scripts,
	}
}

// Hash implements Artifact.
func (t Template) Hash() (contenthash.Digest, error) {
	return contenthash.Hash(t.Content())
}

// WithMetadata returns a copy with the metadata replaced.
func (t Template) WithMetadata(m Metadata) Template {
	t.metadata = m
	return t
}

// WithGrammar returns a copy with the grammar replaced. An empty grammar
// removes it.
func (t Template) WithGrammar(grammar string) Template {
	t.grammar = grammar
	return t
}

// WithModel returns a copy with the model for namespace set to content.
func (t Template) WithModel(namespace, content string) Template {
	models := copyStringMap(t.models)
	if models == nil {
		models = map[string]string{}
	}
	models[namespace] = content
	t.models = models
	return t
}

// WithoutModel returns a copy without the model for namespace.
func (t Template) WithoutModel(namespace string) Template {
	models := copyStringMap(t.models)
	delete(models, namespace)
	t.models = models
	return t
}

// WithScript returns a copy with the script identifier set to content.
func (t Template) WithScript(identifier, content string) Template {
	scripts := copyStringMap(t.scripts)
	if scripts == nil {
		scripts = map[string]string{}
	}
	scripts[identifier] = content
	t.scripts = scripts
	return t
}

// WithAuthorSignature returns a copy carrying rec as its author signature,
// replacing any previous one.
func (t Template) WithAuthorSignature(rec signature.Record) Template {
	t.signature = &rec
	return t
}

// WithoutSignature returns an unsigned copy.
func (t Template) WithoutSignature() Template {
	t.signature = nil
	return t
}
