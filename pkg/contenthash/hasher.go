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

// Package contenthash computes the deterministic content hash of a template
// or contract instance.
//
// The hashed value is a JSON object
//
//	{"metadata": ..., "grammar": ..., "models": {...}, "scripts": {...}, "data": ...}
//
// canonicalized with RFC 8785 (JSON Canonicalization Scheme) and digested
// with SHA-256. "grammar" is omitted when the template has none and "data"
// is only present for contract instances, so templates that never had a
// grammar keep a stable hash.
//
// RFC 8785 serializes numbers as IEEE 754 doubles. Integers whose magnitude
// exceeds 2^53-1 therefore hash the same as the nearest double; contract data
// is screened for them by validation.SafeIntegerValidator.
package contenthash

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

const (
	// Algorithm is the name of the digest algorithm.
	Algorithm = "sha256"
	// Size is the digest length in bytes.
	Size = sha256.Size
	// HexSize is the length of the hex encoded digest.
	HexSize = 2 * Size
)

// Content is the semantic content of an artifact, as handed to Hash.
//
// Nil maps and a nil Metadata are treated as empty values.
type Content struct {
	// Metadata is any value that marshals to a JSON object.
	Metadata interface{}
	// Grammar is the template grammar text. Empty means no grammar.
	Grammar string
	// Models maps a model namespace to the model file content.
	Models map[string]string
	// Scripts maps a script identifier to the script content.
	Scripts map[string]string
	// Data is the bound contract data; only hashed when HasData is set.
	Data map[string]interface{}
	// HasData marks contract instance content.
	HasData bool
}

// Canonicalize returns the canonical byte string that Hash digests.
func Canonicalize(c Content) ([]byte, error) {
	doc := map[string]interface{}{
		"metadata": orEmptyObject(c.Metadata),
		"models":   orEmptyStrings(c.Models),
		"scripts":  orEmptyStrings(c.Scripts),
	}
	if c.Grammar != "" {
		doc["grammar"] = c.Grammar
	}
	if c.HasData {
		if c.Data == nil {
			doc["data"] = map[string]interface{}{}
		} else {
			doc["data"] = c.Data
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize content: %w", err)
	}
	return canonical, nil
}

// Hash returns the SHA-256 digest of the canonical form of c.
func Hash(c Content) (Digest, error) {
	canonical, err := Canonicalize(c)
	if err != nil {
		return Digest{}, err
	}
	sum := sha256.Sum256(canonical)
	return NewDigest(Algorithm, sum[:]), nil
}

func orEmptyObject(v interface{}) interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v
}

func orEmptyStrings(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
