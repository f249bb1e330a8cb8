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

package signature

import (
	"github.com/sanketshevkar/cicero/pkg/contenthash"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
	"github.com/sanketshevkar/cicero/pkg/keystore"
)

// Record is one party's signature over a content hash and timestamp.
//
// Records are plain values; artifacts copy them in and out and never
// modify one after it is created.
type Record struct {
	// ContentHash is the hex content hash that was signed.
	ContentHash string `json:"contentHash"`
	// Timestamp is the signing time in milliseconds since the epoch.
	Timestamp int64 `json:"timestamp"`
	// SignatoryCert is the PEM encoded X.509 certificate of the signer.
	SignatoryCert string `json:"signatoryCert"`
	// Signature is the hex encoded signature bytes.
	Signature string `json:"signature"`
	// Signatory is the optional display name of the signing party.
	Signatory string `json:"signatory,omitempty"`
}

// NewRecord signs hash at timestamp with engine and km.
func NewRecord(engine Engine, hash contenthash.Digest, timestamp int64, km *keystore.KeyMaterial, signatory string) (Record, error) {
	if km == nil {
		return Record{}, errdefs.Newf(errdefs.ErrTypeKeyMaterial, "no key material")
	}
	certPEM := km.CertificatePEM()
	sig, err := engine.Sign(hash, timestamp, km)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ContentHash:   hash.Hex(),
		Timestamp:     timestamp,
		SignatoryCert: certPEM,
		Signature:     sig,
		Signatory:     signatory,
	}, nil
}

// VerifyAgainst checks r against current, the freshly recomputed content
// hash. The stored ContentHash is informational only and is never trusted.
func (r Record) VerifyAgainst(engine Engine, current contenthash.Digest) (bool, error) {
	return engine.Verify(current, r.Timestamp, r.Signature, r.SignatoryCert)
}

// CopyRecords returns a copy of records; nil stays nil.
func CopyRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
