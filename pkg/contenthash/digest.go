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

package contenthash

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Digest represents a computed content hash.
//
// Digest is effectively immutable: its fields are unexported, and the
// constructor and accessors defensively copy the underlying bytes.
type Digest struct {
	algorithm string
	value     []byte
}

// NewDigest creates a new Digest with the specified algorithm and hash value.
// The value slice is copied.
func NewDigest(algorithm string, value []byte) Digest {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	return Digest{
		algorithm: algorithm,
		value:     valueCopy,
	}
}

// ParseHex parses a lowercase or uppercase hex SHA-256 digest as produced by
// Digest.Hex. An optional "sha256:" prefix is accepted.
func ParseHex(s string) (Digest, error) {
	s = strings.TrimPrefix(s, Algorithm+":")
	if len(s) != HexSize {
		return Digest{}, fmt.Errorf("content hash must be %d hex characters, got %d", HexSize, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("content hash is not valid hex: %w", err)
	}
	return NewDigest(Algorithm, raw), nil
}

// Algorithm returns the name of the hash algorithm used to compute this digest.
func (d Digest) Algorithm() string {
	return d.algorithm
}

// Value returns a copy of the raw digest bytes.
func (d Digest) Value() []byte {
	valueCopy := make([]byte, len(d.value))
	copy(valueCopy, d.value)
	return valueCopy
}

// Hex returns the lowercase hexadecimal encoding of the digest value. This is
// the form that is signed and stored in signature records.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.value)
}

// Size returns the length in bytes of the digest value.
func (d Digest) Size() int {
	return len(d.value)
}

// IsZero reports whether d holds no value.
func (d Digest) IsZero() bool {
	return len(d.value) == 0
}

// String returns "algorithm:hexvalue".
func (d Digest) String() string {
	return fmt.Sprintf("%s:%s", d.algorithm, d.Hex())
}

// Equal reports whether both digests use the same algorithm and value.
func (d Digest) Equal(other Digest) bool {
	return d.algorithm == other.algorithm && bytes.Equal(d.value, other.value)
}
