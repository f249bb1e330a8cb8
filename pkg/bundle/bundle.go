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

// Package bundle exports a signature record as a Sigstore bundle so that
// standard tooling can check it offline.
//
// The bundle carries a MessageSignature: the digest is SHA-256 of the signed
// payload (hex content hash followed by the decimal timestamp) and the
// verification material is the signatory certificate. The payload itself is
// not part of the bundle; Payload returns it for export next to the bundle.
package bundle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	protobundle "github.com/sigstore/protobuf-specs/gen/pb-go/bundle/v1"
	protocommon "github.com/sigstore/protobuf-specs/gen/pb-go/common/v1"
	sigstoresig "github.com/sigstore/sigstore/pkg/signature"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/sanketshevkar/cicero/pkg/contenthash"
	"github.com/sanketshevkar/cicero/pkg/signature"
)

// MediaType is the Sigstore bundle media type written by FromRecord.
const MediaType = "application/vnd.dev.sigstore.bundle.v0.3+json"

// Payload returns the bytes rec signed.
func Payload(rec signature.Record) ([]byte, error) {
	hash, err := contenthash.ParseHex(rec.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("invalid content hash in record: %w", err)
	}
	return signature.Payload(hash, rec.Timestamp), nil
}

// FromRecord builds a bundle for rec.
func FromRecord(rec signature.Record) (*protobundle.Bundle, error) {
	payload, err := Payload(rec)
	if err != nil {
		return nil, err
	}
	cert, err := signature.ParseCertificate(rec.SignatoryCert)
	if err != nil {
		return nil, err
	}
	sig, err := hex.DecodeString(rec.Signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature encoding: %w", err)
	}
	digest := sha256.Sum256(payload)

	return &protobundle.Bundle{
		MediaType: MediaType,
		VerificationMaterial: &protobundle.VerificationMaterial{
			Content: &protobundle.VerificationMaterial_Certificate{
				Certificate: &protocommon.X509Certificate{RawBytes: cert.Raw},
			},
		},
		Content: &protobundle.Bundle_MessageSignature{
			MessageSignature: &protocommon.MessageSignature{
				MessageDigest: &protocommon.HashOutput{
					Algorithm: protocommon.HashAlgorithm_SHA2_256,
					Digest:    digest[:],
				},
				Signature: sig,
			},
		},
	}, nil
}

// Verify checks that b is a valid signature over payload.
func Verify(b *protobundle.Bundle, payload []byte) error {
	ms := b.GetMessageSignature()
	if ms == nil {
		return fmt.Errorf("bundle has no message signature")
	}
	if ms.GetMessageDigest().GetAlgorithm() != protocommon.HashAlgorithm_SHA2_256 {
		return fmt.Errorf("unsupported digest algorithm %v", ms.GetMessageDigest().GetAlgorithm())
	}
	digest := sha256.Sum256(payload)
	if !bytes.Equal(digest[:], ms.GetMessageDigest().GetDigest()) {
		return fmt.Errorf("payload digest does not match bundle")
	}

	raw := b.GetVerificationMaterial().GetCertificate().GetRawBytes()
	if len(raw) == 0 {
		return fmt.Errorf("bundle has no certificate")
	}
	cert, err := parseDER(raw)
	if err != nil {
		return err
	}
	verifier, err := sigstoresig.LoadVerifier(cert.PublicKey, signature.HashFunc)
	if err != nil {
		return fmt.Errorf("failed to load verifier: %w", err)
	}
	if err := verifier.VerifySignature(bytes.NewReader(ms.GetSignature()), bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("bundle signature is invalid: %w", err)
	}
	return nil
}

// MarshalJSON encodes b in the protobuf JSON form used on disk.
func MarshalJSON(b *protobundle.Bundle) ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(b)
}

// UnmarshalJSON decodes a bundle and checks its media type.
func UnmarshalJSON(data []byte) (*protobundle.Bundle, error) {
	var b protobundle.Bundle
	if err := protojson.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse bundle: %w", err)
	}
	if b.GetMediaType() != MediaType {
		return nil, fmt.Errorf("unsupported bundle media type %q", b.GetMediaType())
	}
	return &b, nil
}

// Write stores b at path.
func Write(path string, b *protobundle.Bundle) error {
	data, err := MarshalJSON(b)
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	return nil
}

// Read loads a bundle from path.
func Read(path string) (*protobundle.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}
	return UnmarshalJSON(data)
}
