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

// Package signature produces and verifies detached signatures over a
// (content hash, timestamp) pair.
//
// The signed payload is the UTF-8 concatenation of the lowercase hex content
// hash and the decimal millisecond timestamp, with no delimiter. Signatures
// use a SHA-256 digest: RSA PKCS#1 v1.5 for RSA keys, ASN.1 ECDSA for EC keys.
// Signatures and hashes travel as lowercase hex.
package signature

import (
	"bytes"
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/sigstore/sigstore/pkg/cryptoutils"
	sigstoresig "github.com/sigstore/sigstore/pkg/signature"

	"github.com/sanketshevkar/cicero/pkg/contenthash"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
	"github.com/sanketshevkar/cicero/pkg/keystore"
)

// HashFunc is the digest used by every signature.
const HashFunc = crypto.SHA256

// Engine signs and verifies (hash, timestamp) pairs. The default engine is
// SigstoreEngine; the interface keeps the crypto toolkit swappable.
type Engine interface {
	// Sign consumes km and returns the hex signature over Payload(hash, timestamp).
	Sign(hash contenthash.Digest, timestamp int64, km *keystore.KeyMaterial) (string, error)
	// Verify reports whether signatureHex is a valid signature by the key in
	// certificatePEM over Payload(hash, timestamp).
	Verify(hash contenthash.Digest, timestamp int64, signatureHex, certificatePEM string) (bool, error)
}

// SigstoreEngine implements Engine with sigstore's signature package.
type SigstoreEngine struct{}

var _ Engine = SigstoreEngine{}

// Sign implements Engine.
func (SigstoreEngine) Sign(hash contenthash.Digest, timestamp int64, km *keystore.KeyMaterial) (string, error) {
	return Sign(hash, timestamp, km)
}

// Verify implements Engine.
func (SigstoreEngine) Verify(hash contenthash.Digest, timestamp int64, signatureHex, certificatePEM string) (bool, error) {
	return Verify(hash, timestamp, signatureHex, certificatePEM)
}

// Payload returns the bytes that are signed for hash and timestamp.
func Payload(hash contenthash.Digest, timestamp int64) []byte {
	return []byte(hash.Hex() + strconv.FormatInt(timestamp, 10))
}

// Sign takes the private key out of km and signs Payload(hash, timestamp).
// km cannot be used again afterwards.
func Sign(hash contenthash.Digest, timestamp int64, km *keystore.KeyMaterial) (string, error) {
	if km == nil {
		return "", errdefs.Newf(errdefs.ErrTypeKeyMaterial, "no key material")
	}
	key, err := km.Take()
	if err != nil {
		return "", errdefs.New(errdefs.ErrTypeKeyMaterial, "private key unavailable", err)
	}

	signer, err := sigstoresig.LoadSigner(key, HashFunc)
	if err != nil {
		return "", errdefs.New(errdefs.ErrTypeKeyMaterial, "unsupported signing key", err)
	}
	sig, err := signer.SignMessage(bytes.NewReader(Payload(hash, timestamp)))
	if err != nil {
		return "", fmt.Errorf("failed to sign content hash: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

// Verify checks signatureHex against the public key of the certificate in
// certificatePEM. It returns false for a well-formed signature that does not
// match, and an ErrTypeSignatureVerification error when the certificate or
// signature cannot be decoded.
func Verify(hash contenthash.Digest, timestamp int64, signatureHex, certificatePEM string) (bool, error) {
	cert, err := ParseCertificate(certificatePEM)
	if err != nil {
		return false, err
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) == 0 {
		return false, errdefs.New(errdefs.ErrTypeSignatureVerification, "signature is not valid hex", err)
	}

	verifier, err := sigstoresig.LoadVerifier(cert.PublicKey, HashFunc)
	if err != nil {
		return false, errdefs.New(errdefs.ErrTypeSignatureVerification, "unsupported certificate key", err)
	}
	if err := verifier.VerifySignature(bytes.NewReader(sig), bytes.NewReader(Payload(hash, timestamp))); err != nil {
		return false, nil
	}
	return true, nil
}

// ParseCertificate decodes exactly one PEM certificate.
func ParseCertificate(certificatePEM string) (*x509.Certificate, error) {
	certs, err := cryptoutils.UnmarshalCertificatesFromPEM([]byte(certificatePEM))
	if err != nil {
		return nil, errdefs.New(errdefs.ErrTypeSignatureVerification, "malformed signatory certificate", err)
	}
	if len(certs) != 1 {
		return nil, errdefs.Newf(errdefs.ErrTypeSignatureVerification,
			"expected one signatory certificate, found %d", len(certs))
	}
	return certs[0], nil
}

// Fingerprint returns the hex SHA-256 of the certificate's DER encoding.
func Fingerprint(certificatePEM string) (string, error) {
	cert, err := ParseCertificate(certificatePEM)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:]), nil
}
