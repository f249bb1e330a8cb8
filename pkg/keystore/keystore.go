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

// Package keystore extracts signing key material from a base64 encoded,
// passphrase protected PKCS#12 container.
//
// The container must hold exactly one certificate and exactly one private
// key. Containers with more than one of either are rejected instead of
// picking an arbitrary identity.
package keystore

import (
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sigstore/sigstore/pkg/cryptoutils"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"

	"github.com/sanketshevkar/cicero/pkg/errdefs"
)

// ErrKeyConsumed is returned when a KeyMaterial is used a second time or
// after Destroy.
var ErrKeyConsumed = errors.New("key material already used or destroyed")

// Extractor turns a key-store blob and passphrase into KeyMaterial.
type Extractor interface {
	Extract(blobBase64, passphrase string) (*KeyMaterial, error)
}

// PKCS12Extractor is the default Extractor.
type PKCS12Extractor struct{}

var _ Extractor = PKCS12Extractor{}

// Extract implements Extractor.
func (PKCS12Extractor) Extract(blobBase64, passphrase string) (*KeyMaterial, error) {
	return Extract(blobBase64, passphrase)
}

// Extract decodes blobBase64, decrypts it with passphrase and returns the
// single certificate and private key it contains.
func Extract(blobBase64, passphrase string) (*KeyMaterial, error) {
	der, err := base64.StdEncoding.DecodeString(strings.TrimSpace(blobBase64))
	if err != nil {
		return nil, errdefs.New(errdefs.ErrTypeKeyMaterial, "keystore is not valid base64", err)
	}
	if len(der) == 0 {
		return nil, errdefs.Newf(errdefs.ErrTypeKeyMaterial, "keystore is empty")
	}

	// Both legacy (3DES/RC2) and PBES2/AES containers decode here. A second
	// key bag is rejected by the decoder itself.
	key, cert, caCerts, err := gopkcs12.DecodeChain(der, passphrase)
	if err != nil {
		return nil, decodeError(err)
	}
	if len(caCerts) != 0 {
		return nil, errdefs.Newf(errdefs.ErrTypeKeyMaterial,
			"keystore must contain exactly one certificate and one private key, found %d certificate(s)",
			len(caCerts)+1)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, errdefs.Newf(errdefs.ErrTypeKeyMaterial, "unsupported private key type %T", key)
	}
	if err := cryptoutils.EqualKeys(signer.Public(), cert.PublicKey); err != nil {
		return nil, errdefs.New(errdefs.ErrTypeKeyMaterial, "certificate does not match private key", err)
	}

	certPEM, err := cryptoutils.MarshalCertificateToPEM(cert)
	if err != nil {
		return nil, errdefs.New(errdefs.ErrTypeKeyMaterial, "failed to encode certificate", err)
	}

	return &KeyMaterial{
		certificatePEM: string(certPEM),
		certificate:    cert,
		signer:         signer,
	}, nil
}

func decodeError(err error) error {
	if errors.Is(err, gopkcs12.ErrIncorrectPassword) {
		return errdefs.New(errdefs.ErrTypeKeyMaterial, "incorrect keystore passphrase", err)
	}
	return errdefs.New(errdefs.ErrTypeKeyMaterial, "malformed keystore", err)
}

// KeyMaterial is a certificate and private key pair scoped to one signing
// call. The private key can be taken exactly once; Destroy drops it.
//
// KeyMaterial refuses JSON encoding and redacts itself when formatted.
type KeyMaterial struct {
	mu             sync.Mutex
	certificatePEM string
	certificate    *x509.Certificate
	signer         crypto.Signer
}

// CertificatePEM returns the PEM encoded signing certificate.
func (k *KeyMaterial) CertificatePEM() string {
	return k.certificatePEM
}

// Certificate returns the parsed signing certificate.
func (k *KeyMaterial) Certificate() *x509.Certificate {
	return k.certificate
}

// Take hands out the private key and forgets it. A second call, or a call
// after Destroy, returns ErrKeyConsumed.
func (k *KeyMaterial) Take() (crypto.Signer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.signer == nil {
		return nil, ErrKeyConsumed
	}
	s := k.signer
	k.signer = nil
	return s, nil
}

// Destroy drops the private key. It is safe to call more than once.
func (k *KeyMaterial) Destroy() {
	if k == nil {
		return
	}
	k.mu.Lock()
	k.signer = nil
	k.mu.Unlock()
}

// String implements fmt.Stringer without exposing the private key.
func (k *KeyMaterial) String() string {
	subject := ""
	if k.certificate != nil {
		subject = k.certificate.Subject.String()
	}
	return fmt.Sprintf("KeyMaterial{subject: %q, key: [REDACTED]}", subject)
}

// GoString implements fmt.GoStringer so %#v is redacted as well.
func (k *KeyMaterial) GoString() string {
	return k.String()
}

// MarshalJSON always fails; key material is never serialized.
func (k *KeyMaterial) MarshalJSON() ([]byte, error) {
	return nil, errors.New("key material cannot be serialized")
}

var _ json.Marshaler = (*KeyMaterial)(nil)
