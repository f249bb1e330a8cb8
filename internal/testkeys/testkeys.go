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

// Package testkeys generates throwaway signing identities and PKCS#12
// keystores for tests.
package testkeys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sigstore/sigstore/pkg/cryptoutils"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// Identity is a private key and a self-signed certificate for it.
type Identity struct {
	Key     crypto.Signer
	Cert    *x509.Certificate
	CertPEM string
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*Identity{}
)

// RSA returns a cached 2048-bit RSA identity for commonName.
func RSA(commonName string) (*Identity, error) {
	return cached("rsa/"+commonName, func() (crypto.Signer, error) {
		return rsa.GenerateKey(rand.Reader, 2048)
	}, commonName)
}

// ECDSA returns a cached P-256 identity for commonName.
func ECDSA(commonName string) (*Identity, error) {
	return cached("ecdsa/"+commonName, func() (crypto.Signer, error) {
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}, commonName)
}

func cached(cacheKey string, gen func() (crypto.Signer, error), commonName string) (*Identity, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if id, ok := cache[cacheKey]; ok {
		return id, nil
	}
	key, err := gen()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	id, err := selfSigned(key, commonName)
	if err != nil {
		return nil, err
	}
	cache[cacheKey] = id
	return id, nil
}

func selfSigned(key crypto.Signer, commonName string) (*Identity, error) {
	serial, err := cryptoutils.GenerateSerialNumber()
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName, Organization: []string{"Cicero Test"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}
	certPEM, err := cryptoutils.MarshalCertificateToPEM(cert)
	if err != nil {
		return nil, err
	}
	return &Identity{Key: key, Cert: cert, CertPEM: string(certPEM)}, nil
}

// Keystore encodes the identity as a base64 PKCS#12 container protected by
// passphrase, using the legacy 3DES encoding. extra certificates are added
// as additional certificate bags.
func (id *Identity) Keystore(passphrase string, extra ...*x509.Certificate) (string, error) {
	return id.EncodeKeystore(gopkcs12.LegacyDES, passphrase, extra...)
}

// ModernKeystore is Keystore with PBES2/AES-256 encryption and a SHA-256
// MAC, the default of current OpenSSL releases.
func (id *Identity) ModernKeystore(passphrase string, extra ...*x509.Certificate) (string, error) {
	return id.EncodeKeystore(gopkcs12.Modern, passphrase, extra...)
}

// EncodeKeystore encodes the identity with enc.
func (id *Identity) EncodeKeystore(enc *gopkcs12.Encoder, passphrase string, extra ...*x509.Certificate) (string, error) {
	pfx, err := enc.Encode(id.Key, id.Cert, extra, passphrase)
	if err != nil {
		return "", fmt.Errorf("encode pkcs12: %w", err)
	}
	return base64.StdEncoding.EncodeToString(pfx), nil
}

// MustRSAKeystore returns a base64 keystore for an RSA identity named
// commonName, failing the test on error.
func MustRSAKeystore(t testing.TB, commonName, passphrase string) string {
	t.Helper()
	id, err := RSA(commonName)
	if err != nil {
		t.Fatalf("testkeys: %v", err)
	}
	ks, err := id.Keystore(passphrase)
	if err != nil {
		t.Fatalf("testkeys: %v", err)
	}
	return ks
}
