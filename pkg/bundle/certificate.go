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

package bundle

import (
	"crypto/x509"
	"fmt"

	"github.com/sigstore/sigstore/pkg/cryptoutils"

	"github.com/sanketshevkar/cicero/pkg/signature"
)

func parseDER(raw []byte) (*x509.Certificate, error) {
	cert, err := x509.ParseCertificate(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid bundle certificate: %w", err)
	}
	return cert, nil
}

// CertificatePEM returns the bundle certificate as PEM, for comparison with
// a record's SignatoryCert.
func CertificatePEM(raw []byte) (string, error) {
	cert, err := parseDER(raw)
	if err != nil {
		return "", err
	}
	pemBytes, err := cryptoutils.MarshalCertificateToPEM(cert)
	if err != nil {
		return "", err
	}
	return string(pemBytes), nil
}

// Fingerprint returns the SHA-256 fingerprint of the bundle certificate.
func Fingerprint(raw []byte) (string, error) {
	certPEM, err := CertificatePEM(raw)
	if err != nil {
		return "", err
	}
	return signature.Fingerprint(certPEM)
}
