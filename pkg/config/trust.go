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

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sigstore/sigstore/pkg/cryptoutils"

	"github.com/sanketshevkar/cicero/pkg/signature"
)

// TrustConfig pins the certificates whose signatures are accepted.
//
// Signature verification on its own only proves that the embedded
// certificate's key signed the content. With a TrustConfig the verifier
// additionally requires every signatory certificate to be one of the
// pinned certificates. An empty TrustConfig pins nothing.
type TrustConfig struct {
	// CertificatePaths are PEM files, each holding one or more certificates.
	CertificatePaths []string
}

// Enabled reports whether any certificates are pinned.
func (c TrustConfig) Enabled() bool {
	return len(c.CertificatePaths) > 0
}

// LoadFingerprints returns the SHA-256 fingerprints of all pinned
// certificates.
func (c TrustConfig) LoadFingerprints() (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, path := range c.CertificatePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read trusted certificate: %w", err)
		}
		certs, err := cryptoutils.UnmarshalCertificatesFromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse trusted certificates in %s: %w", path, err)
		}
		if len(certs) == 0 {
			return nil, fmt.Errorf("no certificates found in %s", path)
		}
		for _, cert := range certs {
			pemBytes, err := cryptoutils.MarshalCertificateToPEM(cert)
			if err != nil {
				return nil, err
			}
			fp, err := signature.Fingerprint(string(pemBytes))
			if err != nil {
				return nil, err
			}
			out[fp] = struct{}{}
		}
	}
	return out, nil
}

// CheckSignatories returns an error naming the first record whose
// certificate is not pinned.
func (c TrustConfig) CheckSignatories(records []signature.Record) error {
	if !c.Enabled() {
		return nil
	}
	pinned, err := c.LoadFingerprints()
	if err != nil {
		return err
	}
	for i, rec := range records {
		fp, err := signature.Fingerprint(rec.SignatoryCert)
		if err != nil {
			return fmt.Errorf("signature %d: %w", i, err)
		}
		if _, ok := pinned[fp]; !ok {
			name := rec.Signatory
			if strings.TrimSpace(name) == "" {
				name = "unnamed signatory"
			}
			return fmt.Errorf("signature %d (%s): certificate %s is not trusted", i, name, fp)
		}
	}
	return nil
}
