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

// Package config loads the key material and trust settings used by the
// signing commands.
package config

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// DefaultPassphraseEnv is consulted when no passphrase is given explicitly.
const DefaultPassphraseEnv = "CICERO_KEYSTORE_PASSPHRASE"

// KeystoreConfig locates a PKCS#12 key store and its passphrase.
//
// Passphrase resolution order:
//  1. Passphrase, when non-empty
//  2. the environment variable named by PassphraseEnv
//  3. DefaultPassphraseEnv
//
// An empty passphrase is valid; some key stores are unprotected.
type KeystoreConfig struct {
	// Path is the key store file. It may hold raw DER or base64 text.
	Path string
	// Passphrase decrypts the key store.
	Passphrase string
	// PassphraseEnv names an environment variable holding the passphrase.
	PassphraseEnv string
}

// LoadBlob reads the key store and returns it base64 encoded.
func (c KeystoreConfig) LoadBlob() (string, error) {
	if c.Path == "" {
		return "", fmt.Errorf("keystore path is required")
	}
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read keystore: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("keystore file %q is empty", c.Path)
	}
	return EncodeBlob(raw), nil
}

// ResolvePassphrase returns the passphrase following the resolution order.
func (c KeystoreConfig) ResolvePassphrase() string {
	if c.Passphrase != "" {
		return c.Passphrase
	}
	if c.PassphraseEnv != "" {
		if v, ok := os.LookupEnv(c.PassphraseEnv); ok {
			return v
		}
	}
	return os.Getenv(DefaultPassphraseEnv)
}

// EncodeBlob returns raw as base64. Input that is already base64 text is
// normalized and returned as is, so both .p12 files and their base64
// exports are accepted.
func EncodeBlob(raw []byte) string {
	text := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(raw))
	if text != "" && bytes.IndexFunc([]byte(text), notBase64) < 0 {
		if _, err := base64.StdEncoding.DecodeString(text); err == nil {
			return text
		}
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func notBase64(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return false
	case r == '+', r == '/', r == '=':
		return false
	}
	return true
}
