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

package options

import (
	"github.com/spf13/cobra"

	"github.com/sanketshevkar/cicero/pkg/config"
	"github.com/sanketshevkar/cicero/pkg/utils"
)

// FlagAdder is implemented by any flag group that can register itself to a cobra command.
type FlagAdder interface {
	AddFlags(cmd *cobra.Command)
}

// AddAllFlags is a helper function to register multiple flag groups at once.
func AddAllFlags(cmd *cobra.Command, flagGroups ...FlagAdder) {
	for _, fg := range flagGroups {
		fg.AddFlags(cmd)
	}
}

// KeystoreFlags locate the PKCS#12 key store used for signing.
type KeystoreFlags struct {
	// KeystorePath is a .p12 file, raw DER or base64 text.
	KeystorePath string
	// Passphrase decrypts the key store. Prefer PassphraseEnv.
	Passphrase string
	// PassphraseEnv names an environment variable holding the passphrase.
	PassphraseEnv string
}

// AddFlags adds key store flags to the cobra command.
func (o *KeystoreFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.KeystorePath, "keystore", "", "Path to the PKCS#12 key store (DER or base64). [required]")
	_ = cmd.MarkFlagRequired("keystore")
	_ = cmd.MarkFlagFilename("keystore", "p12", "pfx", "b64")
	cmd.Flags().StringVar(&o.Passphrase, "passphrase", "", "Key store passphrase. Defaults to $"+config.DefaultPassphraseEnv+".")
	cmd.Flags().StringVar(&o.PassphraseEnv, "passphrase-env", "", "Name of an environment variable holding the key store passphrase.")
}

// Validate checks that the key store exists.
func (o *KeystoreFlags) Validate() error {
	return utils.ValidateFileExists("keystore", o.KeystorePath)
}

// ToConfig converts the flags to a key store configuration.
func (o *KeystoreFlags) ToConfig() config.KeystoreConfig {
	return config.KeystoreConfig{
		Path:          o.KeystorePath,
		Passphrase:    o.Passphrase,
		PassphraseEnv: o.PassphraseEnv,
	}
}

// StateOutputFlags name the state file a command writes.
type StateOutputFlags struct {
	// OutputPath is the state file to write.
	OutputPath string
}

// AddFlags adds the --output flag. When required is false the command
// falls back to rewriting its input state file.
func (o *StateOutputFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.OutputPath, "output", "o", "", "Location of the state file to write.")
	_ = cmd.MarkFlagFilename("output", "json")
}

// Validate checks that the output location is writable.
func (o *StateOutputFlags) Validate() error {
	return utils.ValidateOutputFile("output", o.OutputPath)
}

// DataFlags point at a JSON file of contract data.
type DataFlags struct {
	// DataPath is a JSON object of contract data.
	DataPath string
}

// AddFlags adds the --data flag.
func (o *DataFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.DataPath, "data", "", "Path to a JSON file holding the contract data.")
	_ = cmd.MarkFlagFilename("data", "json")
}

// Validate checks that the data file exists when one is given.
func (o *DataFlags) Validate() error {
	return utils.ValidateOptionalFile("data", o.DataPath)
}

// TrustFlags pin the signatory certificates accepted during verification.
type TrustFlags struct {
	// TrustedCerts are PEM files of accepted signatory certificates.
	TrustedCerts []string
}

// AddFlags adds the --trusted-cert flag.
func (o *TrustFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.TrustedCerts, "trusted-cert", nil,
		"PEM file of a certificate whose signatures are accepted. Can be repeated; when absent any certificate is accepted.")
}

// Validate checks that every pinned certificate file exists.
func (o *TrustFlags) Validate() error {
	for _, p := range o.TrustedCerts {
		if err := utils.ValidateFileExists("trusted-cert", p); err != nil {
			return err
		}
	}
	return nil
}

// ToConfig converts the flags to a trust configuration.
func (o *TrustFlags) ToConfig() config.TrustConfig {
	return config.TrustConfig{CertificatePaths: o.TrustedCerts}
}
