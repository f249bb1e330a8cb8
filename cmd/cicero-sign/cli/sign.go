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

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sanketshevkar/cicero/cmd/cicero-sign/cli/options"
	"github.com/sanketshevkar/cicero/pkg/archive"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
	"github.com/sanketshevkar/cicero/pkg/logging"
	"github.com/sanketshevkar/cicero/pkg/tracing"
	"github.com/sanketshevkar/cicero/pkg/utils"
)

// NewTemplateSigner creates the template subcommand of sign. It adds or
// replaces the author signature of a template.
func NewTemplateSigner() *cobra.Command {
	o := &options.SignTemplateOptions{}

	long := `Sign a template as its author.

Reads the template at TEMPLATE_DIR (or a template state file), signs its
content hash with the key in the PKCS#12 key store given via --keystore
and writes a template state file to --output. When the input is a state
file, --output defaults to rewriting it.

A template carries at most one author signature; signing an already
signed template replaces the previous signature.`

	cmd := &cobra.Command{
		Use:   "template [OPTIONS] TEMPLATE_DIR|STATE",
		Short: "Sign a template as its author.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, args []string) error {
			if err := o.KeystoreFlags.Validate(); err != nil {
				return err
			}
			return resolveOutput(&o.StateOutputFlags, args[0])
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := map[string]interface{}{tracing.AttrPath: args[0]}
			return runTraced(cmd, "SignTemplate", attrs, func(ctx context.Context, logger logging.Logger) error {
				t, err := loadTemplate(args[0], false)
				if err != nil {
					return err
				}
				blob, passphrase, err := loadKeystore(o.KeystoreFlags, logger)
				if err != nil {
					return err
				}
				signed, err := newCoordinator(logger).SignTemplate(t, blob, passphrase)
				if err != nil {
					return err
				}
				if err := beforeWrite(ctx); err != nil {
					return err
				}
				if err := archive.WriteState(o.OutputPath, archive.FromTemplate(signed)); err != nil {
					return err
				}
				rec, _ := signed.Signature()
				printStatus(cmd, "Signed template %s (hash %s) into %s", signed.Identifier(), rec.ContentHash, o.OutputPath)
				return nil
			})
		},
	}

	o.AddFlags(cmd)
	return cmd
}

// NewContractSigner creates the contract subcommand of sign. It verifies
// the existing signatures of a contract and appends a new one.
func NewContractSigner() *cobra.Command {
	o := &options.SignContractOptions{}

	long := `Sign a contract as one of its parties.

Reads the contract state file at STATE, verifies every signature already
present, then signs the contract content hash with the key in the PKCS#12
key store given via --keystore. The signature is appended together with
a history entry naming --signatory. The result is written to --output,
which defaults to rewriting STATE.

Nothing is written when any existing signature fails verification.`

	cmd := &cobra.Command{
		Use:   "contract [OPTIONS] STATE",
		Short: "Sign a contract as one of its parties.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, args []string) error {
			if err := o.KeystoreFlags.Validate(); err != nil {
				return err
			}
			return resolveOutput(&o.StateOutputFlags, args[0])
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := map[string]interface{}{
				tracing.AttrPath:      args[0],
				tracing.AttrSignatory: o.Signatory,
			}
			return runTraced(cmd, "SignContract", attrs, func(ctx context.Context, logger logging.Logger) error {
				ci, err := loadContract(args[0])
				if err != nil {
					return err
				}
				logger = logger.WithField(tracing.AttrInstance, ci.ID())
				blob, passphrase, err := loadKeystore(o.KeystoreFlags, logger)
				if err != nil {
					return err
				}
				signed, err := newCoordinator(logger).SignContract(ci, blob, passphrase, o.Signatory)
				if err != nil {
					return err
				}
				if err := beforeWrite(ctx); err != nil {
					return err
				}
				if err := archive.WriteState(o.OutputPath, archive.FromInstance(signed)); err != nil {
					return err
				}
				printStatus(cmd, "Signed contract %s as %q (signature %d) into %s",
					signed.ID(), o.Signatory, len(signed.Signatures())-1, o.OutputPath)
				return nil
			})
		},
	}

	o.AddFlags(cmd)
	return cmd
}

// Sign creates the sign command with the template and contract
// subcommands.
func Sign() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [OPTIONS] template|contract",
		Short: "Sign templates and contracts.",
		Long: `Sign templates and contracts.

Use "sign template" for the author signature of a template and
"sign contract" for a party signature on an instantiated contract.

The PKCS#12 key store must hold exactly one certificate and its private
key. The passphrase is read from --passphrase, from the variable named by
--passphrase-env, or from $CICERO_KEYSTORE_PASSPHRASE.`,
		Args: cobra.NoArgs,
	}

	cmd.AddCommand(NewTemplateSigner())
	cmd.AddCommand(NewContractSigner())
	return cmd
}

// resolveOutput defaults the output to the input state file and checks
// that it can be written.
func resolveOutput(o *options.StateOutputFlags, input string) error {
	if o.OutputPath == "" {
		dir, err := isDir(input)
		if err != nil {
			return err
		}
		if dir {
			return errdefs.Newf(errdefs.ErrTypeIO, "--output is required when signing a template directory")
		}
		o.OutputPath = input
	}
	return o.Validate()
}

func loadKeystore(o options.KeystoreFlags, logger logging.Logger) (string, string, error) {
	cfg := o.ToConfig()
	blob, err := cfg.LoadBlob()
	if err != nil {
		return "", "", errdefs.New(errdefs.ErrTypeIO, "cannot load key store", err)
	}
	passphrase := cfg.ResolvePassphrase()
	logger.Debug("using key store %s (passphrase %s)", cfg.Path, utils.MaskSecret(passphrase))
	return blob, passphrase, nil
}
