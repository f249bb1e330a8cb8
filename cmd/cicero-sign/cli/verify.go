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
	"github.com/sanketshevkar/cicero/pkg/errdefs"
	"github.com/sanketshevkar/cicero/pkg/logging"
	"github.com/sanketshevkar/cicero/pkg/signature"
	"github.com/sanketshevkar/cicero/pkg/tracing"
)

// NewTemplateVerifier creates the template subcommand of verify.
func NewTemplateVerifier() *cobra.Command {
	o := &options.VerifyTemplateOptions{}

	long := `Verify the author signature of a template.

Recomputes the content hash of the template state file at STATE and
checks the author signature against it. Verification fails when the
template is unsigned or has been changed since it was signed.

Pass --trusted-cert to additionally require the signing certificate to be
one of the given certificates.`

	cmd := &cobra.Command{
		Use:   "template [OPTIONS] STATE",
		Short: "Verify the author signature of a template.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return o.TrustFlags.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := map[string]interface{}{tracing.AttrPath: args[0]}
			return runTraced(cmd, "VerifyTemplate", attrs, func(_ context.Context, logger logging.Logger) error {
				t, err := loadTemplate(args[0], false)
				if err != nil {
					return err
				}
				if err := newCoordinator(logger).VerifyTemplate(t); err != nil {
					return err
				}
				if err := checkTrust(o.TrustFlags, t.Signatures()); err != nil {
					return err
				}
				printStatus(cmd, "Verification succeeded for template %s", t.Identifier())
				return nil
			})
		},
	}

	o.AddFlags(cmd)
	return cmd
}

// NewContractVerifier creates the contract subcommand of verify.
func NewContractVerifier() *cobra.Command {
	o := &options.VerifyContractOptions{}

	long := `Verify every party signature of a contract.

Recomputes the content hash of the contract state file at STATE and
checks each signature against it, in signing order. The first failing
signature is reported by index.

A contract without signatures fails verification unless --precondition
is given, which runs the same check that precedes every new signature.`

	cmd := &cobra.Command{
		Use:   "contract [OPTIONS] STATE",
		Short: "Verify the signatures of a contract.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return o.TrustFlags.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := map[string]interface{}{
				tracing.AttrPath:       args[0],
				tracing.AttrStandalone: o.Standalone(),
			}
			return runTraced(cmd, "VerifyContract", attrs, func(_ context.Context, logger logging.Logger) error {
				ci, err := loadContract(args[0])
				if err != nil {
					return err
				}
				logger = logger.WithField(tracing.AttrInstance, ci.ID())
				if err := newCoordinator(logger).VerifySignatures(ci, o.Standalone()); err != nil {
					return err
				}
				if err := checkTrust(o.TrustFlags, ci.Signatures()); err != nil {
					return err
				}
				printStatus(cmd, "Verification succeeded for contract %s (%d signatures)", ci.ID(), len(ci.Signatures()))
				return nil
			})
		},
	}

	o.AddFlags(cmd)
	return cmd
}

// Verify creates the verify command with the template and contract
// subcommands.
func Verify() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [OPTIONS] template|contract",
		Short: "Verify templates and contracts.",
		Long: `Verify templates and contracts.

Given a state file written by "sign" or "instantiate", this call checks
that the content has not been changed since it was signed. The exit
status is 2 when a signature is missing or does not match, and 1 for any
other error.

Use each subcommand's --help option for details.`,
		Args: cobra.NoArgs,
	}

	cmd.AddCommand(NewTemplateVerifier())
	cmd.AddCommand(NewContractVerifier())
	return cmd
}

func checkTrust(o options.TrustFlags, records []signature.Record) error {
	if err := o.ToConfig().CheckSignatories(records); err != nil {
		return errdefs.New(errdefs.ErrTypeInvalidSignature, "untrusted signatory", err)
	}
	return nil
}
