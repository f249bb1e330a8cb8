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
	"os"

	"github.com/spf13/cobra"

	"github.com/sanketshevkar/cicero/cmd/cicero-sign/cli/options"
	"github.com/sanketshevkar/cicero/pkg/bundle"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
	"github.com/sanketshevkar/cicero/pkg/logging"
	"github.com/sanketshevkar/cicero/pkg/tracing"
)

// ExportBundle creates the export-bundle command, which writes one
// signature as a Sigstore bundle.
func ExportBundle() *cobra.Command {
	o := &options.ExportBundleOptions{}

	long := `Export a signature as a Sigstore bundle.

Writes the signature at --index of the state file at STATE as a Sigstore
bundle (message signature over the SHA-256 of the signed payload, with
the signing certificate as verification material). For a template the
author signature has index 0. The signature is checked against the
current content first; a state file edited after signing is refused.

The signed payload is the lowercase hex content hash followed by the
decimal millisecond timestamp. Pass --payload-output to write it as well,
so the bundle can be checked with standard Sigstore tooling.`

	cmd := &cobra.Command{
		Use:   "export-bundle [OPTIONS] STATE",
		Short: "Export a signature as a Sigstore bundle.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := map[string]interface{}{
				tracing.AttrPath:       args[0],
				tracing.AttrSignatures: o.Index,
			}
			return runTraced(cmd, "ExportBundle", attrs, func(ctx context.Context, logger logging.Logger) error {
				a, err := loadArtifact(args[0])
				if err != nil {
					return err
				}
				rec, err := newCoordinator(logger).SignatureAt(a, o.Index)
				if err != nil {
					return err
				}

				b, err := bundle.FromRecord(rec)
				if err != nil {
					return errdefs.NewWithIndex(errdefs.ErrTypeInvalidArtifact, o.Index, "cannot build bundle", err)
				}
				payload, err := bundle.Payload(rec)
				if err != nil {
					return errdefs.NewWithIndex(errdefs.ErrTypeInvalidArtifact, o.Index, "cannot build payload", err)
				}
				if err := bundle.Verify(b, payload); err != nil {
					return errdefs.NewWithIndex(errdefs.ErrTypeInvalidSignature, o.Index, "bundle does not verify", err)
				}

				if err := beforeWrite(ctx); err != nil {
					return err
				}
				if err := bundle.Write(o.OutputPath, b); err != nil {
					return errdefs.New(errdefs.ErrTypeIO, "cannot write bundle", err)
				}
				if o.PayloadOutputPath != "" {
					if err := os.WriteFile(o.PayloadOutputPath, payload, 0o644); err != nil {
						return errdefs.New(errdefs.ErrTypeIO, "cannot write payload", err)
					}
				}
				printStatus(cmd, "Exported signature %d of %s to %s", o.Index, args[0], o.OutputPath)
				return nil
			})
		},
	}

	o.AddFlags(cmd)
	return cmd
}
