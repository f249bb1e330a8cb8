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

// Package cli implements the cicero-sign command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	cobracompletefig "github.com/withfig/autocomplete-tools/integrations/cobra"
	"sigs.k8s.io/release-utils/version"

	"github.com/sanketshevkar/cicero/cmd/cicero-sign/cli/options"
)

var (
	ro = &options.RootOptions{}
)

// New returns the root cicero-sign command.
func New() *cobra.Command {
	var (
		out, stdout *os.File
	)
	ro = &options.RootOptions{}

	cmd := &cobra.Command{
		Use:   "cicero-sign",
		Short: "Sign and verify Accord Project templates and contracts.",
		Long: `Sign and verify Accord Project templates and contracts.

Templates are signed once by their author. Contracts are instantiated from
a template with bound data and then signed by each party in turn; every
existing signature is verified before a new one is added.

Signatures are RSA or ECDSA over the SHA-256 content hash and the signing
time, made with the key held in a PKCS#12 key store.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := options.ApplyEnv(cmd); err != nil {
				return err
			}
			if err := ro.Validate(); err != nil {
				return err
			}
			if ro.OutputFile != "" {
				var err error
				out, err = os.Create(ro.OutputFile)
				if err != nil {
					return fmt.Errorf("error creating output file %s: %w", ro.OutputFile, err)
				}
				stdout = os.Stdout
				os.Stdout = out
				cmd.SetOut(out)
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if out != nil {
				_ = out.Close()
				os.Stdout = stdout
			}
		},
	}
	ro.AddFlags(cmd)

	// Add sub-commands.
	cmd.AddCommand(Hash())
	cmd.AddCommand(Sign())
	cmd.AddCommand(Verify())
	cmd.AddCommand(Instantiate())
	cmd.AddCommand(History())
	cmd.AddCommand(ExportBundle())
	cmd.AddCommand(version.WithFont("starwars"))
	cmd.AddCommand(cobracompletefig.CreateCompletionSpecCommand())
	return cmd
}
