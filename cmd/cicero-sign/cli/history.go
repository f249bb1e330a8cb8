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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sanketshevkar/cicero/pkg/logging"
	"github.com/sanketshevkar/cicero/pkg/tracing"
)

// History creates the history command, which prints the history log of a
// contract as JSON.
func History() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history STATE",
		Short: "Print the history of a contract.",
		Long: `Print the history of a contract as a JSON array.

The first entry records the instantiation and the bound data; each later
entry records a signature, its signatory and the content hash signed.
Templates have no history and print an empty array.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := map[string]interface{}{tracing.AttrPath: args[0]}
			return runTraced(cmd, "History", attrs, func(_ context.Context, _ logging.Logger) error {
				a, err := loadArtifact(args[0])
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(a.History(), "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode history: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
	return cmd
}
