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
	"github.com/sanketshevkar/cicero/pkg/artifact"
	"github.com/sanketshevkar/cicero/pkg/contenthash"
	"github.com/sanketshevkar/cicero/pkg/logging"
	"github.com/sanketshevkar/cicero/pkg/tracing"
)

// Hash creates the hash command, which prints the content hash of a
// template or contract.
func Hash() *cobra.Command {
	o := &options.HashOptions{}

	cmd := &cobra.Command{
		Use:   "hash [OPTIONS] TEMPLATE_DIR|STATE",
		Short: "Print the content hash of a template or contract.",
		Long: `Print the content hash of a template or contract.

The hash covers metadata, grammar, models, scripts and, for a contract,
the bound data. It never covers signatures, history or the contract ID,
so it is the value every signature is made over.

With --data, the hash of a contract built from the template and the
given data is printed without creating the contract.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return o.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			attrs := map[string]interface{}{tracing.AttrPath: path}
			return runTraced(cmd, "Hash", attrs, func(_ context.Context, logger logging.Logger) error {
				digest, err := hashArtifact(path, o.DataPath, logger)
				if err != nil {
					return err
				}
				printStatus(cmd, "%s", digest.Hex())
				return nil
			})
		},
	}

	o.AddFlags(cmd)
	return cmd
}

func hashArtifact(path, dataPath string, logger logging.Logger) (contenthash.Digest, error) {
	a, err := loadArtifact(path)
	if err != nil {
		return contenthash.Digest{}, err
	}
	if dataPath == "" {
		logger.Debug("hashing %s %s", a.Kind(), path)
		return a.Hash()
	}

	t, ok := a.(artifact.Template)
	if !ok {
		t = a.(artifact.ContractInstance).Template()
	}
	data, err := archive.LoadData(dataPath)
	if err != nil {
		return contenthash.Digest{}, err
	}
	logger.WithField(tracing.AttrTemplate, t.Identifier()).Debug("hashing %s bound to %s", path, dataPath)
	ci, err := artifact.NewContractInstance(t, data, 0)
	if err != nil {
		return contenthash.Digest{}, err
	}
	return ci.Hash()
}
