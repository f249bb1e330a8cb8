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
	"github.com/sanketshevkar/cicero/pkg/logging"
	"github.com/sanketshevkar/cicero/pkg/tracing"
	"github.com/sanketshevkar/cicero/pkg/validation"
)

// Instantiate creates the instantiate command, which binds contract data
// to a template.
func Instantiate() *cobra.Command {
	o := &options.InstantiateOptions{}

	long := `Create a contract from a template and contract data.

Reads the template at TEMPLATE_DIR or STATE and the JSON object at --data,
checks that the data's $class matches the template contract type and that
it satisfies the template's schema.json, and writes a new, unsigned
contract state file to --output.

A signed template must verify before it is instantiated. The template
snapshot stored in the contract does not carry the author signature.`

	cmd := &cobra.Command{
		Use:   "instantiate [OPTIONS] TEMPLATE_DIR|STATE",
		Short: "Create a contract from a template.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if err := o.DataFlags.Validate(); err != nil {
				return err
			}
			return o.StateOutputFlags.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := map[string]interface{}{tracing.AttrPath: args[0]}
			return runTraced(cmd, "Instantiate", attrs, func(ctx context.Context, logger logging.Logger) error {
				t, err := loadTemplate(args[0], true)
				if err != nil {
					return err
				}
				c := newCoordinator(logger)
				if _, signed := t.Signature(); signed {
					if err := c.VerifyTemplate(t); err != nil {
						return err
					}
				} else {
					logger.WithField(tracing.AttrTemplate, t.Identifier()).Warnln("template has no author signature")
				}

				data, err := archive.LoadData(o.DataPath)
				if err != nil {
					return err
				}
				var v validation.Validator
				if o.SkipValidation {
					v = validation.ValidatorFunc(func(artifact.Template, map[string]interface{}) error { return nil })
				}
				ci, err := c.Instantiate(t, data, v)
				if err != nil {
					return err
				}
				if err := beforeWrite(ctx); err != nil {
					return err
				}
				if err := archive.WriteState(o.OutputPath, archive.FromInstance(ci)); err != nil {
					return err
				}
				printStatus(cmd, "Created contract %s from %s into %s", ci.ID(), t.Identifier(), o.OutputPath)
				return nil
			})
		},
	}

	o.AddFlags(cmd)
	return cmd
}
