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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sanketshevkar/cicero/pkg/archive"
	"github.com/sanketshevkar/cicero/pkg/artifact"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
	"github.com/sanketshevkar/cicero/pkg/integrity"
	"github.com/sanketshevkar/cicero/pkg/logging"
	"github.com/sanketshevkar/cicero/pkg/tracing"
	"github.com/sanketshevkar/cicero/pkg/utils"
)

// runTraced runs fn under the root timeout inside a span named name.
func runTraced(cmd *cobra.Command, name string, attrs map[string]interface{},
	fn func(ctx context.Context, logger logging.Logger) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), ro.Timeout)
	defer cancel()

	logger := ro.NewObservability().Logger
	attrs[tracing.AttrOperation] = name
	return tracing.Run(ctx, name, attrs, func(ctx context.Context) error {
		return fn(ctx, logger)
	})
}

// beforeWrite refuses to write results once the command has timed out.
func beforeWrite(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("command aborted: %w", err)
	}
	return nil
}

func newCoordinator(logger logging.Logger) *integrity.Coordinator {
	return integrity.New(integrity.WithLogger(logger))
}

// printStatus writes a result line unless output is silenced.
func printStatus(cmd *cobra.Command, format string, args ...interface{}) {
	if ro.GetLogLevel() < logging.LevelSilent {
		fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	}
}

func isDir(path string) (bool, error) {
	if err := utils.ValidatePathExists("input", path); err != nil {
		return false, errdefs.New(errdefs.ErrTypeIO, "cannot open input", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, errdefs.New(errdefs.ErrTypeIO, "cannot open "+path, err)
	}
	return info.IsDir(), nil
}

// loadArtifact reads a template directory or a state file.
func loadArtifact(path string) (artifact.Artifact, error) {
	dir, err := isDir(path)
	if err != nil {
		return nil, err
	}
	if dir {
		return archive.LoadTemplateDir(path)
	}
	s, err := archive.ReadState(path)
	if err != nil {
		return nil, err
	}
	if s.Kind == artifact.KindContract {
		return s.ToContractInstance()
	}
	return s.ToTemplate()
}

// loadTemplate reads a template from a directory or a template state
// file. With allowContract, a contract state yields its template snapshot.
func loadTemplate(path string, allowContract bool) (artifact.Template, error) {
	a, err := loadArtifact(path)
	if err != nil {
		return artifact.Template{}, err
	}
	switch v := a.(type) {
	case artifact.Template:
		return v, nil
	case artifact.ContractInstance:
		if allowContract {
			return v.Template(), nil
		}
	}
	return artifact.Template{}, errdefs.Newf(errdefs.ErrTypeInvalidArtifact, "%s does not hold a template", path)
}

// loadContract reads a contract state file.
func loadContract(path string) (artifact.ContractInstance, error) {
	s, err := archive.ReadState(path)
	if err != nil {
		return artifact.ContractInstance{}, err
	}
	return s.ToContractInstance()
}
