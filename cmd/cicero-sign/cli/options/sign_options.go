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
)

// SignTemplateOptions are the flags of `sign template`.
type SignTemplateOptions struct {
	KeystoreFlags
	StateOutputFlags
}

func (o *SignTemplateOptions) AddFlags(cmd *cobra.Command) {
	AddAllFlags(cmd, &o.KeystoreFlags, &o.StateOutputFlags)
}

// SignContractOptions are the flags of `sign contract`.
type SignContractOptions struct {
	KeystoreFlags
	StateOutputFlags
	// Signatory names the signing party.
	Signatory string
}

func (o *SignContractOptions) AddFlags(cmd *cobra.Command) {
	AddAllFlags(cmd, &o.KeystoreFlags, &o.StateOutputFlags)
	cmd.Flags().StringVar(&o.Signatory, "signatory", "", "Name of the signing party. [required]")
	_ = cmd.MarkFlagRequired("signatory")
}

// InstantiateOptions are the flags of `instantiate`.
type InstantiateOptions struct {
	DataFlags
	StateOutputFlags
	// SkipValidation binds data without checking it against the template.
	SkipValidation bool
}

func (o *InstantiateOptions) AddFlags(cmd *cobra.Command) {
	AddAllFlags(cmd, &o.DataFlags, &o.StateOutputFlags)
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().BoolVar(&o.SkipValidation, "skip-validation", false, "Bind the data without checking $class and the template schema.")
}

// HashOptions are the flags of `hash`.
type HashOptions struct {
	DataFlags
}

func (o *HashOptions) AddFlags(cmd *cobra.Command) {
	o.DataFlags.AddFlags(cmd)
}

// ExportBundleOptions are the flags of `export-bundle`.
type ExportBundleOptions struct {
	// Index selects the signature; the author signature of a template is 0.
	Index int
	// OutputPath receives the bundle JSON.
	OutputPath string
	// PayloadOutputPath optionally receives the signed payload bytes.
	PayloadOutputPath string
}

func (o *ExportBundleOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.Index, "index", 0, "Index of the signature to export.")
	cmd.Flags().StringVarP(&o.OutputPath, "output", "o", "", "Location of the bundle file to write. [required]")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&o.PayloadOutputPath, "payload-output", "", "Also write the signed payload to this file.")
}
