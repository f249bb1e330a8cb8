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

// VerifyTemplateOptions are the flags of `verify template`.
type VerifyTemplateOptions struct {
	TrustFlags
}

func (o *VerifyTemplateOptions) AddFlags(cmd *cobra.Command) {
	o.TrustFlags.AddFlags(cmd)
}

// VerifyContractOptions are the flags of `verify contract`.
type VerifyContractOptions struct {
	TrustFlags
	// Precondition accepts a contract without signatures, the check run
	// before each new signature is added.
	Precondition bool
}

func (o *VerifyContractOptions) AddFlags(cmd *cobra.Command) {
	o.TrustFlags.AddFlags(cmd)
	cmd.Flags().BoolVar(&o.Precondition, "precondition", false,
		"Accept a contract with no signatures (the pre-signing check).")
}

// Standalone reports whether an unsigned contract is an error.
func (o *VerifyContractOptions) Standalone() bool {
	return !o.Precondition
}
