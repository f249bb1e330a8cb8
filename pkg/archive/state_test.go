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

package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketshevkar/cicero/internal/testkeys"
	"github.com/sanketshevkar/cicero/pkg/artifact"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
	"github.com/sanketshevkar/cicero/pkg/history"
	"github.com/sanketshevkar/cicero/pkg/integrity"
	"github.com/sanketshevkar/cicero/pkg/logging"
)

const pass = "state-test"

func TestTemplateStateRoundTrip(t *testing.T) {
	c := integrity.New(integrity.WithLogger(logging.Discard()))
	tmpl, err := LoadTemplate(templateFS())
	require.NoError(t, err)
	signed, err := c.SignTemplate(tmpl, testkeys.MustRSAKeystore(t, "author", pass), pass)
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "template.json")
	require.NoError(t, WriteState(p, FromTemplate(signed)))

	s, err := ReadState(p)
	require.NoError(t, err)
	assert.Equal(t, artifact.KindTemplate, s.Kind)

	back, err := s.ToTemplate()
	require.NoError(t, err)
	require.NoError(t, c.VerifyTemplate(back))

	_, err = s.ToContractInstance()
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidArtifact))
}

func TestContractStateRoundTrip(t *testing.T) {
	c := integrity.New(integrity.WithLogger(logging.Discard()))
	tmpl, err := LoadTemplate(templateFS())
	require.NoError(t, err)

	ci, err := c.Instantiate(tmpl, map[string]interface{}{"$class": "org.example.late.Contract", "penalty": 10}, nil)
	require.NoError(t, err)
	ci, err = c.SignContract(ci, testkeys.MustRSAKeystore(t, "p1", pass), pass, "P1")
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "contract.json")
	require.NoError(t, WriteState(p, FromInstance(ci)))

	s, err := ReadState(p)
	require.NoError(t, err)
	back, err := s.ToContractInstance()
	require.NoError(t, err)

	assert.Equal(t, ci.ID(), back.ID())
	assert.Equal(t, ci.TemplateRef(), back.TemplateRef())
	require.NoError(t, c.VerifySignatures(back, true))

	// Continue signing the restored instance.
	two, err := c.SignContract(back, testkeys.MustRSAKeystore(t, "p2", pass), pass, "P2")
	require.NoError(t, err)
	entries := two.History().Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, history.OpSign, entries[2].Operation)
	assert.Equal(t, "P2", entries[2].Sign.Signatory)
}

func TestReadStateDetectsTampering(t *testing.T) {
	c := integrity.New(integrity.WithLogger(logging.Discard()))
	tmpl, err := LoadTemplate(templateFS())
	require.NoError(t, err)
	ci, err := c.Instantiate(tmpl, map[string]interface{}{"$class": "org.example.late.Contract", "penalty": 10}, nil)
	require.NoError(t, err)
	ci, err = c.SignContract(ci, testkeys.MustRSAKeystore(t, "p1", pass), pass, "P1")
	require.NoError(t, err)

	s := FromInstance(ci)
	s.Instance.Data["penalty"] = 1
	p := filepath.Join(t.TempDir(), "contract.json")
	require.NoError(t, WriteState(p, s))

	read, err := ReadState(p)
	require.NoError(t, err)
	back, err := read.ToContractInstance()
	require.NoError(t, err)

	err = c.VerifySignatures(back, true)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidSignature))
}

func TestReadStateRejectsReorderedSignatures(t *testing.T) {
	c := integrity.New(integrity.WithLogger(logging.Discard()))
	tmpl, err := LoadTemplate(templateFS())
	require.NoError(t, err)
	ci, err := c.Instantiate(tmpl, map[string]interface{}{"$class": "org.example.late.Contract", "penalty": 10}, nil)
	require.NoError(t, err)
	ci, err = c.SignContract(ci, testkeys.MustRSAKeystore(t, "p1", pass), pass, "P1")
	require.NoError(t, err)
	ci, err = c.SignContract(ci, testkeys.MustRSAKeystore(t, "p2", pass), pass, "P2")
	require.NoError(t, err)

	s := FromInstance(ci)
	sigs := s.Instance.ContractSignatures
	sigs[0], sigs[1] = sigs[1], sigs[0]
	p := filepath.Join(t.TempDir(), "contract.json")
	require.NoError(t, WriteState(p, s))

	read, err := ReadState(p)
	require.NoError(t, err)
	_, err = read.ToContractInstance()
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidArtifact), "got %v", err)
}

func TestReadStateErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	tests := []struct {
		name     string
		path     string
		wantType errdefs.ErrorType
	}{
		{"missing", filepath.Join(dir, "missing.json"), errdefs.ErrTypeIO},
		{"malformed", write("bad.json", "{"), errdefs.ErrTypeInvalidArtifact},
		{"version", write("v.json", `{"version":9,"kind":"template"}`), errdefs.ErrTypeInvalidArtifact},
		{"kind", write("k.json", `{"version":1,"kind":"poem"}`), errdefs.ErrTypeInvalidArtifact},
		{"contract without instance", write("c.json", `{"version":1,"kind":"contract"}`), errdefs.ErrTypeInvalidArtifact},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadState(tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errdefs.TypeOf(err), "got %v", err)
		})
	}
}

func TestWriteStateReplacesFile(t *testing.T) {
	tmpl, err := LoadTemplate(templateFS())
	require.NoError(t, err)

	dir := t.TempDir()
	p := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(p, []byte("old"), 0o600))
	require.NoError(t, WriteState(p, FromTemplate(tmpl)))

	_, err = ReadState(p)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}
