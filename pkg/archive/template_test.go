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
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketshevkar/cicero/pkg/artifact"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
)

const packageJSONText = `{
  "name": "late-delivery",
  "version": "0.2.1",
  "description": "Late delivery and penalty",
  "keywords": ["delivery"],
  "accordproject": {"template": "contract", "runtime": "ergo", "contractType": "org.example.late.Contract"}
}`

func templateFS() fstest.MapFS {
	return fstest.MapFS{
		"package.json":            {Data: []byte(packageJSONText)},
		"grammar/template.tem.md": {Data: []byte("Penalty of {{penalty}}%")},
		"model/model.cto":         {Data: []byte("namespace org.example.late@0.2.1\n\nconcept Contract {}\n")},
		"model/base.cto":          {Data: []byte("  namespace org.example.base\nconcept B {}\n")},
		"model/README.md":         {Data: []byte("ignored")},
		"logic/logic.ergo":        {Data: []byte("contract Late {}")},
		"logic/lib/util.ergo":     {Data: []byte("define function f() : Integer { return 1 }")},
		"logic/.hidden":           {Data: []byte("ignored")},
		"text/sample.md":          {Data: []byte("Penalty of 10%")},
		"text/sample_fr.md":       {Data: []byte("Pénalité de 10%")},
		"text/samples.md":         {Data: []byte("ignored")},
		"request.json":            {Data: []byte(`{"$class":"org.example.late.Request"}`)},
		"schema.json":             {Data: []byte(`{"type":"object","required":["penalty"]}`)},
		"logo.png":                {Data: []byte{0x89, 'P', 'N', 'G'}},
	}
}

func TestLoadTemplate(t *testing.T) {
	tmpl, err := LoadTemplate(templateFS())
	require.NoError(t, err)

	m := tmpl.Metadata()
	assert.Equal(t, "late-delivery@0.2.1", tmpl.Identifier())
	assert.Equal(t, artifact.TemplateTypeContract, m.TemplateType())
	assert.Equal(t, "ergo", m.Runtime())
	assert.Equal(t, "org.example.late.Contract", m.ContractType())
	assert.Equal(t, []string{"delivery"}, m.Keywords())
	assert.Equal(t, map[string]string{"default": "Penalty of 10%", "fr": "Pénalité de 10%"}, m.Samples())
	assert.Equal(t, "org.example.late.Request", m.Request()["$class"])
	assert.JSONEq(t, `{"type":"object","required":["penalty"]}`, string(m.DataSchema()))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, m.Logo())

	assert.Equal(t, "Penalty of {{penalty}}%", tmpl.Grammar())
	assert.Equal(t, []string{"org.example.base", "org.example.late@0.2.1"}, tmpl.Namespaces())
	assert.Equal(t, map[string]string{
		"logic/logic.ergo":    "contract Late {}",
		"logic/lib/util.ergo": "define function f() : Integer { return 1 }",
	}, tmpl.Scripts())
}

func TestLoadTemplateMinimal(t *testing.T) {
	tmpl, err := LoadTemplate(fstest.MapFS{
		"package.json": {Data: []byte(`{"name":"t","version":"1.0.0"}`)},
	})
	require.NoError(t, err)
	assert.Empty(t, tmpl.Grammar())
	assert.Empty(t, tmpl.Models())
	assert.Empty(t, tmpl.Scripts())
}

func TestLoadTemplateErrors(t *testing.T) {
	withFile := func(name, content string) fstest.MapFS {
		fsys := templateFS()
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
		return fsys
	}
	noPackage := templateFS()
	delete(noPackage, "package.json")

	tests := []struct {
		name     string
		fsys     fstest.MapFS
		wantType errdefs.ErrorType
	}{
		{"missing package.json", noPackage, errdefs.ErrTypeIO},
		{"malformed package.json", withFile("package.json", "{"), errdefs.ErrTypeInvalidArtifact},
		{"bad version", withFile("package.json", `{"name":"t","version":"one"}`), errdefs.ErrTypeInvalidArtifact},
		{"bad template type", withFile("package.json", `{"name":"t","version":"1.0.0","accordproject":{"template":"poem"}}`), errdefs.ErrTypeInvalidArtifact},
		{"model without namespace", withFile("model/x.cto", "concept X {}"), errdefs.ErrTypeInvalidArtifact},
		{"duplicate namespace", withFile("model/zz.cto", "namespace org.example.base\n"), errdefs.ErrTypeInvalidArtifact},
		{"bad schema", withFile("schema.json", "[]"), errdefs.ErrTypeInvalidArtifact},
		{"bad request", withFile("request.json", "nope"), errdefs.ErrTypeInvalidArtifact},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTemplate(tt.fsys)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errdefs.TypeOf(err), "got %v", err)
		})
	}
}

func TestNamespace(t *testing.T) {
	ns, err := Namespace("/* header */\nnamespace org.accordproject.time@0.3.0\nimport x\n")
	require.NoError(t, err)
	assert.Equal(t, "org.accordproject.time@0.3.0", ns)

	_, err = Namespace("concept X {}")
	assert.Error(t, err)
}

func TestLoadTemplateDir(t *testing.T) {
	dir := t.TempDir()
	for name, f := range templateFS() {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, f.Data, 0o644))
	}
	fromDir, err := LoadTemplateDir(dir)
	require.NoError(t, err)
	fromFS, err := LoadTemplate(templateFS())
	require.NoError(t, err)

	h1, _ := fromDir.Hash()
	h2, _ := fromFS.Hash()
	assert.True(t, h1.Equal(h2))

	_, err = LoadTemplateDir(filepath.Join(dir, "package.json"))
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeIO))
}

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"$class":"org.example.late.Contract","penalty":10}`), 0o600))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1]`), 0o600))

	data, err := LoadData(good)
	require.NoError(t, err)
	assert.Equal(t, 10.0, data["penalty"])

	_, err = LoadData(bad)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeSchemaMismatch))
	_, err = LoadData(filepath.Join(dir, "missing.json"))
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeIO))
}
