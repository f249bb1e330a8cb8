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

// Package archive reads template directories and persists signing state.
//
// It is the filesystem side of the signing commands; the hashing, signing
// and verification packages never touch paths themselves.
//
// A template directory has this layout, all entries but package.json being
// optional:
//
//	package.json             metadata
//	grammar/template.tem.md  grammar
//	model/*.cto              models, keyed by their namespace declaration
//	logic/**                 scripts, keyed by slash separated path
//	text/sample.md           default sample; text/sample_<locale>.md per locale
//	request.json             sample request
//	schema.json              JSON schema for contract data
//	logo.png                 icon
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/sanketshevkar/cicero/pkg/artifact"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
)

const (
	packageFile = "package.json"
	grammarFile = "grammar/template.tem.md"
	modelDir    = "model"
	modelExt    = ".cto"
	logicDir    = "logic"
	textDir     = "text"
	requestFile = "request.json"
	schemaFile  = "schema.json"
	logoFile    = "logo.png"
)

var namespaceDecl = regexp.MustCompile(`(?m)^\s*namespace\s+([A-Za-z_][\w.]*(?:@[\w.\-+]+)?)\s*$`)

// packageJSON is the subset of package.json read by LoadTemplate.
type packageJSON struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Description   string   `json:"description"`
	DisplayName   string   `json:"displayName"`
	Keywords      []string `json:"keywords"`
	Accordproject struct {
		Template     string `json:"template"`
		Runtime      string `json:"runtime"`
		ContractType string `json:"contractType"`
	} `json:"accordproject"`
}

// LoadTemplateDir reads the template directory at dir.
func LoadTemplateDir(dir string) (artifact.Template, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return artifact.Template{}, errdefs.New(errdefs.ErrTypeIO, "cannot open template directory", err)
	}
	if !info.IsDir() {
		return artifact.Template{}, errdefs.Newf(errdefs.ErrTypeIO, "%s is not a directory", dir)
	}
	return LoadTemplate(os.DirFS(dir))
}

// LoadTemplate reads a template from fsys rooted at the template directory.
func LoadTemplate(fsys fs.FS) (artifact.Template, error) {
	meta, err := loadMetadata(fsys)
	if err != nil {
		return artifact.Template{}, err
	}
	t, err := artifact.NewTemplate(meta)
	if err != nil {
		return artifact.Template{}, errdefs.New(errdefs.ErrTypeInvalidArtifact, "invalid template", err)
	}

	grammar, ok, err := readOptional(fsys, grammarFile)
	if err != nil {
		return artifact.Template{}, err
	}
	if ok {
		t = t.WithGrammar(string(grammar))
	}

	models, err := loadModels(fsys)
	if err != nil {
		return artifact.Template{}, err
	}
	for ns, content := range models {
		t = t.WithModel(ns, content)
	}

	scripts, err := loadScripts(fsys)
	if err != nil {
		return artifact.Template{}, err
	}
	for id, content := range scripts {
		t = t.WithScript(id, content)
	}
	return t, nil
}

func loadMetadata(fsys fs.FS) (artifact.Metadata, error) {
	raw, err := fs.ReadFile(fsys, packageFile)
	if err != nil {
		return artifact.Metadata{}, errdefs.New(errdefs.ErrTypeIO, "cannot read "+packageFile, err)
	}
	var pkg packageJSON
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return artifact.Metadata{}, errdefs.New(errdefs.ErrTypeInvalidArtifact, "malformed "+packageFile, err)
	}
	meta, err := artifact.NewMetadata(pkg.Name, pkg.Version)
	if err != nil {
		return artifact.Metadata{}, errdefs.New(errdefs.ErrTypeInvalidArtifact, "invalid "+packageFile, err)
	}

	templateType := artifact.TemplateType(pkg.Accordproject.Template)
	switch templateType {
	case "", artifact.TemplateTypeContract, artifact.TemplateTypeClause:
	default:
		return artifact.Metadata{}, errdefs.Newf(errdefs.ErrTypeInvalidArtifact,
			"unknown template type %q in %s", templateType, packageFile)
	}

	meta = meta.
		WithDescription(pkg.Description).
		WithDisplayName(pkg.DisplayName).
		WithKeywords(pkg.Keywords).
		WithTemplateType(templateType).
		WithRuntime(pkg.Accordproject.Runtime).
		WithContractType(pkg.Accordproject.ContractType)

	samples, err := loadSamples(fsys)
	if err != nil {
		return artifact.Metadata{}, err
	}
	meta = meta.WithSamples(samples)

	if raw, ok, err := readOptional(fsys, requestFile); err != nil {
		return artifact.Metadata{}, err
	} else if ok {
		var req map[string]interface{}
		if err := json.Unmarshal(raw, &req); err != nil {
			return artifact.Metadata{}, errdefs.New(errdefs.ErrTypeInvalidArtifact, "malformed "+requestFile, err)
		}
		meta = meta.WithRequest(req)
	}

	if raw, ok, err := readOptional(fsys, schemaFile); err != nil {
		return artifact.Metadata{}, err
	} else if ok {
		if meta, err = meta.WithDataSchema(raw); err != nil {
			return artifact.Metadata{}, errdefs.New(errdefs.ErrTypeInvalidArtifact, "invalid "+schemaFile, err)
		}
	}

	if raw, ok, err := readOptional(fsys, logoFile); err != nil {
		return artifact.Metadata{}, err
	} else if ok {
		meta = meta.WithLogo(raw)
	}
	return meta, nil
}

func loadSamples(fsys fs.FS) (map[string]string, error) {
	entries, err := readDirOptional(fsys, textDir)
	if err != nil {
		return nil, err
	}
	var samples map[string]string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "sample") || path.Ext(name) != ".md" {
			continue
		}
		locale := strings.TrimSuffix(strings.TrimPrefix(name, "sample"), ".md")
		switch {
		case locale == "":
			locale = "default"
		case strings.HasPrefix(locale, "_"):
			locale = locale[1:]
		default:
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join(textDir, name))
		if err != nil {
			return nil, errdefs.New(errdefs.ErrTypeIO, "cannot read sample "+name, err)
		}
		if samples == nil {
			samples = map[string]string{}
		}
		samples[locale] = string(content)
	}
	return samples, nil
}

func loadModels(fsys fs.FS) (map[string]string, error) {
	entries, err := readDirOptional(fsys, modelDir)
	if err != nil {
		return nil, err
	}
	models := map[string]string{}
	origin := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != modelExt {
			continue
		}
		p := path.Join(modelDir, e.Name())
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, errdefs.New(errdefs.ErrTypeIO, "cannot read model "+p, err)
		}
		ns, err := Namespace(string(content))
		if err != nil {
			return nil, errdefs.New(errdefs.ErrTypeInvalidArtifact, p, err)
		}
		if prev, dup := origin[ns]; dup {
			return nil, errdefs.Newf(errdefs.ErrTypeInvalidArtifact,
				"namespace %s is declared by both %s and %s", ns, prev, p)
		}
		origin[ns] = p
		models[ns] = string(content)
	}
	return models, nil
}

// Namespace returns the namespace declared by a model file.
func Namespace(model string) (string, error) {
	m := namespaceDecl.FindStringSubmatch(model)
	if m == nil {
		return "", fmt.Errorf("no namespace declaration")
	}
	return m[1], nil
}

func loadScripts(fsys fs.FS) (map[string]string, error) {
	if _, err := fs.Stat(fsys, logicDir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	scripts := map[string]string{}
	err := fs.WalkDir(fsys, logicDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		scripts[p] = string(content)
		return nil
	})
	if err != nil {
		return nil, errdefs.New(errdefs.ErrTypeIO, "cannot read scripts", err)
	}
	return scripts, nil
}

func readOptional(fsys fs.FS, name string) ([]byte, bool, error) {
	b, err := fs.ReadFile(fsys, name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, errdefs.New(errdefs.ErrTypeIO, "cannot read "+name, err)
	}
	return b, true, nil
}

func readDirOptional(fsys fs.FS, name string) ([]fs.DirEntry, error) {
	entries, err := fs.ReadDir(fsys, name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, errdefs.New(errdefs.ErrTypeIO, "cannot list "+name, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// LoadData reads a JSON object of contract data from path.
func LoadData(p string) (map[string]interface{}, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, errdefs.New(errdefs.ErrTypeIO, "cannot read contract data", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errdefs.New(errdefs.ErrTypeSchemaMismatch, "contract data is not a JSON object", err)
	}
	return data, nil
}
