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

package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPathValidator(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "state.json")
	if err := os.WriteFile(file, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		pathType PathType
		wantErr  string
	}{
		{"file ok", file, PathTypeFile, ""},
		{"dir ok", dir, PathTypeFolder, ""},
		{"any file", file, PathTypeAny, ""},
		{"any dir", dir, PathTypeAny, ""},
		{"empty", "", PathTypeFile, "is required"},
		{"missing", filepath.Join(dir, "nope"), PathTypeAny, "does not exist"},
		{"dir as file", dir, PathTypeFile, "expected a file"},
		{"file as dir", file, PathTypeFolder, "expected a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPathValidator("template", tt.path, tt.pathType).Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateHelpers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ks.p12")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := ValidateFileExists("keystore", file); err != nil {
		t.Errorf("ValidateFileExists() error = %v", err)
	}
	if err := ValidateFolderExists("template", dir); err != nil {
		t.Errorf("ValidateFolderExists() error = %v", err)
	}
	if err := ValidatePathExists("input", file); err != nil {
		t.Errorf("ValidatePathExists() error = %v", err)
	}
	if err := ValidateOptionalFile("data", ""); err != nil {
		t.Errorf("ValidateOptionalFile(\"\") error = %v", err)
	}
	if err := ValidateOptionalFile("data", filepath.Join(dir, "missing.json")); err == nil {
		t.Error("ValidateOptionalFile() should reject a missing file")
	}
}

func TestValidateOutputFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"new file", filepath.Join(dir, "out.json"), false},
		{"empty", "", true},
		{"directory", dir, true},
		{"missing parent", filepath.Join(dir, "a", "b.json"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFile("output", tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputFile() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "<unset>"},
		{"   ", "<unset>"},
		{"correct horse battery", "<set>"},
	}
	for _, tt := range tests {
		if got := MaskSecret(tt.in); got != tt.want {
			t.Errorf("MaskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
