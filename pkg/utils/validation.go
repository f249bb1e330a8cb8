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

// Package utils holds small helpers shared by the CLI commands.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathType is the kind of filesystem entry a path must name.
type PathType int

const (
	PathTypeFile PathType = iota
	PathTypeFolder
	PathTypeAny
)

func (t PathType) String() string {
	switch t {
	case PathTypeFile:
		return "file"
	case PathTypeFolder:
		return "directory"
	default:
		return "path"
	}
}

// PathValidator checks a user supplied path before a command reads it.
type PathValidator struct {
	fieldName string
	path      string
	pathType  PathType
}

// NewPathValidator returns a validator reporting errors against fieldName.
func NewPathValidator(fieldName, path string, pathType PathType) *PathValidator {
	return &PathValidator{fieldName: fieldName, path: path, pathType: pathType}
}

// Validate checks that the path is set, exists and has the expected type.
func (v *PathValidator) Validate() error {
	if v.path == "" {
		return fmt.Errorf("%s is required", v.fieldName)
	}
	info, err := os.Stat(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s %q does not exist", v.fieldName, v.path)
		}
		return fmt.Errorf("checking %s %q: %w", v.fieldName, v.path, err)
	}
	switch {
	case v.pathType == PathTypeFile && info.IsDir():
		return fmt.Errorf("%s %q is a directory, expected a file", v.fieldName, v.path)
	case v.pathType == PathTypeFolder && !info.IsDir():
		return fmt.Errorf("%s %q is a file, expected a directory", v.fieldName, v.path)
	}
	return nil
}

// ValidateFileExists requires path to be an existing regular file.
func ValidateFileExists(fieldName, path string) error {
	return NewPathValidator(fieldName, path, PathTypeFile).Validate()
}

// ValidateFolderExists requires path to be an existing directory.
func ValidateFolderExists(fieldName, path string) error {
	return NewPathValidator(fieldName, path, PathTypeFolder).Validate()
}

// ValidatePathExists requires path to exist.
func ValidatePathExists(fieldName, path string) error {
	return NewPathValidator(fieldName, path, PathTypeAny).Validate()
}

// ValidateOptionalFile validates path only when it is set.
func ValidateOptionalFile(fieldName, path string) error {
	if path == "" {
		return nil
	}
	return ValidateFileExists(fieldName, path)
}

// ValidateOutputFile requires path to be set, not a directory, and inside an
// existing directory.
func ValidateOutputFile(fieldName, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s %q is a directory, expected a file", fieldName, path)
	}
	return ValidateFolderExists(fieldName+" directory", filepath.Dir(path))
}
