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

// Package errdefs defines the structured error taxonomy shared by the
// hashing, key material, signature and coordination packages.
package errdefs

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an integrity error.
type ErrorType int

const (
	// ErrTypeUnknown indicates an unclassified error.
	ErrTypeUnknown ErrorType = iota

	// ErrTypeKeyMaterial indicates the key-store blob or passphrase could not
	// produce exactly one certificate and private key.
	ErrTypeKeyMaterial

	// ErrTypeSignatureVerification indicates a signature could not be checked
	// at all, e.g. a malformed certificate or signature encoding.
	ErrTypeSignatureVerification

	// ErrTypeInvalidSignature indicates a signature does not match the
	// current content hash.
	ErrTypeInvalidSignature

	// ErrTypeMissingSignature indicates a template has no author signature.
	ErrTypeMissingSignature

	// ErrTypeNoSignatures indicates a contract has no party signatures.
	ErrTypeNoSignatures

	// ErrTypeSchemaMismatch indicates bound data does not match the
	// template's declared type.
	ErrTypeSchemaMismatch

	// ErrTypeInvalidArtifact indicates an artifact value is malformed.
	ErrTypeInvalidArtifact

	// ErrTypeIO indicates an I/O error in an external collaborator.
	ErrTypeIO
)

// String returns a human-readable name for the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeKeyMaterial:
		return "KeyMaterialError"
	case ErrTypeSignatureVerification:
		return "SignatureVerificationError"
	case ErrTypeInvalidSignature:
		return "InvalidSignatureError"
	case ErrTypeMissingSignature:
		return "MissingSignatureError"
	case ErrTypeNoSignatures:
		return "NoSignaturesError"
	case ErrTypeSchemaMismatch:
		return "SchemaMismatchError"
	case ErrTypeInvalidArtifact:
		return "InvalidArtifactError"
	case ErrTypeIO:
		return "IOError"
	default:
		return "UnknownError"
	}
}

// NoIndex marks an Error that is not tied to a particular signature.
const NoIndex = -1

// Error is the structured error returned by this module.
//
// Example usage:
//
//	if err != nil {
//	    var ierr *errdefs.Error
//	    if errors.As(err, &ierr) && ierr.Type == errdefs.ErrTypeInvalidSignature {
//	        log.Printf("signature %d is invalid: %s", ierr.Index, ierr.Message)
//	    }
//	}
type Error struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType

	// Index is the position of the offending signature, or NoIndex.
	Index int

	// Message is a human-readable description of what went wrong.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Index != NoIndex {
		msg = fmt.Sprintf("%s (signature %d)", msg, e.Index)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying cause for error chain unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error that is not tied to a signature index.
func New(errType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Index:   NoIndex,
		Message: message,
		Cause:   cause,
	}
}

// NewWithIndex creates an Error for the signature at index.
func NewWithIndex(errType ErrorType, index int, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Index:   index,
		Message: message,
		Cause:   cause,
	}
}

// Newf creates an Error with a formatted message and no cause.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return New(errType, fmt.Sprintf(format, args...), nil)
}

// IsType reports whether err, or any error it wraps, is an *Error of errType.
//
// Example:
//
//	if errdefs.IsType(err, errdefs.ErrTypeNoSignatures) {
//	    // nothing to verify yet
//	}
func IsType(err error, errType ErrorType) bool {
	var ierr *Error
	if errors.As(err, &ierr) {
		return ierr.Type == errType
	}
	return false
}

// TypeOf returns the ErrorType of err, or ErrTypeUnknown.
func TypeOf(err error) ErrorType {
	var ierr *Error
	if errors.As(err, &ierr) {
		return ierr.Type
	}
	return ErrTypeUnknown
}

// Process exit codes reported by ExitCode.
const (
	ExitFailure            = 1
	ExitVerificationFailed = 2
)

// ExitCode maps the error to a process exit status. Signatures that were
// checked and did not hold exit with ExitVerificationFailed so scripts can
// tell them apart from usage or input errors.
func (e *Error) ExitCode() int {
	switch e.Type {
	case ErrTypeInvalidSignature, ErrTypeMissingSignature, ErrTypeNoSignatures:
		return ExitVerificationFailed
	default:
		return ExitFailure
	}
}
