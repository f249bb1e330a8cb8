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

// Package integrity signs and verifies templates and contract instances.
//
// A Template carries a single author signature that is replaced on every
// signing. A ContractInstance collects any number of party signatures in
// signing order; adding one first re-verifies every existing signature so a
// tampered or forged signature cannot be covered by a new co-signature.
//
// Verification always recomputes the content hash from the current content.
// The hash stored inside a signature record is never trusted.
package integrity

import (
	"errors"
	"time"

	"github.com/sanketshevkar/cicero/pkg/artifact"
	"github.com/sanketshevkar/cicero/pkg/contenthash"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
	"github.com/sanketshevkar/cicero/pkg/history"
	"github.com/sanketshevkar/cicero/pkg/keystore"
	"github.com/sanketshevkar/cicero/pkg/logging"
	"github.com/sanketshevkar/cicero/pkg/signature"
	"github.com/sanketshevkar/cicero/pkg/validation"
)

// Clock returns the current time. Signatures and history entries are
// stamped with its millisecond value.
type Clock func() time.Time

// Coordinator runs the signing state machine. Its methods never modify the
// artifacts passed in; they return new values. Callers must serialize
// concurrent signing of the same artifact.
type Coordinator struct {
	extractor keystore.Extractor
	engine    signature.Engine
	validator validation.Validator
	clock     Clock
	logger    logging.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithExtractor sets the key material extractor.
func WithExtractor(e keystore.Extractor) Option {
	return func(c *Coordinator) { c.extractor = e }
}

// WithEngine sets the signature engine.
func WithEngine(e signature.Engine) Option {
	return func(c *Coordinator) { c.engine = e }
}

// WithValidator sets the default data validator used by Instantiate.
func WithValidator(v validation.Validator) Option {
	return func(c *Coordinator) { c.validator = v }
}

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New returns a Coordinator using PKCS#12 key stores, the sigstore signature
// engine, the default validators and the system clock unless overridden.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		extractor: keystore.PKCS12Extractor{},
		engine:    signature.SigstoreEngine{},
		validator: validation.Default(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.EnsureLogger(c.logger)
	return c
}

func (c *Coordinator) now() int64 {
	return c.clock().UnixMilli()
}

// SignTemplate signs the current content of t and returns a copy carrying
// the new author signature. Any previous author signature is replaced.
func (c *Coordinator) SignTemplate(t artifact.Template, keystoreBase64, passphrase string) (artifact.Template, error) {
	if t.IsZero() {
		return artifact.Template{}, errdefs.Newf(errdefs.ErrTypeInvalidArtifact, "template is not initialized")
	}
	hash, err := hashOf(t)
	if err != nil {
		return artifact.Template{}, err
	}

	rec, err := c.sign(hash, keystoreBase64, passphrase, "")
	if err != nil {
		return artifact.Template{}, err
	}

	if _, replaced := t.Signature(); replaced {
		c.logger.Debug("Replacing author signature on %s", t.Identifier())
	}
	c.logFingerprint("Signed template", rec).Info("Signed template %s (%s)", t.Identifier(), hash)
	return t.WithAuthorSignature(rec), nil
}

// VerifyTemplate checks the author signature of t against its current
// content.
func (c *Coordinator) VerifyTemplate(t artifact.Template) error {
	rec, ok := t.Signature()
	if !ok {
		return errdefs.Newf(errdefs.ErrTypeMissingSignature, "template %s is not signed", t.Identifier())
	}
	hash, err := hashOf(t)
	if err != nil {
		return err
	}
	if err := c.verifyRecord(rec, hash, errdefs.NoIndex); err != nil {
		return err
	}
	c.logger.Debug("Verified author signature of %s", t.Identifier())
	return nil
}

// Instantiate validates data against t and returns a new contract instance
// whose history holds the instantiate entry. A nil validator uses the
// Coordinator's default.
func (c *Coordinator) Instantiate(t artifact.Template, data map[string]interface{}, v validation.Validator) (artifact.ContractInstance, error) {
	if t.IsZero() {
		return artifact.ContractInstance{}, errdefs.Newf(errdefs.ErrTypeInvalidArtifact, "template is not initialized")
	}
	if v == nil {
		v = c.validator
	}
	if v != nil {
		if err := v.Validate(t, data); err != nil {
			if errdefs.TypeOf(err) == errdefs.ErrTypeUnknown {
				err = errdefs.New(errdefs.ErrTypeSchemaMismatch, "data does not match template", err)
			}
			return artifact.ContractInstance{}, err
		}
	}

	ci, err := artifact.NewContractInstance(t, data, c.now())
	if err != nil {
		return artifact.ContractInstance{}, errdefs.New(errdefs.ErrTypeInvalidArtifact, "failed to instantiate", err)
	}
	c.logger.WithField("instance", ci.ID()).Info("Instantiated %s", t.Identifier())
	return ci, nil
}

// SignContract adds a signature by the holder of the key store to ci.
//
// Every existing signature is verified first; if any fails the instance is
// not signed. On success the returned copy has the new record appended to
// its signatures and a sign entry appended to its history. On failure ci is
// unchanged and the zero value is returned.
func (c *Coordinator) SignContract(ci artifact.ContractInstance, keystoreBase64, passphrase, signatory string) (artifact.ContractInstance, error) {
	if ci.IsZero() {
		return artifact.ContractInstance{}, errdefs.Newf(errdefs.ErrTypeInvalidArtifact, "contract instance is not initialized")
	}
	if err := c.VerifySignatures(ci, false); err != nil {
		return artifact.ContractInstance{}, err
	}

	hash, err := hashOf(ci)
	if err != nil {
		return artifact.ContractInstance{}, err
	}
	rec, err := c.sign(hash, keystoreBase64, passphrase, signatory)
	if err != nil {
		return artifact.ContractInstance{}, err
	}

	signed := ci.WithSignature(rec, history.NewSign(signatory, rec.ContentHash, rec.Timestamp))
	c.logFingerprint("Signed contract", rec).
		WithField("instance", ci.ID()).
		Info("Contract signed by %q, %d signature(s)", signatory, len(signed.Signatures()))
	return signed, nil
}

// VerifySignatures checks every signature of ci against its current
// content. It fails on the first invalid signature.
//
// With standalone set, an instance with no signatures is an
// errdefs.ErrTypeNoSignatures failure. Without it, zero signatures verify,
// which is the starting state when collecting signatures.
func (c *Coordinator) VerifySignatures(ci artifact.ContractInstance, standalone bool) error {
	sigs := ci.Signatures()
	if len(sigs) == 0 {
		if standalone {
			return errdefs.Newf(errdefs.ErrTypeNoSignatures, "contract instance has no signatures")
		}
		return nil
	}

	hash, err := hashOf(ci)
	if err != nil {
		return err
	}
	for i, rec := range sigs {
		if err := c.verifyRecord(rec, hash, i); err != nil {
			return err
		}
	}
	c.logger.Debug("Verified %d contract signature(s)", len(sigs))
	return nil
}

// SignatureAt returns signature index of a after checking it against the
// recomputed content hash of a. The record's stored content hash must equal
// the recomputed one, so the returned record is safe to export as is.
func (c *Coordinator) SignatureAt(a artifact.Artifact, index int) (signature.Record, error) {
	sigs := a.Signatures()
	if index < 0 || index >= len(sigs) {
		return signature.Record{}, errdefs.Newf(errdefs.ErrTypeInvalidArtifact,
			"artifact has %d signatures, no index %d", len(sigs), index)
	}
	rec := sigs[index]

	hash, err := hashOf(a)
	if err != nil {
		return signature.Record{}, err
	}
	if rec.ContentHash != hash.Hex() {
		return signature.Record{}, errdefs.NewWithIndex(errdefs.ErrTypeInvalidSignature, index,
			"content changed since it was signed", nil)
	}
	if err := c.verifyRecord(rec, hash, index); err != nil {
		return signature.Record{}, err
	}
	return rec, nil
}

func (c *Coordinator) sign(hash contenthash.Digest, keystoreBase64, passphrase, signatory string) (signature.Record, error) {
	km, err := c.extractor.Extract(keystoreBase64, passphrase)
	if err != nil {
		if errdefs.TypeOf(err) == errdefs.ErrTypeUnknown {
			err = errdefs.New(errdefs.ErrTypeKeyMaterial, "failed to extract key material", err)
		}
		return signature.Record{}, err
	}
	defer km.Destroy()

	return signature.NewRecord(c.engine, hash, c.now(), km, signatory)
}

func (c *Coordinator) verifyRecord(rec signature.Record, hash contenthash.Digest, index int) error {
	ok, err := rec.VerifyAgainst(c.engine, hash)
	if err != nil {
		return errdefs.NewWithIndex(errdefs.ErrTypeInvalidSignature, index, "signature could not be verified", err)
	}
	if !ok {
		return errdefs.NewWithIndex(errdefs.ErrTypeInvalidSignature, index,
			"signature does not match the current content", nil)
	}
	return nil
}

func (c *Coordinator) logFingerprint(msg string, rec signature.Record) logging.Logger {
	fp, err := signature.Fingerprint(rec.SignatoryCert)
	if err != nil {
		c.logger.Warn("%s: cannot fingerprint certificate: %v", msg, err)
		return c.logger
	}
	return c.logger.WithField("certificate", fp)
}

func hashOf(a artifact.Artifact) (contenthash.Digest, error) {
	h, err := a.Hash()
	if err != nil {
		return contenthash.Digest{}, errdefs.New(errdefs.ErrTypeInvalidArtifact, "failed to hash content", err)
	}
	return h, nil
}

// IsVerificationFailure reports whether err means a signature did not
// verify, as opposed to a missing signature or a key material problem.
func IsVerificationFailure(err error) bool {
	var e *errdefs.Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errdefs.ErrTypeInvalidSignature || e.Type == errdefs.ErrTypeSignatureVerification
}
