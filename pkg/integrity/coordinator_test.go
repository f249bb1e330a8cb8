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

package integrity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketshevkar/cicero/internal/testkeys"
	"github.com/sanketshevkar/cicero/pkg/artifact"
	"github.com/sanketshevkar/cicero/pkg/contenthash"
	"github.com/sanketshevkar/cicero/pkg/errdefs"
	"github.com/sanketshevkar/cicero/pkg/history"
	"github.com/sanketshevkar/cicero/pkg/keystore"
	"github.com/sanketshevkar/cicero/pkg/logging"
	"github.com/sanketshevkar/cicero/pkg/signature"
	"github.com/sanketshevkar/cicero/pkg/validation"
)

const passphrase = "party-secret"

// tickingClock returns a clock that advances one second per call.
func tickingClock() Clock {
	t := time.UnixMilli(1700000000000)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newCoordinator(opts ...Option) *Coordinator {
	base := []Option{WithClock(tickingClock()), WithLogger(logging.Discard())}
	return New(append(base, opts...)...)
}

func newTemplate(t *testing.T) artifact.Template {
	t.Helper()
	m, err := artifact.NewMetadata("t", "1.0.0")
	require.NoError(t, err)
	tmpl, err := artifact.NewTemplate(m.WithContractType("org.example.C"))
	require.NoError(t, err)
	return tmpl.
		WithModel("org.example@1.0.0", "concept C {}").
		WithGrammar("Pay {{amount}}").
		WithScript("logic/logic.ergo", "contract C {}")
}

func newInstance(t *testing.T, c *Coordinator) artifact.ContractInstance {
	t.Helper()
	ci, err := c.Instantiate(newTemplate(t), map[string]interface{}{"$class": "org.example.C", "amount": 100.0}, nil)
	require.NoError(t, err)
	return ci
}

func keystoreFor(t *testing.T, cn string) string {
	t.Helper()
	return testkeys.MustRSAKeystore(t, cn, passphrase)
}

func TestTemplateRoundTrip(t *testing.T) {
	c := newCoordinator()
	tmpl := newTemplate(t)

	signed, err := c.SignTemplate(tmpl, keystoreFor(t, "author"), passphrase)
	require.NoError(t, err)
	require.NoError(t, c.VerifyTemplate(signed))

	rec, ok := signed.Signature()
	require.True(t, ok)
	h, _ := tmpl.Hash()
	assert.Equal(t, h.Hex(), rec.ContentHash)
	assert.Equal(t, int64(1700000001000), rec.Timestamp)

	_, ok = tmpl.Signature()
	assert.False(t, ok, "input template must not be modified")
}

func TestVerifyTemplateMissingSignature(t *testing.T) {
	err := newCoordinator().VerifyTemplate(newTemplate(t))
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeMissingSignature))
}

func TestVerifyTemplateDetectsEdits(t *testing.T) {
	c := newCoordinator()
	signed, err := c.SignTemplate(newTemplate(t), keystoreFor(t, "author"), passphrase)
	require.NoError(t, err)

	edits := map[string]artifact.Template{
		"model":      signed.WithModel("org.example@1.0.0", "concept D {}"),
		"grammar":    signed.WithGrammar("Pay {{amount}} now"),
		"no grammar": signed.WithGrammar(""),
		"script":     signed.WithScript("logic/logic.ergo", "contract D {}"),
		"metadata":   signed.WithMetadata(signed.Metadata().WithDescription("edited")),
	}
	for name, edited := range edits {
		t.Run(name, func(t *testing.T) {
			err := c.VerifyTemplate(edited)
			require.Error(t, err)
			assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidSignature), "got %v", err)
		})
	}
}

func TestResignTemplateOverwrites(t *testing.T) {
	c := newCoordinator()
	first, err := c.SignTemplate(newTemplate(t), keystoreFor(t, "author"), passphrase)
	require.NoError(t, err)
	second, err := c.SignTemplate(first, keystoreFor(t, "second-author"), passphrase)
	require.NoError(t, err)

	require.Len(t, second.Signatures(), 1)
	id, err := testkeys.RSA("second-author")
	require.NoError(t, err)
	assert.Equal(t, id.CertPEM, second.Signatures()[0].SignatoryCert)
	assert.Equal(t, 0, second.History().Len())
	require.NoError(t, c.VerifyTemplate(second))
}

func TestSignTemplateKeyMaterialErrors(t *testing.T) {
	c := newCoordinator()
	tmpl := newTemplate(t)

	tests := []struct {
		name       string
		blob       string
		passphrase string
	}{
		{"wrong passphrase", keystoreFor(t, "author"), "nope"},
		{"not base64", "%%%", passphrase},
		{"garbage", "AAAA", passphrase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.SignTemplate(tmpl, tt.blob, tt.passphrase)
			require.Error(t, err)
			assert.True(t, errdefs.IsType(err, errdefs.ErrTypeKeyMaterial), "got %v", err)
			assert.True(t, out.IsZero())
		})
	}
}

func TestInstantiate(t *testing.T) {
	c := newCoordinator()
	ci := newInstance(t, c)

	require.Equal(t, 1, ci.History().Len())
	entry := ci.History().At(0)
	assert.Equal(t, history.OpInstantiate, entry.Operation)
	assert.Equal(t, int64(1700000001000), entry.Timestamp)
	assert.Equal(t, 100.0, entry.Instantiate.Data["amount"])
	assert.Empty(t, ci.Signatures())
}

func TestInstantiateSchemaMismatch(t *testing.T) {
	c := newCoordinator()
	_, err := c.Instantiate(newTemplate(t), map[string]interface{}{"$class": "org.example.Other"}, nil)
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeSchemaMismatch))

	plain := validation.ValidatorFunc(func(artifact.Template, map[string]interface{}) error {
		return errors.New("rejected")
	})
	_, err = c.Instantiate(newTemplate(t), nil, plain)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeSchemaMismatch), "plain errors are classified")

	_, err = c.Instantiate(artifact.Template{}, nil, nil)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidArtifact))
}

func TestContractMultiPartyOrdering(t *testing.T) {
	c := newCoordinator()
	ci := newInstance(t, c)

	one, err := c.SignContract(ci, keystoreFor(t, "p1"), passphrase, "P1")
	require.NoError(t, err)
	two, err := c.SignContract(one, keystoreFor(t, "p2"), passphrase, "P2")
	require.NoError(t, err)

	sigs := two.Signatures()
	require.Len(t, sigs, 2)
	assert.Equal(t, "P1", sigs[0].Signatory)
	assert.Equal(t, "P2", sigs[1].Signatory)
	assert.Less(t, sigs[0].Timestamp, sigs[1].Timestamp)

	entries := two.History().Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, history.OpInstantiate, entries[0].Operation)
	var signers []string
	for _, e := range entries[1:] {
		require.Equal(t, history.OpSign, e.Operation)
		signers = append(signers, e.Sign.Signatory)
	}
	assert.Equal(t, []string{"P1", "P2"}, signers)

	require.NoError(t, c.VerifySignatures(two, true))
	require.NoError(t, c.VerifySignatures(two, false))

	// Earlier values are untouched.
	assert.Empty(t, ci.Signatures())
	assert.Len(t, one.Signatures(), 1)
}

func TestContractDuplicateSignatory(t *testing.T) {
	c := newCoordinator()
	ks := keystoreFor(t, "p1")
	one, err := c.SignContract(newInstance(t, c), ks, passphrase, "P1")
	require.NoError(t, err)
	two, err := c.SignContract(one, ks, passphrase, "P1")
	require.NoError(t, err)
	assert.Len(t, two.Signatures(), 2)
	assert.NoError(t, c.VerifySignatures(two, true))
}

func TestContractTamperDetection(t *testing.T) {
	c := newCoordinator()
	signed, err := c.SignContract(newInstance(t, c), keystoreFor(t, "p1"), passphrase, "P1")
	require.NoError(t, err)

	tampered := signed.WithData(map[string]interface{}{"$class": "org.example.C", "amount": 1.0})
	err = c.VerifySignatures(tampered, false)
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidSignature))
	assert.True(t, IsVerificationFailure(err))

	var ierr *errdefs.Error
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, 0, ierr.Index)
}

func TestSignatureAt(t *testing.T) {
	c := newCoordinator()
	signed, err := c.SignContract(newInstance(t, c), keystoreFor(t, "p1"), passphrase, "P1")
	require.NoError(t, err)

	rec, err := c.SignatureAt(signed, 0)
	require.NoError(t, err)
	assert.Equal(t, "P1", rec.Signatory)

	_, err = c.SignatureAt(signed, 1)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidArtifact))

	tampered := signed.WithData(map[string]interface{}{"$class": "org.example.C", "amount": 1.0})
	_, err = c.SignatureAt(tampered, 0)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidSignature))

	// A record whose stored hash was rewritten to the edited content still
	// carries a signature over the old content.
	current, err := tampered.Hash()
	require.NoError(t, err)
	forged := rec
	forged.ContentHash = current.Hex()
	withForged := tampered.WithSignature(forged, history.NewSign("P1", forged.ContentHash, forged.Timestamp))
	_, err = c.SignatureAt(withForged, 1)
	require.Error(t, err)
	var ierr *errdefs.Error
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, errdefs.ErrTypeInvalidSignature, ierr.Type)
	assert.Equal(t, 1, ierr.Index)

	tmpl, err := c.SignTemplate(newTemplate(t), keystoreFor(t, "author"), passphrase)
	require.NoError(t, err)
	_, err = c.SignatureAt(tmpl, 0)
	assert.NoError(t, err)
}

func TestStandaloneVerifyEmpty(t *testing.T) {
	c := newCoordinator()
	ci := newInstance(t, c)

	err := c.VerifySignatures(ci, true)
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeNoSignatures))
	assert.False(t, IsVerificationFailure(err))

	assert.NoError(t, c.VerifySignatures(ci, false))
}

// corrupt flips one hex character of the signature at index i.
func corrupt(t *testing.T, ci artifact.ContractInstance, i int) artifact.ContractInstance {
	t.Helper()
	sigs := ci.Signatures()
	b := []byte(sigs[i].Signature)
	if b[0] == '0' {
		b[0] = '1'
	} else {
		b[0] = '0'
	}
	sigs[i].Signature = string(b)

	restored, err := artifact.RestoreContractInstance(ci.ID(), ci.Template(), ci.TemplateRef(), ci.Data(), sigs, ci.History())
	require.NoError(t, err)
	return restored
}

func TestAllOrNothingVerification(t *testing.T) {
	c := newCoordinator()
	one, err := c.SignContract(newInstance(t, c), keystoreFor(t, "p1"), passphrase, "P1")
	require.NoError(t, err)
	two, err := c.SignContract(one, keystoreFor(t, "p2"), passphrase, "P2")
	require.NoError(t, err)

	for _, idx := range []int{0, 1} {
		bad := corrupt(t, two, idx)
		err := c.VerifySignatures(bad, false)
		require.Error(t, err)
		assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidSignature))

		var ierr *errdefs.Error
		require.True(t, errors.As(err, &ierr))
		assert.Equal(t, idx, ierr.Index)
	}
}

func TestSignContractRefusesInvalidPriorSignature(t *testing.T) {
	c := newCoordinator()
	one, err := c.SignContract(newInstance(t, c), keystoreFor(t, "p1"), passphrase, "P1")
	require.NoError(t, err)
	bad := corrupt(t, one, 0)

	out, err := c.SignContract(bad, keystoreFor(t, "p2"), passphrase, "P2")
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidSignature))
	assert.True(t, out.IsZero())

	// No partial state on the input.
	assert.Len(t, bad.Signatures(), 1)
	assert.Equal(t, 2, bad.History().Len())
}

func TestSignContractFailureLeavesInputUntouched(t *testing.T) {
	c := newCoordinator()
	ci := newInstance(t, c)
	before, err := ci.Hash()
	require.NoError(t, err)

	out, err := c.SignContract(ci, keystoreFor(t, "p1"), "wrong", "P1")
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeKeyMaterial))
	assert.True(t, out.IsZero())

	assert.Empty(t, ci.Signatures())
	assert.Equal(t, 1, ci.History().Len())
	after, _ := ci.Hash()
	assert.True(t, before.Equal(after))

	_, err = c.SignContract(artifact.ContractInstance{}, keystoreFor(t, "p1"), passphrase, "P1")
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeInvalidArtifact))
}

// capturingExtractor records the key material it hands out.
type capturingExtractor struct {
	issued []*keystore.KeyMaterial
}

func (e *capturingExtractor) Extract(blob, pass string) (*keystore.KeyMaterial, error) {
	km, err := keystore.Extract(blob, pass)
	if err == nil {
		e.issued = append(e.issued, km)
	}
	return km, err
}

// failingEngine refuses to sign without touching the key.
type failingEngine struct{ signature.SigstoreEngine }

func (failingEngine) Sign(contenthash.Digest, int64, *keystore.KeyMaterial) (string, error) {
	return "", errors.New("hsm offline")
}

func TestKeyMaterialDestroyedOnFailure(t *testing.T) {
	ext := &capturingExtractor{}
	c := newCoordinator(WithExtractor(ext), WithEngine(failingEngine{}))

	_, err := c.SignTemplate(newTemplate(t), keystoreFor(t, "author"), passphrase)
	require.Error(t, err)

	require.Len(t, ext.issued, 1)
	_, err = ext.issued[0].Take()
	assert.ErrorIs(t, err, keystore.ErrKeyConsumed)
}

func TestKeyMaterialConsumedOnSuccess(t *testing.T) {
	ext := &capturingExtractor{}
	c := newCoordinator(WithExtractor(ext))

	_, err := c.SignContract(newInstance(t, c), keystoreFor(t, "p1"), passphrase, "P1")
	require.NoError(t, err)

	require.Len(t, ext.issued, 1)
	_, err = ext.issued[0].Take()
	assert.ErrorIs(t, err, keystore.ErrKeyConsumed)
}

func TestECDSAContractSignature(t *testing.T) {
	c := newCoordinator()
	id, err := testkeys.ECDSA("ec-party")
	require.NoError(t, err)
	ks, err := id.Keystore(passphrase)
	require.NoError(t, err)

	signed, err := c.SignContract(newInstance(t, c), ks, passphrase, "EC")
	require.NoError(t, err)
	assert.NoError(t, c.VerifySignatures(signed, true))
}
