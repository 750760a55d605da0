package handover

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/rs/zerolog"
)

// fakeAttestation is an in-process stand-in for pkg/attestation's real
// adapters: it signs payload_digest with an Ed25519 key and carries a fixed
// (mrenclave, mrsigner) pair, so tests can exercise the protocol without a
// PCCS endpoint.
type fakeAttestation struct {
	pub, priv       []byte
	mrenclave       string
	mrsigner        string
	panicIfCalled   bool
	rejectVerify    bool
	verifyErr       error
	createErr       error
}

func newFakeAttestation(mrenclave, mrsigner string) *fakeAttestation {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &fakeAttestation{pub: pub, priv: priv, mrenclave: mrenclave, mrsigner: mrsigner}
}

type fakeQuote struct {
	digest [32]byte
	sig    []byte
}

func (f *fakeAttestation) CreateRemoteAttestation(ctx context.Context, payloadDigest [32]byte, pccsURL string) ([]byte, error) {
	if f.panicIfCalled {
		panic("attestation adapter must not be called in dev mode")
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	sig := ed25519.Sign(f.priv, payloadDigest[:])
	out := make([]byte, 0, 32+len(sig))
	out = append(out, payloadDigest[:]...)
	out = append(out, sig...)
	return out, nil
}

func (f *fakeAttestation) VerifyRemoteAttestation(ctx context.Context, payloadDigest [32]byte, attestation []byte) (bool, error) {
	if f.panicIfCalled {
		panic("attestation adapter must not be called in dev mode")
	}
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	if f.rejectVerify {
		return false, nil
	}
	if len(attestation) < 32 {
		return false, nil
	}
	digest := attestation[:32]
	sig := attestation[32:]
	if !ed25519.Verify(f.pub, digest, sig) {
		return false, nil
	}
	return sha256sEqual(digest, payloadDigest), nil
}

func sha256sEqual(a []byte, b [32]byte) bool {
	if len(a) != 32 {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (f *fakeAttestation) ExtractMeasurements(attestation []byte) (string, string, error) {
	if f.panicIfCalled {
		panic("attestation adapter must not be called in dev mode")
	}
	return f.mrenclave, f.mrsigner, nil
}

// fakeRegistry is an in-memory RegistryAdapter.
type fakeRegistry struct {
	block    uint64
	mrenclave map[string]uint64
	mrsigner  map[string]uint64
}

func (r *fakeRegistry) CurrentBlockNumber(ctx context.Context) (uint64, error) {
	return r.block, nil
}

func (r *fakeRegistry) MrenclaveRegistry(ctx context.Context) (map[string]uint64, error) {
	return r.mrenclave, nil
}

func (r *fakeRegistry) MrsignerRegistry(ctx context.Context) (map[string]uint64, error) {
	return r.mrsigner, nil
}

// fakeLocalBridge simulates local attestation with an HMAC-free digest
// stand-in: same "platform" means same mrenclave/mrsigner reported back.
type fakeLocalBridge struct {
	targetInfo []byte
	mrenclave  string
	mrsigner   string
	rejectVerify bool
}

func (b *fakeLocalBridge) MyTargetInfo() ([]byte, error) {
	return b.targetInfo, nil
}

func (b *fakeLocalBridge) MakeLocalReport(peerTargetInfo []byte, reportData [64]byte) ([]byte, error) {
	h := sha256.Sum256(append(append([]byte{}, peerTargetInfo...), reportData[:]...))
	report := []byte(b.mrenclave + ":" + b.mrsigner + ":" + hex.EncodeToString(h[:]))
	return report, nil
}

func (b *fakeLocalBridge) VerifyLocalReport(report []byte) (string, string, error) {
	if b.rejectVerify {
		return "", "", errors.New("not same machine")
	}
	return b.mrenclave, b.mrsigner, nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
