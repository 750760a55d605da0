package attestation

import (
	"bytes"
	"context"
	"encoding/hex"
)

// simulatedMagic marks a SimulatedAdapter quote, grounded on the teacher's
// simulatedMagic prefix convention in attestation_verifier.go's
// SimulatedVerifier/CreateTestSimulatedAttestation.
var simulatedMagic = []byte("SIM")

// SimulatedAdapter is a dev-mode/test AttestationAdapter: no signature, no
// network I/O, just a self-describing byte layout carrying the measurement
// pair and the bound digest. HandoverEngine never calls into any adapter
// when dev_mode is true, so this implementation exists for tests that
// exercise the non-dev path without a real TEE or PCCS endpoint.
type SimulatedAdapter struct {
	mrenclave string
	mrsigner  string
}

// NewSimulatedAdapter builds a SimulatedAdapter reporting the given
// hex-lowercase measurements.
func NewSimulatedAdapter(mrenclave, mrsigner string) *SimulatedAdapter {
	return &SimulatedAdapter{mrenclave: mrenclave, mrsigner: mrsigner}
}

// CreateRemoteAttestation implements handover.AttestationAdapter.
func (a *SimulatedAdapter) CreateRemoteAttestation(ctx context.Context, payloadDigest [32]byte, pccsURL string) ([]byte, error) {
	mre, err := hex.DecodeString(a.mrenclave)
	if err != nil || len(mre) != 32 {
		return nil, ErrBadMeasurementEncoding
	}
	mrs, err := hex.DecodeString(a.mrsigner)
	if err != nil || len(mrs) != 32 {
		return nil, ErrBadMeasurementEncoding
	}

	out := make([]byte, 0, len(simulatedMagic)+32+32+32)
	out = append(out, simulatedMagic...)
	out = append(out, mre...)
	out = append(out, mrs...)
	out = append(out, payloadDigest[:]...)
	return out, nil
}

// VerifyRemoteAttestation implements handover.AttestationAdapter.
func (a *SimulatedAdapter) VerifyRemoteAttestation(ctx context.Context, payloadDigest [32]byte, attestation []byte) (bool, error) {
	if len(attestation) != len(simulatedMagic)+32+32+32 {
		return false, nil
	}
	if !bytes.HasPrefix(attestation, simulatedMagic) {
		return false, nil
	}
	digest := attestation[len(simulatedMagic)+32+32:]
	return bytes.Equal(digest, payloadDigest[:]), nil
}

// ExtractMeasurements implements handover.AttestationAdapter.
func (a *SimulatedAdapter) ExtractMeasurements(attestation []byte) (string, string, error) {
	if len(attestation) != len(simulatedMagic)+32+32+32 {
		return "", "", ErrQuoteTooShort
	}
	mre := attestation[len(simulatedMagic) : len(simulatedMagic)+32]
	mrs := attestation[len(simulatedMagic)+32 : len(simulatedMagic)+64]
	return hex.EncodeToString(mre), hex.EncodeToString(mrs), nil
}
