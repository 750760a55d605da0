// Package attestation provides concrete AttestationAdapter implementations
// for pkg/handover: a SimulatedAdapter for dev mode and tests, and a
// DCAPAdapter that produces/verifies SGX-DCAP-shaped quotes against a
// configured PCCS endpoint.
package attestation

import "cosmossdk.io/errors"

var (
	// ErrQuoteTooShort is returned when a quote is truncated below the
	// minimum size for its shape.
	ErrQuoteTooShort = errors.Register("attestation", 100, "attestation quote too short")

	// ErrUnsupportedVersion is returned for a quote version this adapter
	// does not understand.
	ErrUnsupportedVersion = errors.Register("attestation", 101, "unsupported quote version")

	// ErrPCCSRequest wraps a failed PCCS HTTP round trip.
	ErrPCCSRequest = errors.Register("attestation", 102, "PCCS request failed")

	// ErrBadMeasurementEncoding is returned when a configured measurement is
	// not valid hex or not the expected length.
	ErrBadMeasurementEncoding = errors.Register("attestation", 103, "measurement must be hex-lowercase and 32 bytes")
)
