// Package localreport provides a concrete LocalAttestationBridge that
// simulates SGX EREPORT/EGETKEY local attestation with an HMAC bound to the
// peer's target-info, generalizing the teacher's simulateSGXReport into a
// real make/verify round trip.
package localreport

import "cosmossdk.io/errors"

var (
	// ErrReportMalformed is returned when a report is the wrong size or
	// carries an unrecognized layout.
	ErrReportMalformed = errors.Register("localreport", 200, "local report malformed")

	// ErrMACMismatch is returned when the report's MAC does not match what
	// this bridge's platform secret recomputes — the two enclaves are not
	// on the same physical machine (or one holds a different platform
	// secret).
	ErrMACMismatch = errors.Register("localreport", 201, "local report MAC mismatch: not same machine")

	// ErrBadMeasurementEncoding mirrors pkg/attestation's check for
	// constructor inputs.
	ErrBadMeasurementEncoding = errors.Register("localreport", 202, "measurement must be hex-lowercase and 32 bytes")
)
