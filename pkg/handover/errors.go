// Package handover implements the justicar key-handover protocol core: the
// challenge/response state machine that transfers a worker key from an
// older enclave node to a strictly newer one.
package handover

import (
	"cosmossdk.io/errors"
)

// Error kinds returned by the handover protocol. Callers MUST distinguish
// these with errors.Is rather than string-matching, since "bad actor" and
// "transient adapter failure" require different operator responses.
var (
	// ErrHandoverExpired is returned when the challenge is older than the
	// freshness window or claims a future block.
	ErrHandoverExpired = errors.Register("handover", 1, "challenge outside freshness window")

	// ErrChallengeMismatch is returned when a response does not echo the
	// last challenge issued by this engine, byte-for-byte.
	ErrChallengeMismatch = errors.Register("handover", 2, "response does not match last issued challenge")

	// ErrLocalAttestationRejected is returned when the peer's local report
	// fails to verify as originating from the same physical machine.
	ErrLocalAttestationRejected = errors.Register("handover", 3, "local attestation rejected")

	// ErrRemoteAttestationRejected is returned when remote-attestation
	// verification returns false, or the attestation is absent outside dev
	// mode.
	ErrRemoteAttestationRejected = errors.Register("handover", 4, "remote attestation rejected")

	// ErrAttestationTimeout is returned when an attestation adapter call
	// exceeds the configured ra_timeout.
	ErrAttestationTimeout = errors.Register("handover", 5, "remote attestation timed out")

	// ErrNotAuthorized is returned when a measurement is missing from the
	// registry's allow-list.
	ErrNotAuthorized = errors.Register("handover", 6, "measurement not authorized")

	// ErrRegistryInconsistent is returned when the mrenclave and mrsigner
	// registries disagree on the introduction block for one identity.
	ErrRegistryInconsistent = errors.Register("handover", 7, "registry introduction blocks disagree")

	// ErrVersionNotNewer is returned when the client is not strictly newer
	// than the server.
	ErrVersionNotNewer = errors.Register("handover", 8, "client enclave version not newer than server")

	// ErrCrypto wraps primitive failures: AEAD, encoding, key agreement.
	ErrCrypto = errors.Register("handover", 9, "cryptographic primitive failure")

	// ErrSerialization wraps failures serializing or decoding a wire message.
	ErrSerialization = errors.Register("handover", 10, "message serialization failure")

	// ErrNoChallenge describes a handover_start call with no outstanding
	// challenge (already consumed, or never issued). HandoverStart reports
	// that case as ErrChallengeMismatch wrapped with this description, so a
	// replayed response fails with ErrChallengeMismatch.
	ErrNoChallenge = errors.Register("handover", 11, "no outstanding challenge")

	// ErrInvalidState is registered for calls made out of the state-machine
	// order spec.md §4.5 describes. No HandoverEngine method returns it.
	ErrInvalidState = errors.Register("handover", 12, "invalid handover engine state")
)
