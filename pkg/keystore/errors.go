// Package keystore persists the worker key a client node receives from a
// handover, encrypted at rest. This is out-of-core per spec.md §1 ("key
// persistence" is listed as an external collaborator), but a complete
// deployable node needs somewhere to put the key once DecryptEnvelope
// returns it.
package keystore

import "cosmossdk.io/errors"

var (
	// ErrNotFound is returned when no key has been stored yet.
	ErrNotFound = errors.Register("keystore", 400, "no worker key stored")

	// ErrCorrupt is returned when the stored file cannot be decrypted or
	// parsed — wrong passphrase, truncated write, or tampering.
	ErrCorrupt = errors.Register("keystore", 401, "stored worker key is corrupt or passphrase is wrong")

	// ErrIO wraps a filesystem failure.
	ErrIO = errors.Register("keystore", 402, "keystore filesystem error")
)
