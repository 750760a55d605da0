// Package registry provides concrete RegistryAdapter implementations: an
// HTTPClient talking to an external enclave-measurement registry service,
// grounded on pkg/waldur's Config/error-classification conventions, and an
// in-memory StaticRegistry for tests and dev_mode.
package registry

import "cosmossdk.io/errors"

var (
	// ErrUnavailable wraps a failed request to the registry service.
	ErrUnavailable = errors.Register("registry", 300, "registry service unavailable")

	// ErrInvalidResponse is returned when the registry's response cannot be
	// parsed as the expected JSON shape.
	ErrInvalidResponse = errors.Register("registry", 301, "invalid response from registry")
)
