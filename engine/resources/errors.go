package resources

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownResource marks an address absent from the manifest. The
	// request fails fast and no loadable is ever constructed for it.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrDependencyFailure marks a required bundle or asset that failed;
	// the message identifies both the dependent and the dependency.
	ErrDependencyFailure = errors.New("dependency failure")
	// ErrTransferFailure marks a network transfer the download service
	// reported as failed. Local loading is never attempted after it.
	ErrTransferFailure = errors.New("transfer failure")
	// ErrDeserializeFailure marks a local package or object that could
	// not be read or decoded.
	ErrDeserializeFailure = errors.New("deserialize failure")
)

// errWithAddress builds the human-readable terminal message, keeping the
// failure kind reachable through errors.Is.
func errWithAddress(kind error, address, detail string) error {
	return fmt.Errorf("%w: %s: %s", kind, address, detail)
}

// errDependency wraps a dependency's own message with a prefix naming
// the dependent, as propagated failures must.
func errDependency(dependent, dependency, message string) error {
	return fmt.Errorf("%w: '%s' requires '%s' which failed: %s", ErrDependencyFailure, dependent, dependency, message)
}
