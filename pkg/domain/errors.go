package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

var (
	// ErrConfiguration matches any *ConfigurationError.
	ErrConfiguration = errors.New("configuration error")
	// ErrCapability matches any *CapabilityError.
	ErrCapability = errors.New("capability error")
	// ErrInternalInvariant matches any *InternalInvariantError.
	ErrInternalInvariant = errors.New("internal invariant violated")
)

// ConfigurationError reports a fatal setup problem, such as an unknown criterion
// or a malformed knowledge base. It is never retried.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error        { return e.Err }
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// CapabilityError reports a provider, transport or shape-mismatch failure
// for a single expert invocation.
type CapabilityError struct {
	Role       string
	Capability string
	// Shape is true when the response could not be parsed into the expected shape.
	Shape bool
	Cause error
}

func (e *CapabilityError) Error() string {
	kind := "call failed"
	if e.Shape {
		kind = "invalid response shape"
	}
	return fmt.Sprintf("capability %s (role %s): %s: %v", e.Capability, e.Role, kind, e.Cause)
}

func (e *CapabilityError) Unwrap() error        { return e.Cause }
func (e *CapabilityError) Is(target error) bool { return target == ErrCapability }

// InternalInvariantError signals an orchestration bug. It is always fatal.
type InternalInvariantError struct {
	Reason string
}

func (e *InternalInvariantError) Error() string {
	return "internal invariant violated: " + e.Reason
}

func (e *InternalInvariantError) Is(target error) bool { return target == ErrInternalInvariant }
