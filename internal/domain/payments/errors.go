package payments

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: no transaction matches the given id or provider
	// transaction id.
	ErrNotFound = errors.New("payment transaction not found")

	// ErrInvalidTransition: the requested status change is not an edge of
	// the transition graph for the row's current status. Nothing was
	// mutated.
	ErrInvalidTransition = errors.New("invalid payment status transition")

	// ErrSignatureInvalid: the webhook payload failed signature
	// verification. Retrying the identical delivery can never succeed.
	ErrSignatureInvalid = errors.New("webhook signature verification failed")

	// ErrPayloadInvalid: the webhook payload could not be parsed into an
	// event envelope.
	ErrPayloadInvalid = errors.New("webhook payload invalid")
)

// ConfigurationError reports a bad or unknown provider name. Callers must
// not retry without changing input.
type ConfigurationError struct {
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unknown payment provider %q", e.Value)
}

// ProviderError wraps a failure from a provider's remote API during
// checkout-session creation. The stored transaction is left untouched.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
