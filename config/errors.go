package config

import "errors"

var (
	// ErrInvalidConfig wraps validation failures.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingEnv is returned when ${VAR} names an unset variable.
	ErrMissingEnv = errors.New("config: missing environment variables")

	// ErrUnknownProvider is returned for secretrefs naming an unregistered
	// provider.
	ErrUnknownProvider = errors.New("config: secret provider not registered")

	// ErrEmptySecret is returned when a provider resolves to "".
	ErrEmptySecret = errors.New("config: secret resolved to an empty value")

	// ErrSecretNotFound is returned by providers that have no value for a
	// reference.
	ErrSecretNotFound = errors.New("config: secret not found")
)
