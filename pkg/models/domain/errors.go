package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrApplicationNotFound = errors.New("application configuration not found")

// ConfigurationError lists every required configuration key that is missing.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required config keys: %s", strings.Join(e.Missing, ", "))
}

// AuthenticationError reports a token exchange that was rejected or ran out of attempts.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("failed to obtain access token: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// UpstreamError reports a failed inventory listing for a region.
type UpstreamError struct {
	Region string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("failed to fetch servers from region %s: %v", e.Region, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
