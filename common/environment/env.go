// Package environment provides small typed helpers for reading configuration
// from environment variables. Lookups never terminate the process; required
// values report an error and leave the decision to the caller.
package environment

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// StringOr returns the named variable, or fallback when it is unset or empty.
func StringOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// RequiredString returns the named variable or an error when it is unset or
// empty.
func RequiredString(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("required environment variable %q is not set", name)
	}
	return v, nil
}

// BoolOr parses the named variable with strconv.ParseBool semantics
// ("1", "t", "true", ...). Unset, empty, or unparseable values yield fallback.
func BoolOr(name string, fallback bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// IntOr parses the named variable as a decimal integer, falling back on
// unset, empty, or unparseable values.
func IntOr(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// DurationOr parses the named variable as a time.Duration ("30s", "5m").
// Unset, empty, or unparseable values yield fallback.
func DurationOr(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
