package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue marks a value outside the accepted set.
	ErrInvalidValue = errors.New("invalid value")
	// ErrMissingValue marks a required value that was not supplied.
	ErrMissingValue = errors.New("missing value")
)

// ConfigError is a configuration problem detected before any device is opened.
type ConfigError struct {
	// Field is the flag or config key at fault
	Field string
	// Value is the rejected input (empty for missing values)
	Value string
	// Underlying error
	Err error
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("'%s' is not a valid %s: %v", e.Value, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
