package config

import (
	"errors"
)

// Sentinel error kinds for this package. Callers match them with errors.Is.
var (
	// ErrInvalidConfig marks a configuration that parsed but cannot run,
	// such as a non-positive worker count or a malformed upstream URL.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig marks a failure to read or decode a configuration
	// source (file or environment).
	ErrLoadConfig = errors.New("load config failed")
)
