// Package config loads, normalizes, and validates optflow configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as OPTFLOW_RUNNER and
// EDITOR. Command-line flags override the loaded values in cmd/optflow after
// Load returns.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
