// Package config loads culvertd configuration from a YAML file with
// environment variable overrides (CULVERT_ prefix) and validates the
// result before the service starts.
package config
