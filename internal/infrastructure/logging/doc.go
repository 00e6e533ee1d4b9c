// Package logging wraps log/slog with service defaults: output format
// and level from configuration, plus service and version fields on
// every record.
package logging
