// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides the single
// immutable Config value built at startup and passed to every component, so
// provider credentials and timeouts are never read from package-level globals.
package config
