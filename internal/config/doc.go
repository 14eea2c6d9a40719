// Package config loads and validates dashwatch configuration.
//
// Configuration is YAML with ${VAR} environment variable expansion.
// Load reads the raw file, LoadWithDefaults fills in optional fields,
// and LoadAndValidate additionally checks required fields.
package config
