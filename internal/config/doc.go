// Package config loads, defaults, normalizes, and validates the TOML
// configuration for the canonical record engine and its enrichment
// subsystem.
package config
