// Package config loads, normalizes, and validates dedupe configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every
// knob the engine and CLI need so downstream code receives sanitized
// paths and clear validation errors.
package config
