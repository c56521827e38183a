// Package config loads, normalizes, and validates shelver configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SHELVER_LIBRARY_DIR. The Config type centralizes the library root, naming
// templates, media management policy and daemon settings so every command
// discovers them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, parsed permission modes, and clear validation errors.
package config
