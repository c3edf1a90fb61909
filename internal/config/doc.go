// Package config loads, normalizes, and validates uploader configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file next to the
// config, and honours environment fallbacks for secrets such as
// WP_APP_PASSWORD and TMDB_API_KEY.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
