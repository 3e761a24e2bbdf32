// Package config loads, normalizes, and validates screenwatch configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the SCREENWATCH_DIR environment override for the
// watched screenshot folder. Always obtain settings through this package so
// downstream code receives absolute paths, lower-cased extensions, and clear
// validation errors naming the offending TOML key.
package config
