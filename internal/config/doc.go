// Package config provides layered configuration for the trade analysis
// pipeline: struct-tag defaults, an optional YAML file, and TRADE_*
// environment variable overrides, validated as a whole before use.
package config
