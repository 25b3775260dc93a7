// Package config loads runtime settings from the environment and
// instantiate parameters from CUE files.
package config
