// Package cmd implements the httprepro CLI commands using Cobra.
//
// Available commands:
//   - get: Prompt for a URL and capture it once
//   - batch: Capture the same request many times, in sequence or all at once
//   - compare: Capture a request with both URL strategies and diff the results
//   - variants: List the batch presets
//   - version: Show httprepro version information
//
// Configuration is layered from a config file, HTTPREPRO_* environment
// variables (optionally loaded from a .env file) and flags.
package cmd
