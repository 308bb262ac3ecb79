// Package config handles configuration loading for httprepro.
//
// Settings are layered, later layers winning:
//   - DefaultConfig
//   - a .httprepro.json or .httprepro.yaml file
//   - HTTPREPRO_* environment variables, optionally seeded from a .env file
//   - command line flags
package config
