package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Count:           10,
		Mode:            "sequential",
		NotifyOn:        "always",
		LogLevel:        "info",
		FollowRedirects: BoolPtr(false),
		Verbose:         BoolPtr(false),
		NoColor:         BoolPtr(false),
	}
}
