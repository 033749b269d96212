package config

import "log"

// MustValid stops the process when the configuration is incomplete.
func MustValid(cfg Config) {
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
}
