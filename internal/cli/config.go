package cli

import (
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	NATSURL  string
	Server   string
	Username string
	Output   string
	Timeout  time.Duration
	Verbose  bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		NATSURL:  getEnvOrDefault("BSHIP_NATS_URL", "nats://localhost:4222"),
		Server:   os.Getenv("BSHIP_SERVER"),
		Username: os.Getenv("BSHIP_USER"),
		Output:   "text",
		Timeout:  5 * time.Second,
		Verbose:  false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
