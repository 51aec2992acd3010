package redis

// Config holds Redis connection and retention settings
type Config struct {
	// URL is a redis:// connection URL
	URL string

	PoolSize     int
	MinIdleConns int

	// MaxRecords caps the archived game list; older records are trimmed.
	// Zero means unbounded.
	MaxRecords int64
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRecords:   1000,
	}
}
