// internal/workers/matching/scholarship-search/config.go
package scholarshipsearch

import "time"

type Config struct {
	IndexName string
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		IndexName: "scholarships",
		Timeout:   30 * time.Second,
	}
}
