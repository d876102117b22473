// internal/workers/matching/match-scholarships/config.go
package matchscholarships

import "time"

type Config struct {
	CacheTTL      time.Duration
	Timeout       time.Duration
	MaxCandidates int
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL:      10 * time.Minute,
		Timeout:       30 * time.Second,
		MaxCandidates: 500,
	}
}
