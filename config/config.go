package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	PGURL              string
	Port               string
	APIKey             string
	RecomputeCron      string
	ComputeParallelism int
}

// Load reads configuration from the environment, with a .env file as
// fallback for development.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	pgURL := os.Getenv("PG_URL")
	if pgURL == "" {
		return nil, fmt.Errorf("PG_URL environment variable is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	parallelism := 8
	if raw := os.Getenv("COMPUTE_PARALLELISM"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("COMPUTE_PARALLELISM must be a positive integer, got %q", raw)
		}
		parallelism = n
	}

	return &Config{
		PGURL:              pgURL,
		Port:               port,
		APIKey:             os.Getenv("API_KEY"),
		RecomputeCron:      os.Getenv("RECOMPUTE_CRON"),
		ComputeParallelism: parallelism,
	}, nil
}
