// Package config loads service configuration from the environment, reading a
// local .env file first when one is present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DatabaseURL string
	LogLevel    string
	LogFormat   string
	DevSeed     bool
	// JWTSecret enables bearer auth on the API when non-empty.
	JWTSecret string
	JWTTTL    time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Load reads .env (if present) and builds the config from the environment.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Addr:        ":" + getenv("PORT", "8080"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		LogLevel:    getenv("LOG_LEVEL", "INFO"),
		LogFormat:   getenv("LOG_FORMAT", "json"),
		DevSeed:     getbool("DEV_SEED", false),
		JWTSecret:   getenv("JWT_HS256_SECRET", ""),
		JWTTTL:      getdur("JWT_TTL", time.Hour),
	}
}
