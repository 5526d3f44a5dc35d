// Package config centralizes the judge platform's tunables into a single
// typed struct, built once at process start and passed down explicitly
// rather than read ad hoc from handlers and workers.
package config

import "os"

// Config holds every environment-driven setting the API server and judge
// worker need.
type Config struct {
	Port        string
	MetricsPort string

	DatabaseURL    string
	MigrationsPath string
	RedisAddr      string
	RedisPassword  string

	JWTSecret string

	OTLPEndpoint string
	Environment  string
}

// Load reads Config from the environment. Callers are expected to have
// already attempted godotenv.Load(); its absence is never fatal here either.
// Unset variables fall back to defaults, except DatabaseURL, MigrationsPath
// and RedisPassword, which are left empty.
func Load() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		MetricsPort:    getEnv("METRICS_PORT", "8082"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://otel-collector:4318"),
		Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

