package config

import (
	"os"
	"strconv"
)

// Config holds the environment-derived settings for both binaries. Fields not
// relevant to a given binary are simply ignored by it.
type Config struct {
	AppEnv   string
	LogLevel string

	// BackendURL is the base URL of the remote REST API, without the
	// /api/v1 prefix (the client appends it).
	BackendURL string

	// HTTPAddr is the listen address of the storefront bridge mux.
	HTTPAddr string
	// AdminAddr is the listen address of the admin shell.
	AdminAddr string

	// StoreBackend selects the key-value store: "sqlite", "redis" or "memory".
	StoreBackend string
	SQLitePath   string
	RedisAddr    string

	// AdminToken is the opaque bearer token the admin shell requires.
	AdminToken string

	// NavigateDelayMS is the pause before returning to the categories screen
	// after a successful order.
	NavigateDelayMS int
}

func Load() Config {
	return Config{
		AppEnv:          getEnv("APP_ENV", "dev"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:8000"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		AdminAddr:       getEnv("ADMIN_ADDR", ":8081"),
		StoreBackend:    getEnv("STORE_BACKEND", "sqlite"),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/storefront.db"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		AdminToken:      getEnv("ADMIN_TOKEN", ""),
		NavigateDelayMS: getEnvInt("NAVIGATE_DELAY_MS", 1000),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
