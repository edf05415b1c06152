package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath          string
	RemoteURL       string
	RemoteAPIKey    string
	DefaultLocation string
	SyncInterval    time.Duration
	LogLevel        string
	LogFile         string
}

func Load() *Config {
	// Missing .env is fine; env vars win either way.
	_ = godotenv.Load()

	return &Config{
		DBPath:          getEnv("DB_PATH", "/data/inventory.db"),
		RemoteURL:       getEnv("REMOTE_URL", ""),
		RemoteAPIKey:    getEnv("REMOTE_API_KEY", ""),
		DefaultLocation: getEnv("DEFAULT_LOCATION", "Workshop"),
		SyncInterval:    getDuration("SYNC_INTERVAL", 30*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
