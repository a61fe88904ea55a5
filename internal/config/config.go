// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Getenv reads an environment variable or returns a default value.
func Getenv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetenvInt parses an environment variable as an integer, else a default.
func GetenvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ListenAddr builds the service listen address from PORT, falling back to the
// service's conventional port.
func ListenAddr(defaultPort string) string {
	return ":" + Getenv("PORT", defaultPort)
}

// PostgresURL assembles a connection string from the DB_* variables each
// service has always used, with defaultDB naming the service's database.
func PostgresURL(defaultDB string) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		Getenv("DB_USER", "postgres"),
		Getenv("DB_PASSWORD", "password"),
		Getenv("DB_HOST", "localhost"),
		Getenv("DB_PORT", "5432"),
		Getenv("DB_NAME", defaultDB),
	)
}

// RedisAddr returns the Redis address for services that cache derived state.
func RedisAddr() string {
	return Getenv("REDIS_ADDR", "localhost:6379")
}

// MongoURI returns the MongoDB connection string for the chat service.
func MongoURI() string {
	return Getenv("MONGO_URI", "mongodb://localhost:27017")
}
