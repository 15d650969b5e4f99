package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	BackendURL  string
	JWTSecret   string
	JWKSURL     string
	SignInURL   string
	CORSOrigins []string
	LogLevel    string

	BackendTimeout time.Duration

	// Resolved-profile cache: "memory", "redis" or "postgres".
	ProfileStore    string
	ProfileCacheTTL time.Duration
	RedisURL        string
	DatabaseURL     string

	MentionDebounce time.Duration
	MentionLimit    int
}

func Load() Config {
	return Config{
		Port:        getenv("PORT", "8080"),
		BackendURL:  strings.TrimRight(getenv("BACKEND_API_URL", getenv("API_URL", "http://localhost:5001")), "/"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWKSURL:     os.Getenv("JWKS_URL"),
		SignInURL:   getenv("SIGN_IN_URL", "/sign-in"),
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		BackendTimeout: time.Duration(getenvInt("BACKEND_TIMEOUT_SECONDS", 30)) * time.Second,

		ProfileStore:    strings.ToLower(getenv("PROFILE_STORE", "memory")),
		ProfileCacheTTL: time.Duration(getenvInt("PROFILE_CACHE_TTL_SECONDS", 86400)) * time.Second,
		RedisURL:        getenv("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),

		MentionDebounce: time.Duration(getenvInt("MENTION_DEBOUNCE_MS", 300)) * time.Millisecond,
		MentionLimit:    getenvInt("MENTION_LIMIT", 10),
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
