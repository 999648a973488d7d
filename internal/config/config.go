package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server settings. Values come from the environment, with an
// optional .env file in the working directory loaded first.
type Config struct {
	Port           string
	DatabasePath   string
	UploadDir      string
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	LogFile        string
	LogLevel       string
	RequestTimeout time.Duration
}

// Load reads .env (if present) and then the environment.
func Load() Config {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	return Config{
		Port:           getEnv("PORT", "8008"),
		DatabasePath:   getEnv("DATABASE_PATH", "kyc-review.db"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads/kyc"),
		JWTSecret:      getEnv("JWT_SECRET", "development-insecure-secret-change-me"),
		JWTIssuer:      getEnv("JWT_ISSUER", "kyc-review-api"),
		JWTAudience:    getEnv("JWT_AUDIENCE", "kyc-review-clients"),
		LogFile:        os.Getenv("LOG_FILE"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
	}
}

// Addr returns the listen address for gin.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
