package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	TriggerAudience         string
	FanoutCommitConcurrency int
}

func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		TriggerAudience:         getEnv("TRIGGER_AUDIENCE", ""),
		FanoutCommitConcurrency: getEnvInt("FANOUT_COMMIT_CONCURRENCY", 1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
