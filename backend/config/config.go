package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string // postgres, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string // sqlite file
	JWTSecret  string
	ServerPort string

	UploadDir       string
	UploadURLPrefix string
	MaxUploadBytes  int64
	LogFormat       string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:        getEnv("DB_DRIVER", "postgres"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "learnhub"),
		DBPath:          getEnv("DB_PATH", "learnhub.db"),
		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		UploadURLPrefix: getEnv("UPLOAD_URL_PREFIX", "/uploads"),
		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 64<<20),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
