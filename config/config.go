package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	StaticDir      string
	JWTSecret      string
	AdminUser      string
	AdminPass      string
	Redis          RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() *Config {
	// Parse allowed origins (comma-separated)
	originsStr := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	origins := strings.Split(originsStr, ",")

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		db = 0
	}

	return &Config{
		Port:           getEnv("PORT", "9736"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: origins,
		StaticDir:      getEnv("STATIC_DIR", "offsets"),
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		AdminUser:      getEnv("ADMIN_USER", "admin"),
		AdminPass:      getEnv("ADMIN_PASS", ""),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       db,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
