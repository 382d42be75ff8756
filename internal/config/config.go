package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr string

	DBDsn string

	RedisAddr     string
	RedisPassword string

	SessionTTLHours int

	// Superadmin seeded on first migration.
	AdminPhone    string
	AdminPassword string

	// Telegram notifications for admins. Optional.
	BotToken    string
	AdminChatID string

	// Balance credited to every new account.
	WelcomeBonus float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using system environment variables")
	}

	return &Config{
		Addr: getEnvOrDefault("ADDR", "0.0.0.0:8080"),

		DBDsn: getEnvOrDefault("DB_DSN", "saldoya.db"),

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 720),

		AdminPhone:    os.Getenv("ADMIN_PHONE"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		BotToken:    os.Getenv("BOT_TOKEN"),
		AdminChatID: os.Getenv("ADMIN_CHAT_ID"),

		WelcomeBonus: getEnvFloat("WELCOME_BONUS", 5000),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
