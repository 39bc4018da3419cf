package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`

	// Server
	Port int `env:"PORT" envDefault:"8080"`

	// Seeded admin account (skipped when email is empty)
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME" envDefault:"Admin"`

	// Telegram notifications for staff
	BotToken          string `env:"TELEGRAM_BOT_TOKEN"`
	LogTelegramChatID int64  `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicAnomaly   int    `env:"LOG_TOPIC_ANOMALY"`
	LogTopicUsers     int    `env:"LOG_TOPIC_USERS"`
	LogTopicCoupons   int    `env:"LOG_TOPIC_COUPONS"`
	LogTopicError     int    `env:"LOG_TOPIC_ERROR"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) TelegramEnabled() bool {
	return c.BotToken != "" && c.LogTelegramChatID != 0
}
