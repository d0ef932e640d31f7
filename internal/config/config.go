package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/langchou/parklot/internal/models"
)

// Config 服务配置，来自环境变量或 .env
type Config struct {
	Port              string
	Debug             bool
	DatabaseURL       string
	DefaultFineScheme models.FineScheme
}

// Load 读取配置，.env 不存在时只用环境变量
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Debug:             getEnv("DEBUG", "false") == "true",
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DefaultFineScheme: models.FineScheme(getEnv("DEFAULT_FINE_SCHEME", string(models.DefaultFineScheme))),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if !cfg.DefaultFineScheme.Valid() {
		return nil, fmt.Errorf("invalid DEFAULT_FINE_SCHEME: %s", cfg.DefaultFineScheme)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
