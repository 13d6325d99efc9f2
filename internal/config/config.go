// Package config содержит логику чтения конфигурации сервиса бронирования.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса бронирования.
type Config struct {
	RunAddress       string `env:"RUN_ADDRESS"`
	DatabaseURI      string `env:"DATABASE_URI"`
	RedisAddress     string `env:"REDIS_ADDRESS"`
	InventoryAddress string `env:"INVENTORY_ADDRESS"`
	PromoAddress     string `env:"PROMO_ADDRESS"`
	KashierAddress   string `env:"KASHIER_ADDRESS"`
	SessionSecret    string `env:"SESSION_SECRET"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envRedisAddress := cfg.RedisAddress
	envInventoryAddress := cfg.InventoryAddress
	envPromoAddress := cfg.PromoAddress
	envKashierAddress := cfg.KashierAddress
	envSessionSecret := cfg.SessionSecret

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddress, "c", "", "redis address for the rates cache")
	flag.StringVar(&cfg.InventoryAddress, "i", "", "inventory feed address")
	flag.StringVar(&cfg.PromoAddress, "p", "", "promo rules service address")
	flag.StringVar(&cfg.KashierAddress, "k", "", "kashier payment gateway address")
	flag.StringVar(&cfg.SessionSecret, "s", "", "session cookie signing secret")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envRedisAddress != "" {
		cfg.RedisAddress = envRedisAddress
	}
	if envInventoryAddress != "" {
		cfg.InventoryAddress = envInventoryAddress
	}
	if envPromoAddress != "" {
		cfg.PromoAddress = envPromoAddress
	}
	if envKashierAddress != "" {
		cfg.KashierAddress = envKashierAddress
	}
	if envSessionSecret != "" {
		cfg.SessionSecret = envSessionSecret
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}
