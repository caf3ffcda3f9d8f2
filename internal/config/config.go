package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP_ADDR string

	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	KAFKA_ADDRESS string

	JWT_SECRET     string
	REFRESH_SECRET string

	ACCESS_TTL_MIN    int
	REFRESH_TTL_HOURS int

	LOG_LEVEL string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_ADDR:         envDefault("HTTP_ADDR", ":8080"),
		DB_HOST:           os.Getenv("DB_HOST"),
		DB_PORT:           os.Getenv("DB_PORT"),
		DB_USER:           os.Getenv("DB_USER"),
		DB_PASSWORD:       os.Getenv("DB_PASSWORD"),
		DB_NAME:           os.Getenv("DB_NAME"),
		ES_URL:            os.Getenv("ES_URL"),
		ES_USER:           os.Getenv("ES_USER"),
		ES_PASSWORD:       os.Getenv("ES_PASSWORD"),
		KAFKA_ADDRESS:     os.Getenv("KAFKA_ADDRESS"),
		JWT_SECRET:        os.Getenv("JWT_SECRET"),
		REFRESH_SECRET:    os.Getenv("REFRESH_SECRET"),
		ACCESS_TTL_MIN:    envIntDefault("ACCESS_TTL_MIN", 60),
		REFRESH_TTL_HOURS: envIntDefault("REFRESH_TTL_HOURS", 7*24),
		LOG_LEVEL:         envDefault("LOG_LEVEL", "info"),
	}

	if config.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}
	if config.REFRESH_SECRET == "" {
		return nil, errors.New("REFRESH_SECRET must be set")
	}

	return config, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME,
	)
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.ACCESS_TTL_MIN) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.REFRESH_TTL_HOURS) * time.Hour
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
