// Package config loads the service configuration from an optional YAML file
// and the environment. Environment variables take precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	IdempotencyPostgres = "postgres"
	IdempotencyRedis    = "redis"
	IdempotencyMemory   = "memory"
)

type Config struct {
	AppEnv  string `yaml:"app_env" env:"APP_ENV" env-default:"development"`
	AppPort string `yaml:"app_port" env:"APP_PORT" env-default:"8080"`

	Database struct {
		Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
		Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
		User     string `yaml:"user" env:"DB_USER" env-default:"postgres"`
		Password string `yaml:"password" env:"DB_PASSWORD" env-default:""`
		Name     string `yaml:"name" env:"DB_NAME" env-default:"moneta"`
		SSLMode  string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	} `yaml:"database"`

	Redis struct {
		Addr      string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
		Password  string        `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		KeyPrefix string        `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"moneta"`
		TTL       time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"720h"`
	} `yaml:"redis"`

	// Idempotency selects where callback outcomes are recorded.
	Idempotency string `yaml:"idempotency" env:"IDEMPOTENCY_BACKEND" env-default:"postgres"`

	Merchant struct {
		ID              string `yaml:"id" env:"MNT_ID" env-default:""`
		Secret          string `yaml:"secret" env:"MNT_SECRET" env-default:""`
		TestMode        bool   `yaml:"test_mode" env:"MNT_TEST_MODE" env-default:"true"`
		CurrencyCode    string `yaml:"currency_code" env:"MNT_CURRENCY_CODE" env-default:"RUB"`
		SubscriberID    int64  `yaml:"subscriber_id" env:"MNT_SUBSCRIBER_ID" env-default:"0"`
		GatewayURL      string `yaml:"gateway_url" env:"MNT_GATEWAY_URL" env-default:"https://www.payanyway.ru/assistant.htm"`
		SignatureScheme string `yaml:"signature_scheme" env:"MNT_SIGNATURE_SCHEME" env-default:"md5-hex"`
	} `yaml:"merchant"`

	Fee struct {
		// Value is kept as a string so a malformed entry degrades to a zero fee
		// instead of failing the whole config load.
		Value      string `yaml:"value" env:"FEE_VALUE" env-default:"0"`
		Percentage bool   `yaml:"percentage" env:"FEE_PERCENTAGE" env-default:"false"`
	} `yaml:"fee"`

	Operator struct {
		PasswordHash string        `yaml:"password_hash" env:"OPERATOR_PASSWORD_HASH" env-default:""`
		JWTSecret    string        `yaml:"jwt_secret" env:"OPERATOR_JWT_SECRET" env-default:""`
		TokenTTL     time.Duration `yaml:"token_ttl" env:"OPERATOR_TOKEN_TTL" env-default:"1h"`
	} `yaml:"operator"`
}

// LoadConfig reads .env (if present) into the environment, then fills Config
// from the YAML file at path or, when path is empty or missing, from the
// environment alone.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	if path != "" && fileExists(path) {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("load config: %w; %s", err, desc)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted. Merchant credentials are
// not checked here; a missing secret must block checkout, not startup.
func (c *Config) Validate() error {
	switch c.Idempotency {
	case IdempotencyPostgres, IdempotencyRedis, IdempotencyMemory:
	default:
		return fmt.Errorf("invalid IDEMPOTENCY_BACKEND %q", c.Idempotency)
	}
	if c.AppPort == "" {
		return errors.New("APP_PORT is empty")
	}
	return nil
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Database.Host, c.Database.User, c.Database.Password,
		c.Database.Name, c.Database.Port, c.Database.SSLMode,
	)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
