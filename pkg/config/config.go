// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string `yaml:"env"`
	HTTPAddr string `yaml:"http_addr"`

	// App identity handed out by the platform's app store listing.
	AppName              string `yaml:"app_name"`
	AppSecret            string `yaml:"app_secret"`
	AuthorizeCallbackURL string `yaml:"authorize_callback_url"`

	// Timeout applied to outbound admin-API calls unless overridden per call.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Redis & Postgres
	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:                  env("APP_ENV", "dev"),
		HTTPAddr:             env("APP_HTTP_ADDR", ":8080"),
		AppName:              env("APP_NAME", ""),
		AppSecret:            env("APP_SECRET", ""),
		AuthorizeCallbackURL: env("APP_AUTHORIZE_CALLBACK_URL", ""),
		HTTPTimeout:          envDur("APP_HTTP_TIMEOUT_SEC", 30) * time.Second,
		RedisURL:             env("REDIS_URL", ""),
		DatabaseURL:          env("DATABASE_URL", ""),
	}
	if file := os.Getenv("APP_CONFIG_FILE"); file != "" {
		if err := overlayFile(&cfg, file); err != nil {
			log.Printf("[WARN] could not read %s: %v", file, err)
		}
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set — using in-memory shop repository for dev")
	}
	return cfg
}

// overlayFile applies non-zero values from a YAML file on top of the
// env-derived configuration.
func overlayFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return err
	}
	if file.Env != "" {
		cfg.Env = file.Env
	}
	if file.HTTPAddr != "" {
		cfg.HTTPAddr = file.HTTPAddr
	}
	if file.AppName != "" {
		cfg.AppName = file.AppName
	}
	if file.AppSecret != "" {
		cfg.AppSecret = file.AppSecret
	}
	if file.AuthorizeCallbackURL != "" {
		cfg.AuthorizeCallbackURL = file.AuthorizeCallbackURL
	}
	if file.HTTPTimeout != 0 {
		cfg.HTTPTimeout = file.HTTPTimeout
	}
	if file.RedisURL != "" {
		cfg.RedisURL = file.RedisURL
	}
	if file.DatabaseURL != "" {
		cfg.DatabaseURL = file.DatabaseURL
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
