package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port string `koanf:"port"`

	DBDriver string `koanf:"db_driver"`
	DBURL    string `koanf:"db_url"`

	JWTSecretKey string `koanf:"jwt_secret_key"`
	JWTIssuer    string `koanf:"jwt_issuer"`
	JWTAudience  string `koanf:"jwt_audience"`

	AllowedOrigins []string `koanf:"allowed_origins"`
	FrontendURL    string   `koanf:"frontend_url"`

	AIServiceURL    string `koanf:"ai_service_url"`
	AIAPIKey        string `koanf:"ai_api_key"`
	AIRatePerMinute int    `koanf:"ai_rate_per_minute"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Set by the hosting platform; its presence marks production.
	RailwayEnvironment string `koanf:"railway_environment_name"`
}

func defaultConfig() *Config {
	return &Config{
		Port:            "8080",
		DBDriver:        "postgres",
		JWTIssuer:       "mindflow",
		JWTAudience:     "mindflow-api",
		AllowedOrigins:  []string{"http://localhost:3000"},
		FrontendURL:     "http://localhost:3000",
		AIRatePerMinute: 10,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

var envKeys = map[string]bool{
	"port":                     true,
	"db_driver":                true,
	"db_url":                   true,
	"jwt_secret_key":           true,
	"jwt_issuer":               true,
	"jwt_audience":             true,
	"allowed_origins":          true,
	"frontend_url":             true,
	"ai_service_url":           true,
	"ai_api_key":               true,
	"ai_rate_per_minute":       true,
	"log_level":                true,
	"log_format":               true,
	"railway_environment_name": true,
}

// Load layers defaults and environment variables into a validated Config.
// Call LoadDotEnv first when running outside production.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := splitList(k, "allowed_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envTransformFunc maps PORT -> port and drops variables we do not read.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if !envKeys[key] {
		return ""
	}
	return key
}

// splitList turns a comma-separated env value into a string slice.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if err := k.Set(path, parts); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if c.JWTIssuer == "" || c.JWTAudience == "" {
		errs = append(errs, errors.New("JWT_ISSUER and JWT_AUDIENCE must not be empty"))
	}
	if c.DBURL == "" {
		errs = append(errs, errors.New("DB_URL is required"))
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver))
	}
	if c.AIRatePerMinute <= 0 {
		errs = append(errs, errors.New("AI_RATE_PER_MINUTE must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs on the hosting platform.
func (c *Config) IsProduction() bool {
	return c.RailwayEnvironment != ""
}
