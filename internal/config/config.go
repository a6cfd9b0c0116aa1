package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	Schema        SchemaConfig
	Model         ModelConfig
	Query         QueryConfig
	Session       SessionConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	ConnectTimeout time.Duration
}

type SchemaConfig struct {
	MaxTables int
}

// ModelConfig selects the language-model backend. Provider is one of
// "openai", "gemini" or "ollama"; the API key is only ever read from the
// environment and is never logged or persisted.
type ModelConfig struct {
	Provider      string
	BaseURL       string
	APIKey        string
	Model         string
	AllowedModels []string
	Temperature   float64
	Timeout       time.Duration
}

type QueryConfig struct {
	ReadOnly bool
	RowLimit int
	Timeout  time.Duration
	// Repair enables a single corrective re-prompt when generated SQL
	// fails at the driver. Never more than one attempt per turn.
	Repair bool
}

type SessionConfig struct {
	IdleTTL time.Duration
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("TEXT2SQL_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid TEXT2SQL_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "TEXT2SQL_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TEXT2SQL_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TEXT2SQL_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TEXT2SQL_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TEXT2SQL_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TEXT2SQL_DB_CONNECT_TIMEOUT", &cfg.Database.ConnectTimeout); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TEXT2SQL_SCHEMA_MAX_TABLES", &cfg.Schema.MaxTables); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TEXT2SQL_MODEL_PROVIDER", &cfg.Model.Provider); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TEXT2SQL_MODEL_BASE_URL", &cfg.Model.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TEXT2SQL_MODEL_API_KEY", &cfg.Model.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TEXT2SQL_MODEL_NAME", &cfg.Model.Model); err != nil {
		return Config{}, err
	}
	if err := applyStringList(lookup, "TEXT2SQL_MODEL_ALLOWED", &cfg.Model.AllowedModels); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "TEXT2SQL_MODEL_TEMPERATURE", &cfg.Model.Temperature); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TEXT2SQL_MODEL_TIMEOUT", &cfg.Model.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TEXT2SQL_QUERY_READ_ONLY", &cfg.Query.ReadOnly); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TEXT2SQL_QUERY_ROW_LIMIT", &cfg.Query.RowLimit); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TEXT2SQL_QUERY_TIMEOUT", &cfg.Query.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TEXT2SQL_GENERATE_REPAIR", &cfg.Query.Repair); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TEXT2SQL_SESSION_IDLE_TTL", &cfg.Session.IdleTTL); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TEXT2SQL_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "TEXT2SQL_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TEXT2SQL_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TEXT2SQL_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if !isValidProvider(cfg.Model.Provider) {
		return Config{}, fmt.Errorf("invalid TEXT2SQL_MODEL_PROVIDER: %q", cfg.Model.Provider)
	}
	if cfg.Query.RowLimit <= 0 {
		return Config{}, fmt.Errorf("query row limit must be positive")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "text2sql-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			ConnectTimeout: 5 * time.Second,
		},
		Schema: SchemaConfig{
			MaxTables: 100,
		},
		Model: ModelConfig{
			Provider:    "gemini",
			Model:       "gemini-1.5-flash-latest",
			Temperature: 0.1,
			Timeout:     30 * time.Second,
		},
		Query: QueryConfig{
			ReadOnly: true,
			RowLimit: 500,
			Timeout:  30 * time.Second,
			Repair:   false,
		},
		Session: SessionConfig{
			IdleTTL: 30 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func isValidProvider(provider string) bool {
	switch provider {
	case "openai", "gemini", "ollama":
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyStringList(lookup LookupFunc, key string, dst *[]string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		values = append(values, part)
	}
	*dst = values
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
