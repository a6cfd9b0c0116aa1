package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("text2sql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if !cfg.Query.ReadOnly {
		t.Fatal("Query.ReadOnly should default to true")
	}
	if cfg.Query.RowLimit != 500 {
		t.Fatalf("Query.RowLimit = %d", cfg.Query.RowLimit)
	}
	if cfg.Query.Repair {
		t.Fatal("Query.Repair should default to false")
	}
	if cfg.Schema.MaxTables != 100 {
		t.Fatalf("Schema.MaxTables = %d", cfg.Schema.MaxTables)
	}
	if cfg.Model.Provider != "gemini" {
		t.Fatalf("Model.Provider = %q", cfg.Model.Provider)
	}
	if cfg.Model.Model != "gemini-1.5-flash-latest" {
		t.Fatalf("Model.Model = %q", cfg.Model.Model)
	}
	if cfg.Database.ConnectTimeout != 5*time.Second {
		t.Fatalf("Database.ConnectTimeout = %v", cfg.Database.ConnectTimeout)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"TEXT2SQL_PROFILE": "prod"})
	cfg, err := Load("text2sql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"TEXT2SQL_HTTP_ADDR":         ":9191",
		"TEXT2SQL_MODEL_PROVIDER":    "ollama",
		"TEXT2SQL_MODEL_NAME":        "sqlcoder",
		"TEXT2SQL_MODEL_ALLOWED":     "sqlcoder, duckdb-nsql ,",
		"TEXT2SQL_MODEL_TIMEOUT":     "45s",
		"TEXT2SQL_QUERY_READ_ONLY":   "false",
		"TEXT2SQL_QUERY_ROW_LIMIT":   "50",
		"TEXT2SQL_GENERATE_REPAIR":   "true",
		"TEXT2SQL_SCHEMA_MAX_TABLES": "10",
		"TEXT2SQL_LOG_LEVEL":         "error",
	})
	cfg, err := Load("text2sql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Address != ":9191" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Model.Provider != "ollama" {
		t.Fatalf("Model.Provider = %q", cfg.Model.Provider)
	}
	if cfg.Model.Model != "sqlcoder" {
		t.Fatalf("Model.Model = %q", cfg.Model.Model)
	}
	if len(cfg.Model.AllowedModels) != 2 || cfg.Model.AllowedModels[1] != "duckdb-nsql" {
		t.Fatalf("Model.AllowedModels = %#v", cfg.Model.AllowedModels)
	}
	if cfg.Model.Timeout != 45*time.Second {
		t.Fatalf("Model.Timeout = %v", cfg.Model.Timeout)
	}
	if cfg.Query.ReadOnly {
		t.Fatal("Query.ReadOnly should be overridden to false")
	}
	if cfg.Query.RowLimit != 50 {
		t.Fatalf("Query.RowLimit = %d", cfg.Query.RowLimit)
	}
	if !cfg.Query.Repair {
		t.Fatal("Query.Repair should be overridden to true")
	}
	if cfg.Schema.MaxTables != 10 {
		t.Fatalf("Schema.MaxTables = %d", cfg.Schema.MaxTables)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"profile":   {"TEXT2SQL_PROFILE": "staging"},
		"provider":  {"TEXT2SQL_MODEL_PROVIDER": "bard"},
		"row limit": {"TEXT2SQL_QUERY_ROW_LIMIT": "0"},
		"duration":  {"TEXT2SQL_MODEL_TIMEOUT": "soon"},
		"log level": {"TEXT2SQL_LOG_LEVEL": "loud"},
	}
	for name, env := range cases {
		if _, err := Load("text2sql-api", mapLookup(env)); err == nil {
			t.Fatalf("Load() with invalid %s should fail", name)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
