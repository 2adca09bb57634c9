package config

import (
	"os"
	"testing"
)

func writeTmpConfig(t *testing.T, name string, raw string) string {
	t.Helper()
	if err := os.WriteFile(name, []byte(raw), 0644); err != nil {
		t.Fatalf("write tmp config: %v", err)
	}
	t.Cleanup(func() { os.Remove(name) })
	return name
}

func TestLoadConfig_Valid(t *testing.T) {
	ResetConfigForTest()
	tmp := writeTmpConfig(t, "test_config.json", `{
		"server": {
			"host": "localhost",
			"port": 8080,
			"subpath": "/api",
			"jwtSecret": "mysecret"
		},
		"database": {
			"driver": "sqlite",
			"dsn": "file::memory:"
		},
		"redis": {
			"addr": "localhost:6379",
			"password": "",
			"db": 0
		},
		"llm": {"name": "openai/gpt-4o-mini", "url": "https://openrouter.ai/api/v1"},
		"retrieval": {"qdrant": {"url": "http://localhost:6333", "collection": "policies"}}
	}`)

	cfg, err := LoadConfig(tmp)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.LLM.Name != "openai/gpt-4o-mini" {
		t.Errorf("llm config not loaded")
	}
	if cfg.Retrieval.TopK != 8 {
		t.Errorf("expected default topK 8, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Redis.LockTTLSeconds != 30 {
		t.Errorf("expected default lock ttl 30, got %d", cfg.Redis.LockTTLSeconds)
	}
	if GetConfig() != cfg {
		t.Errorf("GetConfig should return the loaded singleton")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	ResetConfigForTest()
	t.Setenv("LLM_API_KEY", "sk-from-env")
	t.Setenv("DATABASE_URL", "file:env.db")
	tmp := writeTmpConfig(t, "test_env_config.json", `{
		"server": {"jwtSecret": "s"},
		"database": {"driver": "sqlite", "dsn": "file:json.db"},
		"llm": {"api_key": "sk-from-json"}
	}`)

	cfg, err := LoadConfig(tmp)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.LLM.APIKey != "sk-from-env" {
		t.Errorf("expected env api key, got %q", cfg.LLM.APIKey)
	}
	if cfg.Database.DSN != "file:env.db" {
		t.Errorf("expected env dsn, got %q", cfg.Database.DSN)
	}
}

func TestLoadConfig_EmbeddingKey(t *testing.T) {
	ResetConfigForTest()
	t.Setenv("EMBEDDING_API_KEY", "sk-embed-env")
	tmp := writeTmpConfig(t, "test_embed_config.json", `{
		"server": {"jwtSecret": "s"},
		"database": {"driver": "sqlite", "dsn": "file:json.db"},
		"retrieval": {"embedding_model": {"name": "bge-small", "url": "http://embed", "api_key": "sk-embed-json"}}
	}`)

	cfg, err := LoadConfig(tmp)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if got := cfg.Retrieval.EmbeddingModel.APIKey; got != "sk-embed-env" {
		t.Errorf("expected env embedding key, got %q", got)
	}
	if got := cfg.Retrieval.EmbeddingModel.Name; got != "bge-small" {
		t.Errorf("expected json embedding model, got %q", got)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfigForTest()
	_, err := LoadConfig("no_such_config.json")
	if err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	ResetConfigForTest()
	tmp := writeTmpConfig(t, "test_invalid_config.json", `{this is not json}`)

	_, err := LoadConfig(tmp)
	if err == nil {
		t.Errorf("expected error for malformed JSON")
	}
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	ResetConfigForTest()
	t.Setenv("JWT_SECRET", "")
	tmp := writeTmpConfig(t, "test_nosecret_config.json", `{"server": {}, "database": {"driver": "sqlite"}}`)

	if _, err := LoadConfig(tmp); err == nil {
		t.Errorf("expected error when jwtSecret is missing")
	}
}

func TestLoadConfig_UnknownDriver(t *testing.T) {
	ResetConfigForTest()
	tmp := writeTmpConfig(t, "test_driver_config.json", `{"server": {"jwtSecret": "s"}, "database": {"driver": "mysql"}}`)

	if _, err := LoadConfig(tmp); err == nil {
		t.Errorf("expected error for unsupported driver")
	}
}
