package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

type LLMConfig struct {
	Name           string  `json:"name"`
	URL            string  `json:"url"`
	APIKey         string  `json:"api_key"`
	Temperature    float32 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

type RetrievalConfig struct {
	EmbeddingModel struct {
		Name   string `json:"name"`
		URL    string `json:"url"`
		APIKey string `json:"api_key"`
	} `json:"embedding_model"`
	Qdrant struct {
		URL        string `json:"url"`
		Collection string `json:"collection"`
		APIKey     string `json:"api_key"`
	} `json:"qdrant"`
	TopK           int `json:"top_k"`
	TimeoutSeconds int `json:"timeout_seconds"`
}

type Config struct {
	Server struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Subpath   string `json:"subpath"`
		JWTSecret string `json:"jwtSecret"`
	} `json:"server"`
	Database struct {
		// Driver is "postgres" or "sqlite".
		Driver string `json:"driver"`
		DSN    string `json:"dsn"`
	} `json:"database"`
	Redis struct {
		Addr           string `json:"addr"`
		Password       string `json:"password"`
		DB             int    `json:"db"`
		LockTTLSeconds int    `json:"lock_ttl_seconds"`
	} `json:"redis"`
	LLM       LLMConfig       `json:"llm"`
	Retrieval RetrievalConfig `json:"retrieval"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads config.json from disk (singleton), then applies
// .env and environment overrides for secrets and endpoints.
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := json.Unmarshal(raw, &c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		// Missing .env is normal outside local development
		_ = godotenv.Load()
		applyEnv(&c)
		applyDefaults(&c)

		if c.Server.JWTSecret == "" {
			cfgErr = errors.New("jwtSecret must be set in config")
			return
		}
		if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
			cfgErr = fmt.Errorf("unsupported database driver %q", c.Database.Driver)
			return
		}
		cfg = &c
	})
	return cfg, cfgErr
}

func applyEnv(c *Config) {
	setString(&c.Server.JWTSecret, "JWT_SECRET")
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.LLM.APIKey, "OPENROUTER_API_KEY")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.Name, "LLM_MODEL")
	setString(&c.Retrieval.Qdrant.APIKey, "QDRANT_API_KEY")
	setString(&c.Retrieval.EmbeddingModel.Name, "EMBEDDING_MODEL")
	setString(&c.Retrieval.EmbeddingModel.APIKey, "EMBEDDING_API_KEY")
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyDefaults(c *Config) {
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 8
	}
	if c.Retrieval.TimeoutSeconds <= 0 {
		c.Retrieval.TimeoutSeconds = 15
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 512
	}
	if c.Redis.LockTTLSeconds <= 0 {
		c.Redis.LockTTLSeconds = 30
	}
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
