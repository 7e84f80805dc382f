package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	OpenAI      OpenAIConfig              `json:"openai"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	// MaxUploadMB caps training file uploads, in megabytes.
	MaxUploadMB int `json:"max_upload_mb"`
	// JobPollInterval is the job watcher's polling period, in seconds.
	JobPollInterval int `json:"job_poll_interval"`
	// StatsCacheTTL is the dashboard stats cache lifetime, in seconds.
	StatsCacheTTL int `json:"stats_cache_ttl"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type OpenAIConfig struct {
	APIKey        string `json:"api_key"`
	BaseURL       string `json:"base_url"`
	DefaultModel  string `json:"default_model"`
	DefaultEpochs int    `json:"default_epochs"`
	ChatMaxTokens int    `json:"chat_max_tokens"`
}

const (
	DefaultBaseModel     = "gpt-4o-mini-2024-07-18"
	DefaultEpochs        = 3
	DefaultChatMaxTokens = 1000
)

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.ApplyDefaults()

	// Environment wins over the file so the key never has to live on disk.
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		cfg.OpenAI.APIKey = key
	}

	if db, ok := cfg.Databases["sqlite3"]; ok && db.DSN != "" && db.DSN != ":memory:" {
		if !filepath.IsAbs(db.DSN) {
			db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
			cfg.Databases["sqlite3"] = db
		}
	}

	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.OpenAI.DefaultModel == "" {
		c.OpenAI.DefaultModel = DefaultBaseModel
	}
	if c.OpenAI.DefaultEpochs <= 0 {
		c.OpenAI.DefaultEpochs = DefaultEpochs
	}
	if c.OpenAI.ChatMaxTokens <= 0 {
		c.OpenAI.ChatMaxTokens = DefaultChatMaxTokens
	}
	if c.BasicConfig.MaxUploadMB <= 0 {
		c.BasicConfig.MaxUploadMB = 10
	}
	if c.BasicConfig.JobPollInterval <= 0 {
		c.BasicConfig.JobPollInterval = 30
	}
	if c.BasicConfig.StatsCacheTTL <= 0 {
		c.BasicConfig.StatsCacheTTL = 30
	}
}
