package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int              `json:"port"`
	JWTSecret        string           `json:"jwt_secret"`
	JWTTTLHours      int              `json:"jwt_ttl_hours"`
	RateLimitSeconds int              `json:"rate_limit_seconds"`
	CORSAllowlist    []string         `json:"cors_allowlist"`
	LogConfig        logger.LogConfig `json:"log_config"`
	Database         DatabaseConfig   `json:"database"`
	AI               AIConfig         `json:"ai"`
	Retrieval        RetrievalConfig  `json:"retrieval"`
	EmbedCache       EmbedCacheConfig `json:"embed_cache"`
	FileStore        FileStoreConfig  `json:"file_store"`
	Properties       PropertiesConfig `json:"properties"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Data           interface{} `json:"data"`
	Model          string      `json:"model"`
	EmbedProvider  string      `json:"embed_provider"`
	EmbedData      interface{} `json:"embed_data"`
	EmbedModel     string      `json:"embed_model"`
	EmbedDimension int         `json:"embed_dimension"`
	TimeoutSeconds int         `json:"timeout_seconds"`
}

type RetrievalConfig struct {
	ChunkMaxWords int `json:"chunk_max_words"`
	TopK          int `json:"top_k"`
}

type EmbedCacheConfig struct {
	LRUSize     int    `json:"lru_size"`
	LRUTTLHours int    `json:"lru_ttl_hours"`
	EnableDB    bool   `json:"enable_db"`
	DBKeepDays  int    `json:"db_keep_days"`
	CleanSpec   string `json:"clean_spec"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type PropertiesConfig struct {
	DisableUserRegister bool `json:"disable_user_register"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.DBName == "") {
		return fmt.Errorf("database.dsn or database.host/db_name is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.AI.EmbedProvider == "" {
		return fmt.Errorf("ai.embed_provider is required")
	}
	if cfg.AI.EmbedDimension == 0 {
		cfg.AI.EmbedDimension = 384
	}
	if cfg.AI.EmbedDimension < 0 {
		return fmt.Errorf("ai.embed_dimension must be positive")
	}
	if cfg.AI.EmbedModel == "" {
		if cfg.AI.EmbedProvider != "local" {
			return fmt.Errorf("ai.embed_model is required")
		}
		cfg.AI.EmbedModel = "feature-hash-v1"
	}
	if cfg.AI.Provider == "" {
		return fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.Retrieval.ChunkMaxWords == 0 {
		cfg.Retrieval.ChunkMaxWords = 100
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.EmbedCache.LRUSize == 0 {
		cfg.EmbedCache.LRUSize = 4096
	}
	if cfg.EmbedCache.LRUTTLHours == 0 {
		cfg.EmbedCache.LRUTTLHours = 2
	}
	if cfg.EmbedCache.DBKeepDays == 0 {
		cfg.EmbedCache.DBKeepDays = 30
	}
	if cfg.EmbedCache.CleanSpec == "" {
		cfg.EmbedCache.CleanSpec = "0 3 * * *"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "none"
	}
	return nil
}
