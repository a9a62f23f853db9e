package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WorkerConfig struct {
	Count        int           `yaml:"count"`         // parallel worker loops per process
	MaxRetries   int           `yaml:"max_retries"`   // attempts before dead-lettering
	BaseBackoff  time.Duration `yaml:"base_backoff"`  // first retry delay; doubles per attempt
	IdleSleep    time.Duration `yaml:"idle_sleep"`    // pause when the queue is empty
	FetchTimeout time.Duration `yaml:"fetch_timeout"` // blocking pop timeout
	MetricsPort  int           `yaml:"metrics_port"`
}

type OpenAIProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type LocalProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	APIKey  string `yaml:"api_key"`
}

type STTConfig struct {
	DefaultEngine   string               `yaml:"default_engine"`
	DefaultLanguage string               `yaml:"default_language"`
	TranscriptsDir  string               `yaml:"transcripts_dir"`
	MaxFileSizeMB   int                  `yaml:"max_file_size_mb"` // 0 disables the limit
	RequestTimeout  time.Duration        `yaml:"request_timeout"`
	OpenAI          OpenAIProviderConfig `yaml:"openai"`
	Local           LocalProviderConfig  `yaml:"local"`
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Worker   WorkerConfig   `yaml:"worker"`
	STT      STTConfig      `yaml:"stt"`
	Admin    AdminConfig    `yaml:"admin"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Worker.Count <= 0 {
		cfg.Worker.Count = 1
	}
	if cfg.Worker.MaxRetries <= 0 {
		cfg.Worker.MaxRetries = 5
	}
	if cfg.Worker.BaseBackoff <= 0 {
		cfg.Worker.BaseBackoff = 2 * time.Second
	}
	if cfg.Worker.IdleSleep <= 0 {
		cfg.Worker.IdleSleep = time.Second
	}
	if cfg.Worker.FetchTimeout <= 0 {
		cfg.Worker.FetchTimeout = 5 * time.Second
	}
	if cfg.Worker.MetricsPort == 0 {
		cfg.Worker.MetricsPort = 9108
	}
	if cfg.STT.DefaultEngine == "" {
		cfg.STT.DefaultEngine = "stub"
	}
	if cfg.STT.TranscriptsDir == "" {
		cfg.STT.TranscriptsDir = "data/transcripts"
	}
	if cfg.STT.RequestTimeout <= 0 {
		cfg.STT.RequestTimeout = 60 * time.Second
	}
	if cfg.STT.OpenAI.BaseURL == "" {
		cfg.STT.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.STT.OpenAI.Model == "" {
		cfg.STT.OpenAI.Model = "whisper-1"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8081
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
