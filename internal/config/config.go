package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

type Config struct {
	API       APIConfig       `yaml:"api"`
	Search    SearchConfig    `yaml:"search"`
	Favorites FavoritesConfig `yaml:"favorites"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	LogLevel  string          `yaml:"log_level"`
}

type APIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	SpriteBaseURL string        `yaml:"sprite_base_url"`
	PageSize      int           `yaml:"page_size"`
	Timeout       time.Duration `yaml:"timeout"`
	Retry         RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

type FavoritesConfig struct {
	Backend         string        `yaml:"backend"`
	LocalPath       string        `yaml:"local_path"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RabbitMQConfig leaves publishing off when URL is empty.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Favorites.Backend {
	case BackendLocal, BackendRemote:
	default:
		return fmt.Errorf("unknown favorites backend %q", c.Favorites.Backend)
	}
	if c.API.PageSize < 1 {
		return fmt.Errorf("api.page_size must be positive, got %d", c.API.PageSize)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://pokeapi.co/api/v2"
	}
	if c.API.SpriteBaseURL == "" {
		c.API.SpriteBaseURL = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon"
	}
	if c.API.PageSize == 0 {
		c.API.PageSize = 20
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 15 * time.Second
	}
	if c.API.Retry.MaxAttempts == 0 {
		c.API.Retry.MaxAttempts = 3
	}
	if c.API.Retry.InitialBackoff == 0 {
		c.API.Retry.InitialBackoff = 500 * time.Millisecond
	}
	if c.API.Retry.MaxBackoff == 0 {
		c.API.Retry.MaxBackoff = 5 * time.Second
	}
	if c.Search.Debounce == 0 {
		c.Search.Debounce = 250 * time.Millisecond
	}
	if c.Favorites.Backend == "" {
		c.Favorites.Backend = BackendLocal
	}
	if c.Favorites.LocalPath == "" {
		c.Favorites.LocalPath = "data/favorites.bolt"
	}
	if c.Favorites.RefreshInterval == 0 {
		c.Favorites.RefreshInterval = 30 * time.Second
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "pokedex"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "favorites"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "favorite_changes"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
