package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Bootstrap represents the process-level configuration: file locations and
// connection settings that do not change while the service runs. The
// game-facing runtime settings live in the server settings file (see Store),
// which is reloadable on command.
type Bootstrap struct {
	Admin AdminConfig `yaml:"admin"`
	Paths PathsConfig `yaml:"paths"`
	Redis RedisConfig `yaml:"redis"`
	Kafka KafkaConfig `yaml:"kafka"`
}

// AdminConfig holds the admin HTTP server configuration
type AdminConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// PathsConfig holds the locations of the server settings file and the rank
// source descriptor files
type PathsConfig struct {
	ServerSettings        string `yaml:"server_settings"`
	PrimaryDescriptor     string `yaml:"primary_descriptor"`
	AlternativeDescriptor string `yaml:"alternative_descriptor"`
}

// RedisConfig holds the connection settings for the Redis rank source
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	KeyPrefix    string        `yaml:"key_prefix"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig holds the settings for the optional report mirror topic
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Enabled bool     `yaml:"enabled"`
}

// Load reads the bootstrap configuration from a YAML file
func Load(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Bootstrap
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Bootstrap) applyDefaults() {
	if c.Admin.Addr == "" {
		c.Admin.Addr = ":8172"
	}
	if c.Admin.ReadTimeout == 0 {
		c.Admin.ReadTimeout = 5 * time.Second
	}
	if c.Admin.WriteTimeout == 0 {
		c.Admin.WriteTimeout = 10 * time.Second
	}
	if c.Admin.IdleTimeout == 0 {
		c.Admin.IdleTimeout = 120 * time.Second
	}

	if c.Paths.ServerSettings == "" {
		c.Paths.ServerSettings = "configs/server_info.ini"
	}
	if c.Paths.PrimaryDescriptor == "" {
		c.Paths.PrimaryDescriptor = "configs/dbconfig.json"
	}
	if c.Paths.AlternativeDescriptor == "" {
		c.Paths.AlternativeDescriptor = "configs/settings_ranks.json"
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "rank:"
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}

	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "server-reports"
	}
}

// DefaultBootstrap returns a configuration with all defaults
func DefaultBootstrap() *Bootstrap {
	cfg := &Bootstrap{}
	cfg.applyDefaults()
	return cfg
}
