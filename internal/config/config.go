package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Steam    SteamConfig    `yaml:"steam"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Discord  DiscordConfig  `yaml:"discord"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Server   ServerConfig   `yaml:"server"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// User maps a display name to a Steam ID.
type User struct {
	Name    string `yaml:"name"`
	SteamID string `yaml:"steam_id"`
}

// SteamConfig holds Steam Web API configuration
type SteamConfig struct {
	APIKey string `yaml:"api_key"`
	// Users lists the tracked group members.
	Users []User `yaml:"users"`
	// UsersCompact accepts the legacy "name:steamid,name:steamid" form,
	// typically injected as ${USERS}. Parsed entries are appended to Users.
	UsersCompact string        `yaml:"users_compact"`
	Timeout      time.Duration `yaml:"timeout"`
}

// GeminiConfig holds the summary-generation API configuration
type GeminiConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DiscordConfig holds the Discord webhook configuration
type DiscordConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Username   string        `yaml:"username"`
	AvatarURL  string        `yaml:"avatar_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// SnapshotConfig selects and configures the snapshot store backend
type SnapshotConfig struct {
	// Backend is "file" or "redis".
	Backend string      `yaml:"backend"`
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Key          string        `yaml:"key"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig holds the optional run-archive database configuration
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds the optional activity-event publisher configuration
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// ServerConfig holds HTTP server configuration for service mode
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// ScheduleConfig holds the digest scheduler configuration
type ScheduleConfig struct {
	Interval   time.Duration `yaml:"interval"`
	RunOnStart bool          `yaml:"run_on_start"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.parseCompactUsers(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that everything a digest run needs is present. The error
// names every missing field so a misconfigured deployment fails with one
// readable message.
func (c *Config) Validate() error {
	var missing []string
	if c.Steam.APIKey == "" {
		missing = append(missing, "steam.api_key")
	}
	if len(c.Steam.Users) == 0 {
		missing = append(missing, "steam.users")
	}
	if c.Discord.WebhookURL == "" {
		missing = append(missing, "discord.webhook_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	for _, user := range c.Steam.Users {
		if user.Name == "" || user.SteamID == "" {
			return fmt.Errorf("steam.users entry %q/%q must have both name and steam_id", user.Name, user.SteamID)
		}
	}
	return nil
}

// parseCompactUsers expands the "name:steamid,name:steamid" form into Users.
func (c *Config) parseCompactUsers() error {
	if c.Steam.UsersCompact == "" {
		return nil
	}
	for _, entry := range strings.Split(c.Steam.UsersCompact, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, steamID, ok := strings.Cut(entry, ":")
		if !ok {
			return fmt.Errorf("parsing users entry %q: want name:steamid", entry)
		}
		c.Steam.Users = append(c.Steam.Users, User{
			Name:    strings.TrimSpace(name),
			SteamID: strings.TrimSpace(steamID),
		})
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Steam defaults
	if c.Steam.Timeout == 0 {
		c.Steam.Timeout = 10 * time.Second
	}

	// Gemini defaults
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash-latest"
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Gemini.Timeout == 0 {
		c.Gemini.Timeout = 30 * time.Second
	}

	// Discord defaults
	if c.Discord.Username == "" {
		c.Discord.Username = "Steam Digest Bot"
	}
	if c.Discord.Timeout == 0 {
		c.Discord.Timeout = 10 * time.Second
	}

	// Snapshot defaults
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = "file"
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = "snapshots/snapshot.json"
	}
	if c.Snapshot.Redis.Addr == "" {
		c.Snapshot.Redis.Addr = "localhost:6379"
	}
	if c.Snapshot.Redis.Key == "" {
		c.Snapshot.Redis.Key = "steam-digest:snapshot"
	}
	if c.Snapshot.Redis.DialTimeout == 0 {
		c.Snapshot.Redis.DialTimeout = 5 * time.Second
	}
	if c.Snapshot.Redis.ReadTimeout == 0 {
		c.Snapshot.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Snapshot.Redis.WriteTimeout == 0 {
		c.Snapshot.Redis.WriteTimeout = 3 * time.Second
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 10
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "steam-digest-activity"
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// Schedule defaults
	if c.Schedule.Interval == 0 {
		c.Schedule.Interval = 24 * time.Hour
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
