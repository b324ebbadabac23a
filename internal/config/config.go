package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "STATUSBOARD_"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Source    SourceConfig    `yaml:"source"`
	Cache     CacheConfig     `yaml:"cache"`
	Retry     RetryConfig     `yaml:"retry"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// SourceConfig selects the remote table store.
type SourceConfig struct {
	Kind            string     `yaml:"kind"` // "sheets" or "xlsx"
	SpreadsheetID   string     `yaml:"spreadsheet_id"`
	CredentialsFile string     `yaml:"credentials_file"`
	WorkbookPath    string     `yaml:"workbook_path"`
	Watch           bool       `yaml:"watch"`
	Tabs            TabsConfig `yaml:"tabs"`
}

// TabsConfig maps dataset names to worksheet titles.
type TabsConfig struct {
	Projects string `yaml:"projects"`
	Roster   string `yaml:"roster"`
	Tasks    string `yaml:"tasks"`
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	InitialDelayMS int `yaml:"initial_delay_ms"`
	JitterMS       int `yaml:"jitter_ms"`
}

type SnapshotConfig struct {
	DSN string `yaml:"dsn"`
}

type ReconcileConfig struct {
	// StrictRefetch rejects writes when the authoritative copy can't be read.
	StrictRefetch bool `yaml:"strict_refetch"`
}

// TTL returns the cache lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// InitialDelay returns the first backoff delay.
func (c RetryConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMS) * time.Millisecond
}

// Jitter returns the upper bound of the random backoff component.
func (c RetryConfig) Jitter() time.Duration {
	return time.Duration(c.JitterMS) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Log: LogConfig{
			Level: "info",
		},
		Source: SourceConfig{
			Kind:            "sheets",
			CredentialsFile: "credentials/google-credentials.json",
			WorkbookPath:    "Revisão Projetos - Geral.xlsx",
			Tabs: TabsConfig{
				Projects: "Projetos",
				Roster:   "Codenautas",
				Tasks:    "Ações",
			},
		},
		Cache: CacheConfig{
			TTLSeconds: 600,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialDelayMS: 1000,
			JitterMS:       1000,
		},
		Snapshot: SnapshotConfig{
			DSN: "file://.",
		},
		Reconcile: ReconcileConfig{
			StrictRefetch: true,
		},
	}
}

// Load reads configuration from an optional .env file, an optional YAML file
// and environment variables, in that order of increasing precedence.
func Load() (Config, error) {
	cfg := Default()

	envFile := os.Getenv(envPrefix + "ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	if path := os.Getenv(envPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server can't run with.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.Source.Kind {
	case "sheets":
		if strings.TrimSpace(c.Source.SpreadsheetID) == "" {
			return errors.New("source.spreadsheet_id is required for sheets source")
		}
	case "xlsx":
		if strings.TrimSpace(c.Source.WorkbookPath) == "" {
			return errors.New("source.workbook_path is required for xlsx source")
		}
	default:
		return fmt.Errorf("invalid source kind %q", c.Source.Kind)
	}
	if c.Cache.TTLSeconds < 0 {
		return errors.New("cache.ttl_seconds must not be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.Token) == "" {
		return errors.New("auth.token is required when auth is enabled")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"SERVER_HOST":      &cfg.Server.Host,
		"TRANSPORT_MODE":   &cfg.Transport.Mode,
		"LOG_LEVEL":        &cfg.Log.Level,
		"LOG_PATH":         &cfg.Log.Path,
		"AUTH_TOKEN":       &cfg.Auth.Token,
		"SOURCE_KIND":      &cfg.Source.Kind,
		"SPREADSHEET_ID":   &cfg.Source.SpreadsheetID,
		"CREDENTIALS_FILE": &cfg.Source.CredentialsFile,
		"WORKBOOK_PATH":    &cfg.Source.WorkbookPath,
		"TAB_PROJECTS":     &cfg.Source.Tabs.Projects,
		"TAB_ROSTER":       &cfg.Source.Tabs.Roster,
		"TAB_TASKS":        &cfg.Source.Tabs.Tasks,
		"SNAPSHOT_DSN":     &cfg.Snapshot.DSN,
	}
	for name, dst := range strs {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SERVER_PORT":            &cfg.Server.Port,
		"CACHE_TTL_SECONDS":      &cfg.Cache.TTLSeconds,
		"RETRY_MAX_ATTEMPTS":     &cfg.Retry.MaxAttempts,
		"RETRY_INITIAL_DELAY_MS": &cfg.Retry.InitialDelayMS,
		"RETRY_JITTER_MS":        &cfg.Retry.JitterMS,
	}
	for name, dst := range ints {
		raw := os.Getenv(envPrefix + name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
		}
		*dst = v
	}

	bools := map[string]*bool{
		"AUTH_ENABLED":             &cfg.Auth.Enabled,
		"SOURCE_WATCH":             &cfg.Source.Watch,
		"RECONCILE_STRICT_REFETCH": &cfg.Reconcile.StrictRefetch,
	}
	for name, dst := range bools {
		raw := os.Getenv(envPrefix + name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
		}
		*dst = v
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
