package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/courier/internal/logging"
)

// Backend names accepted by the backend setting.
const (
	BackendMemory   = "memory"
	BackendRTDB     = "rtdb"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

// Config captures everything courier reads from config.toml, .env, and the environment.
type Config struct {
	Backend       string
	DatabaseURL   string
	AuthToken     string
	PostgresDSN   string
	DynamoDBTable string
	AWSRegion     string
	PollInterval  time.Duration
	DataDir       string
	HistoryFile   string
	ExportDir     string
	HTTPBind      string
	LogLevel      string
}

const (
	defaultConfigPath   = "~/.config/courier/config.toml"
	defaultDataDir      = "~/.local/share/courier"
	defaultPollInterval = 2 * time.Second
	defaultLogLevel     = "info"
	envPrefix           = "COURIER_"
)

type fileConfig struct {
	Backend       string `toml:"backend"`
	DatabaseURL   string `toml:"database_url"`
	AuthToken     string `toml:"auth_token"`
	PostgresDSN   string `toml:"postgres_dsn"`
	DynamoDBTable string `toml:"dynamodb_table"`
	AWSRegion     string `toml:"aws_region"`
	PollInterval  string `toml:"poll_interval"`
	DataDir       string `toml:"data_dir"`
	HistoryFile   string `toml:"history_file"`
	ExportDir     string `toml:"export_dir"`
	HTTPBind      string `toml:"http_bind"`
	LogLevel      string `toml:"log_level"`
}

// Load reads the config file (missing means defaults), loads optional .env
// files from the working directory and the data directory, and applies
// COURIER_* environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	loadDotEnv(dataDirFor(raw))
	raw.applyEnv()

	return raw.resolve()
}

// LogPath returns the path of the application log inside the data directory.
func (c Config) LogPath() string {
	dir := strings.TrimSpace(c.DataDir)
	if dir == "" {
		dir = mustExpand(defaultDataDir)
	}
	return filepath.Join(dir, logging.FileName)
}

func (raw fileConfig) resolve() (Config, error) {
	cfg := Config{
		Backend:       strings.ToLower(strings.TrimSpace(raw.Backend)),
		DatabaseURL:   strings.TrimSpace(raw.DatabaseURL),
		AuthToken:     strings.TrimSpace(raw.AuthToken),
		PostgresDSN:   strings.TrimSpace(raw.PostgresDSN),
		DynamoDBTable: strings.TrimSpace(raw.DynamoDBTable),
		AWSRegion:     strings.TrimSpace(raw.AWSRegion),
		HTTPBind:      strings.TrimSpace(raw.HTTPBind),
		LogLevel:      strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		PollInterval:  defaultPollInterval,
	}

	if interval := strings.TrimSpace(raw.PollInterval); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return Config{}, fmt.Errorf("parse poll_interval %q: %w", interval, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("poll_interval must be positive, got %s", d)
		}
		cfg.PollInterval = d
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	dataDir, err := expandPath(dataDirFor(raw))
	if err != nil {
		return Config{}, fmt.Errorf("resolve data_dir: %w", err)
	}
	cfg.DataDir = dataDir

	cfg.ExportDir = dataDir
	if dir := strings.TrimSpace(raw.ExportDir); dir != "" {
		if cfg.ExportDir, err = expandPath(dir); err != nil {
			return Config{}, fmt.Errorf("resolve export_dir: %w", err)
		}
	}
	if file := strings.TrimSpace(raw.HistoryFile); file != "" {
		if cfg.HistoryFile, err = expandPath(file); err != nil {
			return Config{}, fmt.Errorf("resolve history_file: %w", err)
		}
	}

	if cfg.Backend == "" {
		cfg.Backend = inferBackend(cfg)
	}
	if err := cfg.validateBackend(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// inferBackend picks the first backend with connection details configured.
func inferBackend(cfg Config) string {
	switch {
	case cfg.DatabaseURL != "":
		return BackendRTDB
	case cfg.PostgresDSN != "":
		return BackendPostgres
	case cfg.DynamoDBTable != "":
		return BackendDynamoDB
	default:
		return BackendMemory
	}
}

func (c Config) validateBackend() error {
	switch c.Backend {
	case BackendMemory:
	case BackendRTDB:
		if c.DatabaseURL == "" {
			return fmt.Errorf("backend %q requires database_url", c.Backend)
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("backend %q requires postgres_dsn", c.Backend)
		}
	case BackendDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("backend %q requires dynamodb_table", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q (want memory, rtdb, postgres, or dynamodb)", c.Backend)
	}
	return nil
}

// applyEnv overrides file values with non-empty COURIER_* variables.
func (raw *fileConfig) applyEnv() {
	overrides := map[string]*string{
		"BACKEND":        &raw.Backend,
		"DATABASE_URL":   &raw.DatabaseURL,
		"AUTH_TOKEN":     &raw.AuthToken,
		"POSTGRES_DSN":   &raw.PostgresDSN,
		"DYNAMODB_TABLE": &raw.DynamoDBTable,
		"AWS_REGION":     &raw.AWSRegion,
		"POLL_INTERVAL":  &raw.PollInterval,
		"DATA_DIR":       &raw.DataDir,
		"HISTORY_FILE":   &raw.HistoryFile,
		"EXPORT_DIR":     &raw.ExportDir,
		"HTTP_BIND":      &raw.HTTPBind,
		"LOG_LEVEL":      &raw.LogLevel,
	}
	for name, field := range overrides {
		if value, ok := os.LookupEnv(envPrefix + name); ok && strings.TrimSpace(value) != "" {
			*field = value
		}
	}
}

// loadDotEnv loads .env from the working directory and then the data
// directory. Variables already set in the environment are never replaced.
func loadDotEnv(dataDir string) {
	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	}
	if dir, err := expandPath(dataDir); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, envPath := range candidates {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		_ = godotenv.Load(envPath)
	}
}

func dataDirFor(raw fileConfig) string {
	if dir := strings.TrimSpace(os.Getenv(envPrefix + "DATA_DIR")); dir != "" {
		return dir
	}
	if dir := strings.TrimSpace(raw.DataDir); dir != "" {
		return dir
	}
	return defaultDataDir
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
