package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// DatabaseConfig holds PostgreSQL database connection settings.
// The database is optional: an empty Host disables export auditing.
type DatabaseConfig struct {
	Host               string `yaml:"host"`
	Port               string `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Name               string `yaml:"name"`
	SSLMode            string `yaml:"sslmode"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
}

// Enabled reports whether a database has been configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// ExportConfig holds settings for the conversion pipeline.
type ExportConfig struct {
	// InterpreterOverride is probed before any fallback (PYTHON_PATH).
	InterpreterOverride  string   `yaml:"interpreter_override"`
	InterpreterFallbacks []string `yaml:"interpreter_fallbacks"`
	DefaultInterpreter   string   `yaml:"default_interpreter"`
	CacheInterpreter     bool     `yaml:"cache_interpreter"`
	ProbeTimeoutSec      int      `yaml:"probe_timeout_sec"`

	// ScriptPath is the conversion program run by the interpreter.
	// Empty means the interpreter is the conversion program itself.
	ScriptPath     string `yaml:"script"`
	WorkspaceRoot  string `yaml:"workspace_root"`
	TimeoutSec     int    `yaml:"timeout_sec"`
	MaxOutputBytes int64  `yaml:"max_output_bytes"`
}

// Timeout returns the hard wall-clock limit of one conversion.
func (c ExportConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// ProbeTimeout returns the limit of one interpreter liveness probe.
func (c ExportConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSec) * time.Second
}

// AppConfig is the centralized configuration struct for the application.
// Defaults are overlaid by an optional YAML file, then by environment variables.
type AppConfig struct {
	Port        string         `yaml:"port"`
	ServiceName string         `yaml:"service_name"`
	Timezone    string         `yaml:"timezone"`
	LogLevel    string         `yaml:"log_level"`
	Database    DatabaseConfig `yaml:"database"`
	Export      ExportConfig   `yaml:"export"`
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Defaults returns the configuration used when nothing else is provided.
func Defaults() *AppConfig {
	return &AppConfig{
		Port:        "8080",
		ServiceName: "notionpdf",
		Timezone:    "UTC",
		LogLevel:    "info",
		Database: DatabaseConfig{
			Port:               "5432",
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
		},
		Export: ExportConfig{
			InterpreterFallbacks: []string{"/vercel/.pyenv/shims/python3", "python3", "python"},
			DefaultInterpreter:   "python3",
			ProbeTimeoutSec:      5,
			ScriptPath:           "scripts/export.py",
			WorkspaceRoot:        os.TempDir(),
			TimeoutSec:           60,
			MaxOutputBytes:       50 * 1024 * 1024,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if any)
// and the environment. A .env file can be auto-loaded by importing:
// _ "github.com/joho/godotenv/autoload"
func Load(path string) (*AppConfig, error) {
	cfg := Defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.ServiceName)
	cfg.Timezone = getEnv("APP_TIMEZONE", cfg.Timezone)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	db := &cfg.Database
	db.Host = getEnv("DB_HOST", db.Host)
	db.Port = getEnv("DB_PORT", db.Port)
	db.User = getEnv("DB_USER", db.User)
	db.Password = getEnv("DB_PASSWORD", db.Password)
	db.Name = getEnv("DB_NAME", db.Name)
	db.SSLMode = getEnv("DB_SSLMODE", db.SSLMode)
	db.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", db.MaxOpenConns)
	db.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", db.MaxIdleConns)
	db.ConnMaxLifetimeSec = getEnvInt("DB_CONN_MAX_LIFETIME_SEC", db.ConnMaxLifetimeSec)

	ex := &cfg.Export
	ex.InterpreterOverride = getEnv("PYTHON_PATH", ex.InterpreterOverride)
	ex.InterpreterFallbacks = getEnvList("EXPORT_INTERPRETER_FALLBACKS", ex.InterpreterFallbacks)
	ex.DefaultInterpreter = getEnv("EXPORT_DEFAULT_INTERPRETER", ex.DefaultInterpreter)
	ex.CacheInterpreter = getEnvBool("EXPORT_CACHE_INTERPRETER", ex.CacheInterpreter)
	ex.ProbeTimeoutSec = getEnvInt("EXPORT_PROBE_TIMEOUT_SEC", ex.ProbeTimeoutSec)
	ex.ScriptPath = getEnv("EXPORT_SCRIPT", ex.ScriptPath)
	ex.WorkspaceRoot = getEnv("EXPORT_WORKSPACE_ROOT", ex.WorkspaceRoot)
	ex.TimeoutSec = getEnvInt("EXPORT_TIMEOUT_SEC", ex.TimeoutSec)
	ex.MaxOutputBytes = getEnvInt64("EXPORT_MAX_OUTPUT_BYTES", ex.MaxOutputBytes)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
