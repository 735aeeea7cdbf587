package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL            = "http://127.0.0.1:7433"
	DefaultDBFileName        = ".taskboard.db"
	DefaultLogLevel          = "info"
	DefaultLightweightPrefix = "quick-"
	DefaultListLimit         = 50

	configFileName           = ".taskboard.toml"
	configDirEnvKey          = "TASKBOARD_CONFIG_DIR"
	trustProjectConfigEnvKey = "TASKBOARD_TRUST_PROJECT_CONFIG"

	apiURLEnvKey   = "TASKBOARD_API_URL"
	dbPathEnvKey   = "TASKBOARD_DB"
	identityEnvKey = "TASKBOARD_IDENTITY"
)

// Config defines runtime configuration for taskboard.
type Config struct {
	APIURL                   string `toml:"api_url"`
	DBPath                   string `toml:"db_path"`
	Identity                 string `toml:"identity"`
	LightweightPrefix        string `toml:"lightweight_prefix"`
	LogLevel                 string `toml:"log_level"`
	ListLimit                int    `toml:"list_limit"`
	TrustedProjectConfigPath string `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:            DefaultAPIURL,
		LightweightPrefix: DefaultLightweightPrefix,
		LogLevel:          DefaultLogLevel,
		ListLimit:         DefaultListLimit,
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"identity",
	"lightweight_prefix",
	"log_level",
	"list_limit",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

var keyHelp = map[string]string{
	"api_url":            "taskboard server address the CLI talks to",
	"db_path":            "SQLite database file used by taskboard srv",
	"identity":           "name recorded as author, creator and checked_by when a request names none",
	"lightweight_prefix": "projects whose name starts with this use the todo/in_progress/blocked/done pipeline",
	"log_level":          "one of debug, info, warn, error",
	"list_limit":         "default page size for list and search (positive integer)",
}

// KeyHelp returns a one-line description of key, or "" for unknown keys.
func KeyHelp(key string) string {
	return keyHelp[key]
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "identity":
		return c.Identity, nil
	case "lightweight_prefix":
		return c.LightweightPrefix, nil
	case "log_level":
		return c.LogLevel, nil
	case "list_limit":
		return strconv.Itoa(c.ListLimit), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	data[key] = parsedValue

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if apiURL := os.Getenv(apiURLEnvKey); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if identity := strings.TrimSpace(os.Getenv(identityEnvKey)); identity != "" {
		cfg.Identity = identity
	}

	cfg.normalizeDefaults()

	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "list_limit":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return int64(parsed), nil
	case "lightweight_prefix":
		if value == "" {
			return nil, fmt.Errorf("%s cannot be empty", key)
		}
		return value, nil
	default:
		return value, nil
	}
}

func (c *Config) normalizeDefaults() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.LightweightPrefix) == "" {
		c.LightweightPrefix = DefaultLightweightPrefix
	}
	if c.ListLimit <= 0 {
		c.ListLimit = DefaultListLimit
	}
	c.Identity = strings.TrimSpace(c.Identity)
}
