package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configDir  = ".minalite"
	configFile = "config"
	configType = "yaml"
	envPrefix  = "MINALITE"
)

// saveMu serializes writes; the TUI saves from background commands.
var saveMu sync.Mutex

// Load reads the configuration from file, or from ~/.minalite/config.yaml when
// file is empty. Returns a default config if the file does not exist.
// MINALITE_* environment variables override file values.
func Load(file string) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, fmt.Errorf("config dir: %w", err)
		}
		v.SetConfigName(configFile)
		v.SetConfigType(configType)
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("preferences.theme", "default")
	v.SetDefault("preferences.default_connection", "")
	v.SetDefault("preferences.create_missing", false)
	v.SetDefault("preferences.read_only", false)
	v.SetDefault("preferences.log_level", "warn")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hooks); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to file, or to ~/.minalite/config.yaml when file is empty.
func Save(cfg *Config, file string) error {
	path, err := Path(file)
	if err != nil {
		return err
	}

	saveMu.Lock()
	defer saveMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.Set("connections", cfg.Connections)
	v.Set("preferences", cfg.Preferences)
	v.Set("stats", cfg.Stats)

	return v.WriteConfigAs(path)
}

// SaveConnection records path as a recently opened database and persists the config.
func SaveConnection(cfg *Config, conn Connection, file string) error {
	cfg.AddConnection(conn)
	return Save(cfg, file)
}

// DefaultConnection returns the default connection from config, or the most recently opened one.
func DefaultConnection(cfg *Config) *Connection {
	if len(cfg.Connections) == 0 {
		return nil
	}

	if cfg.Preferences.DefaultConnection != "" {
		for i := range cfg.Connections {
			if cfg.Connections[i].Name == cfg.Preferences.DefaultConnection {
				return &cfg.Connections[i]
			}
		}
	}

	latest := 0
	for i := range cfg.Connections {
		if cfg.Connections[i].LastOpened.After(cfg.Connections[latest].LastOpened) {
			latest = i
		}
	}
	return &cfg.Connections[latest]
}

// Path resolves the config file location.
func Path(file string) (string, error) {
	if file != "" {
		return file, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(dir, configFile+"."+configType), nil
}

// Dir returns ~/.minalite.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}
