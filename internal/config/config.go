package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the application configuration.
type Config struct {
	Connections []Connection `mapstructure:"connections" yaml:"connections"`
	Preferences Preferences  `mapstructure:"preferences" yaml:"preferences"`
	Stats       Stats        `mapstructure:"stats" yaml:"stats"`
}

// Connection represents a saved database file.
type Connection struct {
	Name       string    `mapstructure:"name" yaml:"name"`
	Path       string    `mapstructure:"path" yaml:"path"`
	LastOpened time.Time `mapstructure:"last_opened" yaml:"last_opened"`
}

// Preferences holds user preferences.
type Preferences struct {
	Theme             string `mapstructure:"theme" yaml:"theme"`
	DefaultConnection string `mapstructure:"default_connection" yaml:"default_connection"`
	CreateMissing     bool   `mapstructure:"create_missing" yaml:"create_missing"`
	ReadOnly          bool   `mapstructure:"read_only" yaml:"read_only"`
	LogLevel          string `mapstructure:"log_level" yaml:"log_level"`
}

// Stats is the persisted connection tracker state.
type Stats struct {
	Total      int               `mapstructure:"total" yaml:"total" json:"total"`
	Successful int               `mapstructure:"successful" yaml:"successful" json:"successful"`
	Failed     int               `mapstructure:"failed" yaml:"failed" json:"failed"`
	History    []ConnectionEvent `mapstructure:"history" yaml:"history" json:"history"`
}

// ConnectionEvent records one attempt to open a database file.
type ConnectionEvent struct {
	ID        string    `mapstructure:"id" yaml:"id" json:"id"`
	Timestamp time.Time `mapstructure:"timestamp" yaml:"timestamp" json:"timestamp"`
	Type      string    `mapstructure:"type" yaml:"type" json:"type"`
	Path      string    `mapstructure:"path" yaml:"path" json:"path"`
}

// DisplayString returns a human-readable summary of the connection.
// Paths under the home directory are shortened to ~.
func (c Connection) DisplayString() string {
	home, err := os.UserHomeDir()
	if err == nil && home != "" && strings.HasPrefix(c.Path, home+string(filepath.Separator)) {
		return "~" + strings.TrimPrefix(c.Path, home)
	}
	return c.Path
}

// NewConnection builds a saved connection for a database file path.
func NewConnection(path string) (Connection, error) {
	if strings.TrimSpace(path) == "" {
		return Connection{}, fmt.Errorf("invalid path: empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Connection{}, fmt.Errorf("invalid path: %w", err)
	}

	// Auto-generate a name
	name := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	if name == "" {
		name = filepath.Base(abs)
	}

	return Connection{
		Name:       name,
		Path:       abs,
		LastOpened: time.Now().UTC(),
	}, nil
}

// HasConnection checks if a connection for the given path already exists.
func (cfg *Config) HasConnection(path string) bool {
	return cfg.connectionIndex(path) >= 0
}

// AddConnection appends a connection, or refreshes LastOpened when the path is already saved.
// Two different files with the same base name get distinct names.
func (cfg *Config) AddConnection(conn Connection) {
	if i := cfg.connectionIndex(conn.Path); i >= 0 {
		cfg.Connections[i].LastOpened = conn.LastOpened
		return
	}
	base := conn.Name
	for n := 2; cfg.hasName(conn.Name); n++ {
		conn.Name = fmt.Sprintf("%s-%d", base, n)
	}
	cfg.Connections = append(cfg.Connections, conn)
}

func (cfg *Config) connectionIndex(path string) int {
	for i, c := range cfg.Connections {
		if c.Path == path {
			return i
		}
	}
	return -1
}

func (cfg *Config) hasName(name string) bool {
	for _, c := range cfg.Connections {
		if c.Name == name {
			return true
		}
	}
	return false
}
