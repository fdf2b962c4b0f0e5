package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/fishtrack/internal/client"
)

// ThemeKey is the key under which the theme preference is stored.
const ThemeKey = "@FishTrack:theme"

// Theme names accepted by the theme command.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const defaultServer = "http://localhost:8080"

// Settings is the YAML file at $FISHTRACK_CONFIG or ~/.fishtrack.yaml.
type Settings struct {
	Server       string `yaml:"server"`
	UserID       string `yaml:"user_id,omitempty"`
	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
	Theme        string `yaml:"@FishTrack:theme,omitempty"`

	path string
}

// ConfigPath resolves the settings file location.
func ConfigPath() (string, error) {
	if p := os.Getenv("FISHTRACK_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".fishtrack.yaml"), nil
}

// LoadSettings reads path.  A missing file yields defaults.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{Server: defaultServer, Theme: ThemeLight, path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.Server == "" {
		s.Server = defaultServer
	}
	if s.Theme != ThemeDark {
		s.Theme = ThemeLight
	}
	return s, nil
}

// Save writes the settings back with owner-only permissions; the file
// holds session tokens.
func (s *Settings) Save() error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Tokens implements client.TokenStore.
func (s *Settings) Tokens() client.Tokens {
	return client.Tokens{UserID: s.UserID, Access: s.AccessToken, Refresh: s.RefreshToken}
}

// SaveTokens implements client.TokenStore.
func (s *Settings) SaveTokens(t client.Tokens) error {
	s.UserID, s.AccessToken, s.RefreshToken = t.UserID, t.Access, t.Refresh
	return s.Save()
}
