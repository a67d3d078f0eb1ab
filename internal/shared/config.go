package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values loaded from config.toml.
const (
	EnvSpotifyClientID      = "PLAYSHEET_SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret  = "PLAYSHEET_SPOTIFY_CLIENT_SECRET"
	EnvSpotifyRedirectURI   = "PLAYSHEET_SPOTIFY_REDIRECT_URI"
	EnvYouTubeClientSecrets = "PLAYSHEET_YOUTUBE_CLIENT_SECRETS"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Import      ImportConfig      `toml:"import"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	Scope        string `toml:"scope"`
	TokenPath    string `toml:"token_path"`
}

// Scopes splits the space separated scope string.
func (s SpotifyConfig) Scopes() []string {
	return strings.Fields(s.Scope)
}

// Validate reports the first missing required field.
func (s SpotifyConfig) Validate() error {
	switch {
	case s.ClientID == "":
		return fmt.Errorf("%w: credentials.spotify.client_id is not set", ErrConfig)
	case s.ClientSecret == "":
		return fmt.Errorf("%w: credentials.spotify.client_secret is not set", ErrConfig)
	case s.RedirectURI == "":
		return fmt.Errorf("%w: credentials.spotify.redirect_uri is not set", ErrConfig)
	case len(s.Scopes()) == 0:
		return fmt.Errorf("%w: credentials.spotify.scope is not set", ErrConfig)
	}
	return nil
}

// YouTubeConfig points at the Google OAuth client-secrets document and the scope to request.
type YouTubeConfig struct {
	ClientSecretsPath string `toml:"client_secrets_path"`
	Scope             string `toml:"scope"`
	TokenPath         string `toml:"token_path"`
	PrivacyStatus     string `toml:"privacy_status"`
}

// ReadClientSecrets returns the raw client-secrets JSON.
func (y YouTubeConfig) ReadClientSecrets() ([]byte, error) {
	if y.ClientSecretsPath == "" {
		return nil, fmt.Errorf("%w: credentials.youtube.client_secrets_path is not set", ErrConfig)
	}
	if y.Scope == "" {
		return nil, fmt.Errorf("%w: credentials.youtube.scope is not set", ErrConfig)
	}

	data, err := os.ReadFile(ExpandHome(y.ClientSecretsPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrConfig, y.ClientSecretsPath)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrConfig, y.ClientSecretsPath, err)
	}
	return data, nil
}

// ImportConfig tunes searches made during an import.
type ImportConfig struct {
	Market     string   `toml:"market"`
	MaxResults int      `toml:"max_results"`
	Timeout    Duration `toml:"timeout"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	History      bool   `toml:"history"`
}

// ServerConfig is the loopback address used for OAuth callbacks when a redirect URI does not name one.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Duration decodes TOML strings such as "30s" into a [time.Duration].
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults of the embedded example config.
// A missing or malformed file is an [ErrConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found (run 'playsheet setup config')", ErrConfig, path)
		}
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrConfig, path, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv loads envFile (if present) with godotenv and overlays the PLAYSHEET_* variables on c.
//
// Variables already present in the process environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: failed to load %s: %v", ErrConfig, envFile, err)
		}
	}

	overrides := []struct {
		key    string
		target *string
	}{
		{EnvSpotifyClientID, &c.Credentials.Spotify.ClientID},
		{EnvSpotifyClientSecret, &c.Credentials.Spotify.ClientSecret},
		{EnvSpotifyRedirectURI, &c.Credentials.Spotify.RedirectURI},
		{EnvYouTubeClientSecrets, &c.Credentials.YouTube.ClientSecretsPath},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.target = v
		}
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
