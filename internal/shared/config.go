package shared

import (
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix prefixes every environment variable read by [ApplyEnv].
const EnvPrefix = "PIXTAPE_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Logging     LoggingConfig     `toml:"logging"`
	Credentials CredentialsConfig `toml:"credentials"`
	Session     SessionConfig     `toml:"session"`
	Cache       CacheConfig       `toml:"cache"`
	Database    DatabaseConfig    `toml:"database"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	BaseURL         string `toml:"base_url"`
	MaxUploadMB     int    `toml:"max_upload_mb"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MaxUploadBytes returns the upload limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

// LoggingConfig contains log level and output format.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Vision  VisionConfig  `toml:"vision"`
	LLM     LLMConfig     `toml:"llm"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// Valid reports whether the client credentials are present.
func (s SpotifyConfig) Valid() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// VisionConfig contains Google Cloud Vision settings.
type VisionConfig struct {
	APIKey    string  `toml:"api_key"`
	Endpoint  string  `toml:"endpoint"`
	RateLimit float64 `toml:"rate_limit"`
}

// LLMConfig contains settings for an OpenAI-compatible chat completions API.
type LLMConfig struct {
	APIKey    string  `toml:"api_key"`
	BaseURL   string  `toml:"base_url"`
	Model     string  `toml:"model"`
	RateLimit float64 `toml:"rate_limit"`
}

// SessionConfig controls cookies and the session store.
type SessionConfig struct {
	Backend           string `toml:"backend"`
	HashKey           string `toml:"hash_key"`
	BlockKey          string `toml:"block_key"`
	RefreshSkew       string `toml:"refresh_skew"`
	MaxAge            string `toml:"max_age"`
	AllowIdentityHint bool   `toml:"allow_identity_hint"`
	SecureCookies     bool   `toml:"secure_cookies"`
}

// Keys decodes the hex-encoded cookie keys. Empty keys are returned as nil.
func (s SessionConfig) Keys() (hashKey, blockKey []byte, err error) {
	if s.HashKey != "" {
		if hashKey, err = hex.DecodeString(s.HashKey); err != nil {
			return nil, nil, fmt.Errorf("%w: session.hash_key: %v", ErrInvalidConfig, err)
		}
	}
	if s.BlockKey != "" {
		if blockKey, err = hex.DecodeString(s.BlockKey); err != nil {
			return nil, nil, fmt.Errorf("%w: session.block_key: %v", ErrInvalidConfig, err)
		}
	}
	return hashKey, blockKey, nil
}

// CacheConfig bounds the in-process caches.
type CacheConfig struct {
	Size int    `toml:"size"`
	TTL  string `toml:"ttl"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ParseDuration parses s, returning fallback when s is empty.
func ParseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q", ErrInvalidConfig, s)
	}
	return d, nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads the given dotenv files (missing files are skipped) and overrides secrets and
// listen settings from PIXTAPE_* environment variables.
func ApplyEnv(c *Config, dotenvFiles ...string) error {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	strs := map[string]*string{
		"SPOTIFY_CLIENT_ID":     &c.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET": &c.Credentials.Spotify.ClientSecret,
		"SPOTIFY_REDIRECT_URI":  &c.Credentials.Spotify.RedirectURI,
		"VISION_API_KEY":        &c.Credentials.Vision.APIKey,
		"LLM_API_KEY":           &c.Credentials.LLM.APIKey,
		"LLM_BASE_URL":          &c.Credentials.LLM.BaseURL,
		"LLM_MODEL":             &c.Credentials.LLM.Model,
		"SESSION_HASH_KEY":      &c.Session.HashKey,
		"SESSION_BLOCK_KEY":     &c.Session.BlockKey,
		"SERVER_HOST":           &c.Server.Host,
		"SERVER_BASE_URL":       &c.Server.BaseURL,
		"LOG_LEVEL":             &c.Logging.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sSERVER_PORT=%q", ErrInvalidConfig, EnvPrefix, v)
		}
		c.Server.Port = port
	}

	return nil
}
