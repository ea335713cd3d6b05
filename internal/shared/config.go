package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const appDir = "melodymind"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	YouTube     YouTubeConfig     `toml:"youtube"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
	Quiz        QuizConfig        `toml:"quiz"`
	Transfer    TransferConfig    `toml:"transfer"`
	Status      StatusConfig      `toml:"status"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify OAuthClientConfig `toml:"spotify"`
	Google  OAuthClientConfig `toml:"google"`
	Genius  GeniusConfig      `toml:"genius"`
	Gemini  GeminiConfig      `toml:"gemini"`
}

// OAuthClientConfig holds an OAuth2 client registration.
type OAuthClientConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// GeniusConfig contains the Genius API access token.
type GeniusConfig struct {
	Token string `toml:"token"`
}

// GeminiConfig contains generative and embedding model settings.
type GeminiConfig struct {
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
}

// YouTubeConfig points at the YouTube Music proxy and the stored token bundle.
type YouTubeConfig struct {
	ProxyURL  string `toml:"proxy_url"`
	TokenPath string `toml:"token_path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// LogConfig controls logger verbosity.
type LogConfig struct {
	Level string `toml:"level"`
}

// QuizConfig sizes quiz preparation.
type QuizConfig struct {
	Questions     int `toml:"questions"`
	PlaylistLimit int `toml:"playlist_limit"`
	SampleTracks  int `toml:"sample_tracks"`
	IngestWorkers int `toml:"ingest_workers"`
}

// TransferConfig tunes track matching and playlist writes.
type TransferConfig struct {
	Strategy    string  `toml:"strategy"`
	Threshold   float64 `toml:"threshold"`
	Window      int     `toml:"window"`
	BatchSize   int     `toml:"batch_size"`
	SearchRate  float64 `toml:"search_rate"`
	Description string  `toml:"description"`
}

// StatusConfig selects where transfer status records live.
type StatusConfig struct {
	Backend       string `toml:"backend"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	KeyPrefix     string `toml:"key_prefix"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads variables from the given .env files into the process environment.
//
// Missing files are ignored. Variables already set in the environment win.
func LoadEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides secrets and endpoints with environment values.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&c.Credentials.Spotify.ClientID, "SPOTIPY_CLIENT_ID")
	set(&c.Credentials.Spotify.ClientSecret, "SPOTIPY_CLIENT_SECRET")
	set(&c.Credentials.Spotify.RedirectURI, "SPOTIPY_REDIRECT_URI")
	set(&c.Credentials.Google.ClientID, "GOOGLE_CLIENT_ID")
	set(&c.Credentials.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&c.Credentials.Google.RedirectURI, "GOOGLE_REDIRECT_URI")
	set(&c.Credentials.Genius.Token, "GENIUS_TOKEN")
	set(&c.Credentials.Gemini.APIKey, "GEMINI_API_KEY")
	set(&c.YouTube.ProxyURL, "YTMUSIC_PROXY_URL")
	set(&c.Status.RedisAddr, "MELODYMIND_REDIS_ADDR")
	set(&c.Database.Path, "MELODYMIND_DB")
}

// TokenPath returns the configured token bundle path or its XDG data location.
func (c *Config) TokenPath() (string, error) {
	if c.YouTube.TokenPath != "" {
		return c.YouTube.TokenPath, nil
	}
	return DataFile("tokens.json")
}

// SpotifyTokenPath returns where source-service tokens are kept.
func (c *Config) SpotifyTokenPath() (string, error) {
	return DataFile("spotify_tokens.json")
}

// DataFile resolves name under the XDG data directory, creating parent directories.
func DataFile(name string) (string, error) {
	p, err := xdg.DataFile(appDir + "/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data file %s: %w", name, err)
	}
	return p, nil
}
