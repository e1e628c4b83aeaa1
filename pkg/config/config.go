package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPrefix is prepended to every environment variable the tool reads
const envPrefix = "FRIENDDUMP_"

// Config holds all configuration options for frienddump
type Config struct {
	// Remote endpoints
	API APIConfig `yaml:"api" json:"api"`

	// Outbound HTTP settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Login behaviour
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Session validation probes
	Validator ValidatorConfig `yaml:"validator" json:"validator"`

	// Crawl settings
	Dump DumpConfig `yaml:"dump" json:"dump"`

	// Session persistence
	Session SessionConfig `yaml:"session" json:"session"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds the remote endpoints used by the auth client and the dumper
type APIConfig struct {
	GraphBaseURL     string `yaml:"graph_base_url" json:"graph_base_url"`
	OAuthStatusURL   string `yaml:"oauth_status_url" json:"oauth_status_url"`
	OAuthClientID    string `yaml:"oauth_client_id" json:"oauth_client_id"`
	OAuthRedirectURI string `yaml:"oauth_redirect_uri" json:"oauth_redirect_uri"`
	TokenAPIURL      string `yaml:"token_api_url" json:"token_api_url"`
	LoginAPIURL      string `yaml:"login_api_url" json:"login_api_url"`
	UIDAPIURL        string `yaml:"uid_api_url" json:"uid_api_url"`
	ProfileURLPrefix string `yaml:"profile_url_prefix" json:"profile_url_prefix"`
}

// HTTPConfig holds transport settings shared by every client
type HTTPConfig struct {
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language" json:"accept_language"`
}

// AuthConfig holds credential-login settings
type AuthConfig struct {
	MaxLoginRetries  int    `yaml:"max_login_retries" json:"max_login_retries"`
	ProxyErrorMarker string `yaml:"proxy_error_marker" json:"proxy_error_marker"`
	// SyntheticSB is the sb cookie value added to cookies that lack one
	SyntheticSB string `yaml:"synthetic_sb" json:"synthetic_sb"`
}

// DefaultSyntheticSB is the sb value used when auth.synthetic_sb is unset
const DefaultSyntheticSB = "FrIeNdDuMp.sb.0000"

// ValidatorConfig holds login validation settings
type ValidatorConfig struct {
	ProbeFiles    []string      `yaml:"probe_files" json:"probe_files"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout" json:"probe_timeout"`
	BlockKeywords []string      `yaml:"block_keywords" json:"block_keywords"`
}

// DumpConfig holds crawl settings
type DumpConfig struct {
	// MaxConcurrency caps in-flight fetches per phase; 0 means one per target
	MaxConcurrency   int    `yaml:"max_concurrency" json:"max_concurrency"`
	OutputDirectory  string `yaml:"output_directory" json:"output_directory"`
	ProgressInterval int    `yaml:"progress_interval" json:"progress_interval"`
}

// SessionConfig holds session store settings
type SessionConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	File    string `yaml:"file" json:"file"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerMinute of 0 disables limiting
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Session backends
const (
	BackendFile      = "file"
	BackendEncrypted = "encrypted"
	BackendKeyring   = "keyring"
	BackendMemory    = "memory"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			GraphBaseURL:     "https://graph.facebook.com",
			ProfileURLPrefix: "https://www.facebook.com/",
		},
		HTTP: HTTPConfig{
			Timeout:        30 * time.Second,
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			AcceptLanguage: "en-US,en;q=0.9",
		},
		Auth: AuthConfig{
			MaxLoginRetries:  10,
			ProxyErrorMarker: "SOCKSHTTPSConnectionPool",
			SyntheticSB:      DefaultSyntheticSB,
		},
		Validator: ValidatorConfig{
			ProbeFiles:    []string{".uid.txt"},
			ProbeTimeout:  10 * time.Second,
			BlockKeywords: []string{"blocked", "misuse", "abusive", "exceeded", "misusing", "error"},
		},
		Dump: DumpConfig{
			MaxConcurrency:   0,
			OutputDirectory:  ".",
			ProgressInterval: 10,
		},
		Session: SessionConfig{
			Backend: BackendFile,
			File:    "",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Endpoints
	setString(&c.API.GraphBaseURL, "GRAPH_BASE_URL")
	setString(&c.API.OAuthStatusURL, "OAUTH_STATUS_URL")
	setString(&c.API.OAuthClientID, "OAUTH_CLIENT_ID")
	setString(&c.API.OAuthRedirectURI, "OAUTH_REDIRECT_URI")
	setString(&c.API.TokenAPIURL, "TOKEN_API_URL")
	setString(&c.API.LoginAPIURL, "LOGIN_API_URL")
	setString(&c.API.UIDAPIURL, "UID_API_URL")

	setString(&c.Auth.SyntheticSB, "SYNTHETIC_SB")

	setString(&c.HTTP.UserAgent, "USER_AGENT")
	if timeout := os.Getenv(envPrefix + "HTTP_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid %sHTTP_TIMEOUT: %w", envPrefix, err)
		}
		c.HTTP.Timeout = d
	}

	if retries := os.Getenv(envPrefix + "MAX_LOGIN_RETRIES"); retries != "" {
		val, err := strconv.Atoi(retries)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_LOGIN_RETRIES: %w", envPrefix, err)
		}
		c.Auth.MaxLoginRetries = val
	}

	if concurrency := os.Getenv(envPrefix + "MAX_CONCURRENCY"); concurrency != "" {
		val, err := strconv.Atoi(concurrency)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_CONCURRENCY: %w", envPrefix, err)
		}
		c.Dump.MaxConcurrency = val
	}
	setString(&c.Dump.OutputDirectory, "OUTPUT_DIR")

	if rpm := os.Getenv(envPrefix + "REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val >= 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	setString(&c.Session.Backend, "SESSION_BACKEND")
	setString(&c.Session.File, "SESSION_FILE")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.File, "LOG_FILE")

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		*dst = v
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".frienddump.yaml",
		".frienddump.yml",
		filepath.Join(home, ".config", "frienddump", "config.yaml"),
		filepath.Join(home, ".config", "frienddump", "config.yml"),
		filepath.Join(home, ".frienddump.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.GraphBaseURL == "" {
		errs = append(errs, errors.New("graph base URL is required"))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	if strings.ContainsAny(c.Auth.SyntheticSB, "; ") {
		errs = append(errs, errors.New("synthetic sb must not contain ';' or spaces"))
	}
	if c.Auth.MaxLoginRetries <= 0 {
		errs = append(errs, errors.New("max login retries must be positive"))
	}
	if c.Validator.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("probe timeout must be positive"))
	}
	if c.Dump.MaxConcurrency < 0 {
		errs = append(errs, errors.New("max concurrency cannot be negative"))
	}
	if c.Dump.ProgressInterval <= 0 {
		errs = append(errs, errors.New("progress interval must be positive"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	validBackends := map[string]bool{
		BackendFile: true, BackendEncrypted: true, BackendKeyring: true, BackendMemory: true,
	}
	if !validBackends[strings.ToLower(c.Session.Backend)] {
		errs = append(errs, fmt.Errorf("invalid session backend: %q", c.Session.Backend))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if output, ok := flags["output-dir"].(string); ok && output != "" {
		c.Dump.OutputDirectory = output
	}
	if concurrency, ok := flags["max-concurrency"].(int); ok && concurrency >= 0 {
		c.Dump.MaxConcurrency = concurrency
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm >= 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if retries, ok := flags["max-login-retries"].(int); ok && retries > 0 {
		c.Auth.MaxLoginRetries = retries
	}
	if backend, ok := flags["session-backend"].(string); ok && backend != "" {
		c.Session.Backend = backend
	}
	if sessionFile, ok := flags["session-file"].(string); ok && sessionFile != "" {
		c.Session.File = sessionFile
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".frienddump.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
