// Package config handles the XDG configuration directory, file paths and
// settings read from the environment or a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"todo/internal/service"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// LogFile is the default log filename.
	LogFile = "todo.log"

	// DotEnvFile is read from the working directory when present.
	DotEnvFile = ".env"
)

// Environment keys.
const (
	KeyRemoteURL    = "TODO_REMOTE_URL"
	KeyPullPolicy   = "TODO_PULL_POLICY"
	KeyAtomicPush   = "TODO_ATOMIC_PUSH"
	KeyLogFile      = "TODO_LOG_FILE"
	KeyClientID     = "GOOGLE_CLIENT_ID"
	KeyClientSecret = "GOOGLE_CLIENT_SECRET"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// RemoteURL names the remote store. Empty when not configured.
	RemoteURL string

	// PullPolicy is the default policy for pull.
	PullPolicy service.PullPolicy

	// AtomicPush uses a transactional replace when the store offers one.
	AtomicPush bool

	// ClientID and ClientSecret identify the OAuth client.
	ClientID     string
	ClientSecret string

	logFile string
}

// Option configures New.
type Option func(*options)

type options struct {
	envFile string
}

// WithEnvFile reads settings from path instead of ./.env. An empty path
// disables the file.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// New creates a Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
// Environment variables win over the .env file; a missing .env is ignored.
func New(configDir string, opts ...Option) (*Config, error) {
	o := options{envFile: DotEnvFile}
	for _, opt := range opts {
		opt(&o)
	}

	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetDefault(KeyPullPolicy, string(service.PullReplace))
	v.SetDefault(KeyAtomicPush, true)
	v.AutomaticEnv()

	if o.envFile != "" {
		v.SetConfigFile(o.envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, service.ConfigError(fmt.Sprintf("%s: %v", o.envFile, err))
		}
	}

	policy, err := service.ParsePullPolicy(strings.ToLower(strings.TrimSpace(v.GetString(KeyPullPolicy))))
	if err != nil {
		return nil, err
	}

	return &Config{
		Dir:          dir,
		RemoteURL:    strings.TrimSpace(v.GetString(KeyRemoteURL)),
		PullPolicy:   policy,
		AtomicPush:   v.GetBool(KeyAtomicPush),
		ClientID:     v.GetString(KeyClientID),
		ClientSecret: v.GetString(KeyClientSecret),
		logFile:      v.GetString(KeyLogFile),
	}, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Remote returns the remote store URL or a ConfigError when unset.
func (c *Config) Remote() (string, error) {
	if c.RemoteURL == "" {
		return "", service.ConfigError(KeyRemoteURL + " not set")
	}
	return c.RemoteURL, nil
}

// LogPath returns the log file path, or "" when file logging is off.
func (c *Config) LogPath() string {
	switch strings.ToLower(c.logFile) {
	case "":
		return filepath.Join(c.Dir, LogFile)
	case "off", "none", "-":
		return ""
	default:
		return c.logFile
	}
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient reports whether client credentials are available from
// the environment or the oauth_client.json file.
func (c *Config) HasOAuthClient() bool {
	if c.ClientID != "" && c.ClientSecret != "" {
		return true
	}
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
