package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every setting that has no well-known variable name.
	EnvPrefix = "TEXTJSON"

	// DefaultEnvFile is read from the working directory when no env file is given.
	DefaultEnvFile = ".env"

	// DefaultConfigName is the config file base name searched for when --config is empty.
	DefaultConfigName = "textjson"
)

// envNames maps settings to well-known environment variables that are read
// without the TEXTJSON_ prefix.
var envNames = map[string]string{
	"gemini_api_key": "GEMINI_API_KEY",
	"google_api_key": "GOOGLE_API_KEY",
}

// Options controls where settings are loaded from.
type Options struct {
	// ConfigFile is an explicit YAML config file. A missing explicit file is an error.
	ConfigFile string
	// EnvFile is a dotenv file. Missing files are ignored.
	EnvFile string
	// SearchPaths overrides the directories searched for textjson.yaml.
	SearchPaths []string
}

// Manager loads settings once at startup. Settings never change afterwards.
type Manager struct {
	v        *viper.Viper
	settings *Settings
	dotenv   map[string]string
}

// NewManager loads settings from defaults, the env file, the config file and
// the process environment, in increasing order of precedence.
func NewManager(opts Options) (*Manager, error) {
	cm := &Manager{v: viper.New()}

	if err := cm.initViper(opts); err != nil {
		return nil, err
	}

	settings, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.settings = settings

	return cm, nil
}

// initViper sets up defaults, env bindings, the dotenv layer and the config file.
func (cm *Manager) initViper(opts Options) error {
	v := cm.v
	defaults := DefaultSettings()
	v.SetDefault("gemini_api_key", defaults.GeminiAPIKey)
	v.SetDefault("google_api_key", defaults.GoogleAPIKey)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("host", defaults.Host)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("static_dir", defaults.StaticDir)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	for _, key := range v.AllKeys() {
		if name, ok := envNames[key]; ok {
			if err := v.BindEnv(key, name); err != nil {
				return fmt.Errorf("failed to bind %s: %w", name, err)
			}
			continue
		}
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := readEnvFile(envFile)
	if err != nil {
		return err
	}
	cm.dotenv = dotenv

	// Dotenv values sit just above built-in defaults. Unknown names are ignored.
	for _, key := range v.AllKeys() {
		if val := dotenv[EnvName(key)]; val != "" {
			v.SetDefault(key, val)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		paths := opts.SearchPaths
		if len(paths) == 0 {
			paths = []string{".", "$HOME/.textjson"}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	// Try to read config file (not required unless explicit)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into Settings and resolves ${VAR} references.
func (cm *Manager) load() (*Settings, error) {
	var s Settings
	if err := cm.v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	lookup := func(name string) string {
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return cm.dotenv[name]
	}
	s.GeminiAPIKey = resolveWith(s.GeminiAPIKey, lookup)
	s.GoogleAPIKey = resolveWith(s.GoogleAPIKey, lookup)
	s.StaticDir = resolveWith(s.StaticDir, lookup)

	return &s, nil
}

// Get returns the loaded settings.
func (cm *Manager) Get() *Settings {
	return cm.settings
}

// ConfigFileUsed returns the config file that was read, or "" if none.
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

// EnvName returns the environment variable a setting is read from.
func EnvName(key string) string {
	if name, ok := envNames[key]; ok {
		return name
	}
	return EnvPrefix + "_" + strings.ToUpper(key)
}

func readEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("error reading env file %s: %w", path, err)
	}
	return values, nil
}

var envRefPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	return resolveWith(value, os.Getenv)
}

func resolveWith(value string, lookup func(string) string) string {
	if value == "" {
		return value
	}
	return envRefPattern.ReplaceAllStringFunc(value, func(match string) string {
		return lookup(match[2 : len(match)-1])
	})
}

// Settings holds textjson configuration.
type Settings struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" yaml:"gemini_api_key"`
	GoogleAPIKey string `mapstructure:"google_api_key" yaml:"google_api_key"`
	Model        string `mapstructure:"model" yaml:"model"`
	Host         string `mapstructure:"host" yaml:"host"`
	Port         string `mapstructure:"port" yaml:"port"`
	StaticDir    string `mapstructure:"static_dir" yaml:"static_dir"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
}

// APIKey returns the effective Gemini API key: the Gemini key when set,
// otherwise the Google key. Empty means no key is configured.
func (s *Settings) APIKey() string {
	if s.GeminiAPIKey != "" {
		return s.GeminiAPIKey
	}
	return s.GoogleAPIKey
}

// Addr returns host:port for the HTTP listener.
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (s *Settings) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(s.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
