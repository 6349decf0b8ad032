package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/reaandrew/securecodeauditor/analysis"
	"github.com/reaandrew/securecodeauditor/reporters"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListen     = ":8080"
	DefaultSessionTTL = 30 * time.Minute
	EnvPrefix         = "SCA_"
)

type Config struct {
	Endpoint       string        `yaml:"endpoint" toml:"endpoint"`
	Listen         string        `yaml:"listen" toml:"listen"`
	OutputDir      string        `yaml:"output_dir" toml:"output_dir"`
	ReportFormat   string        `yaml:"report_format" toml:"report_format"`
	ReportBaseURL  string        `yaml:"report_base_url" toml:"report_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout" toml:"request_timeout"`
	LogLevel       string        `yaml:"log_level" toml:"log_level"`
	LogFile        string        `yaml:"log_file" toml:"log_file"`
	AllowedOrigins []string      `yaml:"allowed_origins" toml:"allowed_origins"`
	SessionTTL     time.Duration `yaml:"session_ttl" toml:"session_ttl"`
}

func Default() Config {
	return Config{
		Endpoint:     analysis.DefaultEndpoint,
		Listen:       DefaultListen,
		OutputDir:    ".",
		ReportFormat: "json",
		LogLevel:     "info",
		SessionTTL:   DefaultSessionTTL,
	}
}

// Load builds the configuration from defaults, the optional config file, a .env file in
// the working directory and SCA_* environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := LoadEnvFile(".env"); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse TOML config '%s': %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config '%s': %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file type '%s'", filepath.Ext(path))
	}
	return nil
}

// LoadEnvFile exports the variables of a dotenv file without overriding ones already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		log.Debugf("Loaded environment from %s", path)
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file '%s': %w", path, err)
}

// ApplyEnv overrides fields from SCA_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	stringVars := map[string]*string{
		"ENDPOINT":        &c.Endpoint,
		"LISTEN":          &c.Listen,
		"OUTPUT_DIR":      &c.OutputDir,
		"REPORT_FORMAT":   &c.ReportFormat,
		"REPORT_BASE_URL": &c.ReportBaseURL,
		"LOG_LEVEL":       &c.LogLevel,
		"LOG_FILE":        &c.LogFile,
	}
	for name, field := range stringVars {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*field = v
		}
	}

	durationVars := map[string]*time.Duration{
		"REQUEST_TIMEOUT": &c.RequestTimeout,
		"SESSION_TTL":     &c.SessionTTL,
	}
	for name, field := range durationVars {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s '%s': %w", EnvPrefix, name, v, err)
		}
		*field = d
	}

	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, origin)
			}
		}
	}
	return nil
}

func (c Config) Validate() error {
	endpoint, err := url.Parse(c.Endpoint)
	if err != nil || endpoint.Host == "" || (endpoint.Scheme != "http" && endpoint.Scheme != "https") {
		return fmt.Errorf("endpoint must be an http(s) URL, got '%s'", c.Endpoint)
	}

	known := false
	for _, format := range reporters.Formats {
		if c.ReportFormat == format {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown report format: %s", c.ReportFormat)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", c.LogLevel, err)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}
