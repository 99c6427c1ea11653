// Package config loads the YAML settings shared by the server and the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/himanishpuri/ourtrips/pkg/logger"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/vision"
)

// Environment overrides, applied after the file is read.
const (
	EnvConfigPath   = "OURTRIPS_CONFIG"
	EnvDBPath       = "OURTRIPS_DB_PATH"
	EnvBucketDir    = "OURTRIPS_BUCKET_DIR"
	EnvVisionAPIKey = "OURTRIPS_VISION_API_KEY"
	EnvPort         = "OURTRIPS_PORT"
)

type ServerConfig struct {
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"` // ["*"] allows all
	RequestTimeout time.Duration `yaml:"request_timeout"`
	UploadTimeout  time.Duration `yaml:"upload_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type StorageConfig struct {
	DBPath    string `yaml:"db_path"`
	BucketDir string `yaml:"bucket_dir"`
}

type LogConfig struct {
	Level    string `yaml:"level"` // debug|info|warn|error
	Colorize bool   `yaml:"colorize"`
}

// VisionConfig selects the landmark provider. A fixture file wins over the
// API key; with neither, recognition is disabled.
type VisionConfig struct {
	APIKey     string        `yaml:"api_key"`
	Endpoint   string        `yaml:"endpoint"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxResults int           `yaml:"max_results"`
	Fixture    string        `yaml:"fixture"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Vision  VisionConfig  `yaml:"vision"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
			RequestTimeout: 30 * time.Second,
			UploadTimeout:  2 * time.Minute,
			MaxUploadBytes: 20 << 20,
		},
		Storage: StorageConfig{
			DBPath:    "ourtrips.sqlite3",
			BucketDir: "ourtrips-bucket",
		},
		Log: LogConfig{Level: "info", Colorize: true},
		Vision: VisionConfig{
			Endpoint:   vision.DefaultEndpoint,
			Timeout:    15 * time.Second,
			MaxResults: 10,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv(EnvBucketDir); v != "" {
		c.Storage.BucketDir = v
	}
	if v := os.Getenv(EnvVisionAPIKey); v != "" {
		c.Vision.APIKey = v
	}
	if v := os.Getenv(logger.EnvLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Storage.DBPath) == "" {
		return errors.New("storage.db_path is required")
	}
	if strings.TrimSpace(c.Storage.BucketDir) == "" {
		return errors.New("storage.bucket_dir is required")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ApplyLogging configures the process-wide logger.
func (c Config) ApplyLogging() {
	lvl, _ := logger.ParseLevel(c.Log.Level)
	logger.SetLevel(lvl)
	logger.SetColorize(c.Log.Colorize)
}

// Detector builds the configured vision provider, or nil when none is set.
func (c Config) Detector() (ourtrips.Detector, error) {
	switch {
	case c.Vision.Fixture != "":
		f, err := vision.LoadFixture(c.Vision.Fixture)
		if err != nil {
			return nil, err
		}
		return f, nil
	case c.Vision.APIKey != "":
		client := vision.NewCloudClient(c.Vision.APIKey, c.Vision.Timeout)
		if c.Vision.Endpoint != "" {
			client.Endpoint = c.Vision.Endpoint
		}
		if c.Vision.MaxResults > 0 {
			client.MaxResults = c.Vision.MaxResults
		}
		return client, nil
	}
	return nil, nil
}

// ServiceOptions translates the file settings into service options.
func (c Config) ServiceOptions() ([]ourtrips.Option, error) {
	opts := []ourtrips.Option{
		ourtrips.WithDBPath(c.Storage.DBPath),
		ourtrips.WithBucketDir(c.Storage.BucketDir),
	}
	d, err := c.Detector()
	if err != nil {
		return nil, fmt.Errorf("vision provider: %w", err)
	}
	if d != nil {
		opts = append(opts, ourtrips.WithDetector(d))
	}
	return opts, nil
}
