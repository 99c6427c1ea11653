package ourtrips

import "time"

type Config struct {
	DBPath    string
	BucketDir string
	Logger    Logger
	Storage   Storage
	Bucket    Bucket
	Detector  Detector
	Now       func() time.Time
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithBucketDir(dir string) Option {
	return func(c *Config) {
		c.BucketDir = dir
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithBucket(b Bucket) Option {
	return func(c *Config) {
		c.Bucket = b
	}
}

// WithDetector sets the vision provider. Without one, recognition fails.
func WithDetector(d Detector) Option {
	return func(c *Config) {
		c.Detector = d
	}
}

// WithClock overrides the clock used to stamp plans posted without a time.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:    "ourtrips.sqlite3",
		BucketDir: "ourtrips-bucket",
		Now:       time.Now,
	}
}
