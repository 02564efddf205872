package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hupe1980/fuzzgram"
	"github.com/hupe1980/fuzzgram/codec"
)

// Config holds the defaults read from a TOML file. Flags override it.
//
//	[search]
//	threshold = 0.3
//	limit = 20
//	output = "json"
//
//	[index]
//	backend = "mmap"
//	block_cache_bytes = 67108864
//	parallelism = 8
//
//	[s3]
//	region = "eu-central-1"
//
//	[minio]
//	endpoint = "localhost:9000"
//	access_key = "minioadmin"
//	secret_key = "minioadmin"
//
//	[log]
//	level = "info"
//	format = "json"
type Config struct {
	Search SearchConfig `toml:"search"`
	Index  IndexConfig  `toml:"index"`
	S3     S3Config     `toml:"s3"`
	Minio  MinioConfig  `toml:"minio"`
	Log    LogConfig    `toml:"log"`
}

type SearchConfig struct {
	Threshold float64 `toml:"threshold"`
	Limit     int     `toml:"limit"`
	// Output is "text" or "json".
	Output string `toml:"output"`
	// Codec names the JSON encoder, see codec.ByName.
	Codec string `toml:"codec"`
}

type IndexConfig struct {
	Backend         string `toml:"backend"`
	BlockCacheBytes int64  `toml:"block_cache_bytes"`
	Parallelism     int    `toml:"parallelism"`
	MemoryBytes     int64  `toml:"memory_bytes"`
}

type S3Config struct {
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Secure    bool   `toml:"secure"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			Threshold: 0.3,
			Output:    "text",
			Codec:     "go-json",
		},
		Index: IndexConfig{
			Backend:     "mmap",
			Parallelism: 1,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// LoadConfig reads path over the defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var errs []error

	if math.IsNaN(c.Search.Threshold) || c.Search.Threshold < 0 || c.Search.Threshold > 1 {
		errs = append(errs, fmt.Errorf("search.threshold %v is outside [0, 1]", c.Search.Threshold))
	}
	if c.Search.Output != "text" && c.Search.Output != "json" {
		errs = append(errs, fmt.Errorf("search.output %q must be text or json", c.Search.Output))
	}
	if _, ok := codec.ByName(c.Search.Codec); !ok {
		errs = append(errs, fmt.Errorf("search.codec %q is unknown", c.Search.Codec))
	}
	if _, err := parseBackend(c.Index.Backend); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Options translates the index section into open options.
func (c Config) Options() []fuzzgram.Option {
	backend, _ := parseBackend(c.Index.Backend)
	level, _ := parseLevel(c.Log.Level)

	opts := []fuzzgram.Option{
		fuzzgram.WithBackend(backend),
		fuzzgram.WithParallelism(c.Index.Parallelism),
		fuzzgram.WithLogger(newLogger(c.Log.Format, level)),
	}
	if c.Index.BlockCacheBytes > 0 {
		opts = append(opts, fuzzgram.WithBlockCache(c.Index.BlockCacheBytes))
	}
	if c.Index.MemoryBytes > 0 {
		opts = append(opts, fuzzgram.WithResourceLimits(fuzzgram.ResourceLimits{MemoryBytes: c.Index.MemoryBytes}))
	}
	return opts
}

func newLogger(format string, level slog.Level) *fuzzgram.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return fuzzgram.NewLogger(slog.NewJSONHandler(os.Stderr, opts))
	}
	return fuzzgram.NewLogger(slog.NewTextHandler(os.Stderr, opts))
}

func parseBackend(s string) (fuzzgram.Backend, error) {
	for _, b := range []fuzzgram.Backend{fuzzgram.BackendMmap, fuzzgram.BackendFile, fuzzgram.BackendMemory} {
		if strings.EqualFold(s, b.String()) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("index.backend %q must be mmap, file or memory", s)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
