package server

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/newsvendor/internal/config"
	"github.com/iwvelando/newsvendor/pkg/constants"
	"gopkg.in/yaml.v3"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 2 * time.Minute
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address        string               `yaml:"address"`
	MaxUploadSize  string               `yaml:"maxUploadSize"`
	AllowedOrigins []string             `yaml:"allowedOrigins,omitempty"`
	ReadTimeout    time.Duration        `yaml:"readTimeout,omitempty"`
	WriteTimeout   time.Duration        `yaml:"writeTimeout,omitempty"`
	MaxSimulations int                  `yaml:"maxSimulations,omitempty"`
	MaxCandidates  int                  `yaml:"maxCandidates,omitempty"`
	Logging        config.LoggingConfig `yaml:"logging"`

	uploadSizeBytes int64
}

func defaultConfig() *Config {
	return &Config{
		Address:         constants.DefaultServerAddress,
		MaxUploadSize:   strconv.FormatInt(constants.DefaultMaxUploadSizeBytes, 10),
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		MaxSimulations:  constants.ServerMaxSimulations,
		MaxCandidates:   constants.ServerMaxCandidates,
		uploadSizeBytes: constants.DefaultMaxUploadSizeBytes,
	}
}

// LoadConfig loads the server configuration from YAML. A missing file yields
// the defaults without error.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size. Non-positive
// sizes are ignored.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size <= 0 {
		return
	}
	c.uploadSizeBytes = size
	c.MaxUploadSize = strconv.FormatInt(size, 10)
}

// Options converts the file configuration into handler options.
func (c *Config) Options(version string) Options {
	return Options{
		MaxUploadSize:  c.uploadSizeBytes,
		Version:        version,
		AllowedOrigins: append([]string(nil), c.AllowedOrigins...),
		Limits: config.Limits{
			MaxSimulations: c.MaxSimulations,
			MaxCandidates:  c.MaxCandidates,
		},
	}
}

func (c *Config) normalize() error {
	c.Address = strings.TrimSpace(c.Address)
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.MaxSimulations <= 0 || c.MaxSimulations > constants.MaxSimulations {
		c.MaxSimulations = constants.ServerMaxSimulations
	}
	if c.MaxCandidates <= 0 || c.MaxCandidates > constants.MaxCandidates {
		c.MaxCandidates = constants.ServerMaxCandidates
	}

	origins := c.AllowedOrigins[:0]
	for _, origin := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.AllowedOrigins = origins

	size, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = size
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10MB")
// into bytes. An empty string yields the default upload size.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	split := strings.IndexFunc(trimmed, func(r rune) bool { return !unicode.IsDigit(r) })
	if split == -1 {
		split = len(trimmed)
	}
	numPart := trimmed[:split]
	unitPart := strings.TrimSpace(trimmed[split:])
	if numPart == "" {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var shift uint
	switch unitPart {
	case "", "B":
		shift = 0
	case "K", "KB", "KIB":
		shift = 10
	case "M", "MB", "MIB":
		shift = 20
	case "G", "GB", "GIB":
		shift = 30
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	if n > math.MaxInt64>>shift {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return n << shift, nil
}
