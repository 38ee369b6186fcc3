package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-sheetsign/internal/dateutil"
	"github.com/alnah/go-sheetsign/internal/fileutil"
	"github.com/alnah/go-sheetsign/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength       = 4096
	MaxAddrLength       = 255  // host:port
	MaxDSNLength        = 2048 // postgres URL
	MaxPrefixLength     = 64
	MaxMarkerLength     = 100
	MaxDateLength       = 50 // literal date or "auto:FORMAT"
	MaxStyleNameLength  = 64
	MaxDurationLength   = 20
	MaxPasswordLength   = 512
	MinPageCap          = 1
	MaxPageCap          = 500
	MaxRedisDB          = 15
	DefaultTimeoutValue = "2m"
)

// Enum values.
const (
	StoreFile  = "file"
	StoreRedis = "redis"

	DatasetJSONL    = "jsonl"
	DatasetStdout   = "stdout"
	DatasetSQLite   = "sqlite"
	DatasetPostgres = "postgres"
	DatasetRedis    = "redis"
	DatasetNone     = "none"

	BackendLibreOffice = "libreoffice"
	BackendChrome      = "chrome"

	LogConsole = "console"
	LogJSON    = "json"
)

// Defaults of the local storage layout.
const (
	DefaultStoreDir    = "storage/key_value_stores/default"
	DefaultDatasetPath = "storage/datasets/default/results.jsonl"
	DefaultRedisAddr   = "localhost:6379"
)

var (
	storeKinds   = []string{StoreFile, StoreRedis}
	datasetKinds = []string{DatasetJSONL, DatasetStdout, DatasetSQLite, DatasetPostgres, DatasetRedis, DatasetNone}
	backends     = []string{BackendLibreOffice, BackendChrome}
	logLevels    = []string{"trace", "debug", "info", "warn", "error", "disabled"}
	logFormats   = []string{LogConsole, LogJSON}
)

// Config holds all settings of a sign run.
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	Dataset     DatasetConfig     `yaml:"dataset"`
	Converter   ConverterConfig   `yaml:"converter"`
	Layout      LayoutConfig      `yaml:"layout"`
	Spreadsheet SpreadsheetConfig `yaml:"spreadsheet"`
	Log         LogConfig         `yaml:"log"`
}

// StoreConfig selects the key-value store holding inputs and outputs.
type StoreConfig struct {
	Kind  string      `yaml:"kind"` // "file" (default) or "redis"
	Dir   string      `yaml:"dir"`  // file store directory
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"` // empty = "sheetsign:"
}

// DatasetConfig selects where run records go.
type DatasetConfig struct {
	Kind  string      `yaml:"kind"` // jsonl, stdout, sqlite, postgres, redis, none
	Path  string      `yaml:"path"` // jsonl file
	DSN   string      `yaml:"dsn"`  // sqlite file or postgres URL
	Redis RedisConfig `yaml:"redis"`
}

// ConverterConfig selects the spreadsheet-to-PDF backend.
type ConverterConfig struct {
	Backend  string `yaml:"backend"`  // "libreoffice" (default) or "chrome"
	Binary   string `yaml:"binary"`   // soffice path or name, empty = auto-detect
	Timeout  string `yaml:"timeout"`  // Go duration, default "2m"
	Style    string `yaml:"style"`    // chrome backend stylesheet name
	StyleDir string `yaml:"styleDir"` // chrome backend custom stylesheet directory
}

// LayoutConfig overrides template settings.
type LayoutConfig struct {
	DateFormat      string `yaml:"dateFormat"` // tokens or preset, default "MM/DD/YYYY"
	Date            string `yaml:"date"`       // "auto", "auto:FORMAT" or literal text
	PageCap         int    `yaml:"pageCap"`    // default 19
	SignatureMarker string `yaml:"signatureMarker"`
	DateMarker      string `yaml:"dateMarker"`
}

// SpreadsheetConfig controls the pre-conversion workbook check.
type SpreadsheetConfig struct {
	Check bool `yaml:"check"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error, disabled
	Format string `yaml:"format"` // console or json
}

// TimeoutDuration parses Converter.Timeout. Call Validate first.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Converter.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultTimeoutValue)
	}
	return d
}

// Validate checks enums, ranges and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateConverter(); err != nil {
		return err
	}
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := validateEnum("log.level", c.Log.Level, logLevels); err != nil {
		return err
	}
	return validateEnum("log.format", c.Log.Format, logFormats)
}

func (c *Config) validateStore() error {
	if err := validateEnum("store.kind", c.Store.Kind, storeKinds); err != nil {
		return err
	}
	if err := validateFieldLength("store.dir", c.Store.Dir, MaxPathLength); err != nil {
		return err
	}
	return validateRedis("store.redis", c.Store.Redis, strings.EqualFold(c.Store.Kind, StoreRedis))
}

func (c *Config) validateDataset() error {
	if err := validateEnum("dataset.kind", c.Dataset.Kind, datasetKinds); err != nil {
		return err
	}
	if err := validateFieldLength("dataset.path", c.Dataset.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("dataset.dsn", c.Dataset.DSN, MaxDSNLength); err != nil {
		return err
	}
	switch strings.ToLower(c.Dataset.Kind) {
	case DatasetSQLite, DatasetPostgres:
		if c.Dataset.DSN == "" {
			return fmt.Errorf("%w: dataset.dsn: required for %s", ErrInvalidValue, c.Dataset.Kind)
		}
	}
	return validateRedis("dataset.redis", c.Dataset.Redis, strings.EqualFold(c.Dataset.Kind, DatasetRedis))
}

func (c *Config) validateConverter() error {
	if err := validateEnum("converter.backend", c.Converter.Backend, backends); err != nil {
		return err
	}
	if err := validateFieldLength("converter.binary", c.Converter.Binary, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("converter.style", c.Converter.Style, MaxStyleNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("converter.styleDir", c.Converter.StyleDir, MaxPathLength); err != nil {
		return err
	}
	if c.Converter.Timeout != "" {
		if err := validateFieldLength("converter.timeout", c.Converter.Timeout, MaxDurationLength); err != nil {
			return err
		}
		d, err := time.ParseDuration(c.Converter.Timeout)
		if err != nil {
			return fmt.Errorf("%w: converter.timeout: %v", ErrInvalidValue, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: converter.timeout: must be positive, got %s", ErrInvalidValue, c.Converter.Timeout)
		}
	}
	return nil
}

func (c *Config) validateLayout() error {
	if c.Layout.DateFormat != "" {
		if _, err := dateutil.Format(c.Layout.DateFormat, time.Time{}); err != nil {
			return fmt.Errorf("%w: layout.dateFormat: %v", ErrInvalidValue, err)
		}
	}
	if err := validateFieldLength("layout.date", c.Layout.Date, MaxDateLength); err != nil {
		return err
	}
	if _, err := dateutil.ResolveDate(c.Layout.Date, c.Layout.DateFormat, time.Time{}); err != nil {
		return fmt.Errorf("%w: layout.date: %v", ErrInvalidValue, err)
	}
	if c.Layout.PageCap != 0 && (c.Layout.PageCap < MinPageCap || c.Layout.PageCap > MaxPageCap) {
		return fmt.Errorf("%w: layout.pageCap: must be between %d and %d, got %d",
			ErrInvalidValue, MinPageCap, MaxPageCap, c.Layout.PageCap)
	}
	if err := validateFieldLength("layout.signatureMarker", c.Layout.SignatureMarker, MaxMarkerLength); err != nil {
		return err
	}
	return validateFieldLength("layout.dateMarker", c.Layout.DateMarker, MaxMarkerLength)
}

func validateRedis(field string, r RedisConfig, required bool) error {
	if required && r.Addr == "" {
		return fmt.Errorf("%w: %s.addr: required", ErrInvalidValue, field)
	}
	if err := validateFieldLength(field+".addr", r.Addr, MaxAddrLength); err != nil {
		return err
	}
	if err := validateFieldLength(field+".password", r.Password, MaxPasswordLength); err != nil {
		return err
	}
	if err := validateFieldLength(field+".prefix", r.Prefix, MaxPrefixLength); err != nil {
		return err
	}
	if r.DB < 0 || r.DB > MaxRedisDB {
		return fmt.Errorf("%w: %s.db: must be between 0 and %d, got %d", ErrInvalidValue, field, MaxRedisDB, r.DB)
	}
	return nil
}

// validateEnum accepts empty (meaning default) or one of allowed, case-insensitively.
func validateEnum(field, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %q (must be one of %s)", ErrInvalidValue, field, value, strings.Join(allowed, ", "))
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the local-storage configuration: file store,
// JSONL dataset, LibreOffice backend, workbook check on.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Kind:  StoreFile,
			Dir:   DefaultStoreDir,
			Redis: RedisConfig{Addr: DefaultRedisAddr},
		},
		Dataset: DatasetConfig{
			Kind:  DatasetJSONL,
			Path:  DefaultDatasetPath,
			Redis: RedisConfig{Addr: DefaultRedisAddr},
		},
		Converter: ConverterConfig{
			Backend: BackendLibreOffice,
			Timeout: DefaultTimeoutValue,
		},
		Layout: LayoutConfig{
			DateFormat: dateutil.DefaultDateFormat,
			Date:       "auto",
			PageCap:    19,
		},
		Spreadsheet: SpreadsheetConfig{Check: true},
		Log:         LogConfig{Level: "info", Format: LogConsole},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-sheetsign/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-sheetsign", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
