package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-sheetsign/internal/config"
)

const envPrefix = "SHEETSIGN_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // SHEETSIGN_CONFIG: config file name or path
	StoreDir   string // SHEETSIGN_STORE_DIR: file store directory
	Soffice    string // SHEETSIGN_SOFFICE: soffice binary
	Timeout    string // SHEETSIGN_TIMEOUT: conversion timeout

	// Tier 2 - Backends
	Store         string // SHEETSIGN_STORE: file, redis
	RedisAddr     string // SHEETSIGN_REDIS_ADDR: store and dataset Redis address
	RedisPassword string // SHEETSIGN_REDIS_PASSWORD
	RedisDB       int    // SHEETSIGN_REDIS_DB: -1 when unset
	Dataset       string // SHEETSIGN_DATASET: jsonl, stdout, sqlite, postgres, redis, none
	DatasetPath   string // SHEETSIGN_DATASET_PATH: jsonl file
	DatasetDSN    string // SHEETSIGN_DATASET_DSN: sqlite file or postgres URL
	Backend       string // SHEETSIGN_BACKEND: libreoffice, chrome

	// Tier 3 - Extended
	Date      string // SHEETSIGN_DATE: "auto", "auto:FORMAT" or literal
	PageCap   int    // SHEETSIGN_PAGE_CAP
	LogLevel  string // SHEETSIGN_LOG_LEVEL
	LogFormat string // SHEETSIGN_LOG_FORMAT
}

// knownEnvVars lists valid SHEETSIGN_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"SHEETSIGN_CONFIG":         true,
	"SHEETSIGN_STORE_DIR":      true,
	"SHEETSIGN_SOFFICE":        true,
	"SHEETSIGN_TIMEOUT":        true,
	"SHEETSIGN_STORE":          true,
	"SHEETSIGN_REDIS_ADDR":     true,
	"SHEETSIGN_REDIS_PASSWORD": true,
	"SHEETSIGN_REDIS_DB":       true,
	"SHEETSIGN_DATASET":        true,
	"SHEETSIGN_DATASET_PATH":   true,
	"SHEETSIGN_DATASET_DSN":    true,
	"SHEETSIGN_BACKEND":        true,
	"SHEETSIGN_DATE":           true,
	"SHEETSIGN_PAGE_CAP":       true,
	"SHEETSIGN_LOG_LEVEL":      true,
	"SHEETSIGN_LOG_FORMAT":     true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable numbers are ignored, like unset ones.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:    os.Getenv("SHEETSIGN_CONFIG"),
		StoreDir:      os.Getenv("SHEETSIGN_STORE_DIR"),
		Soffice:       os.Getenv("SHEETSIGN_SOFFICE"),
		Timeout:       os.Getenv("SHEETSIGN_TIMEOUT"),
		Store:         os.Getenv("SHEETSIGN_STORE"),
		RedisAddr:     os.Getenv("SHEETSIGN_REDIS_ADDR"),
		RedisPassword: os.Getenv("SHEETSIGN_REDIS_PASSWORD"),
		RedisDB:       -1,
		Dataset:       os.Getenv("SHEETSIGN_DATASET"),
		DatasetPath:   os.Getenv("SHEETSIGN_DATASET_PATH"),
		DatasetDSN:    os.Getenv("SHEETSIGN_DATASET_DSN"),
		Backend:       os.Getenv("SHEETSIGN_BACKEND"),
		Date:          os.Getenv("SHEETSIGN_DATE"),
		LogLevel:      os.Getenv("SHEETSIGN_LOG_LEVEL"),
		LogFormat:     os.Getenv("SHEETSIGN_LOG_FORMAT"),
	}

	if v := os.Getenv("SHEETSIGN_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil && db >= 0 {
			cfg.RedisDB = db
		}
	}
	if v := os.Getenv("SHEETSIGN_PAGE_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PageCap = n
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized SHEETSIGN_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides config file values with set env vars.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString(&cfg.Store.Dir, env.StoreDir)
	setString(&cfg.Store.Kind, env.Store)
	setString(&cfg.Converter.Binary, env.Soffice)
	setString(&cfg.Converter.Timeout, env.Timeout)
	setString(&cfg.Converter.Backend, env.Backend)

	// One Redis server usually backs both the store and the dataset.
	for _, r := range []*config.RedisConfig{&cfg.Store.Redis, &cfg.Dataset.Redis} {
		setString(&r.Addr, env.RedisAddr)
		setString(&r.Password, env.RedisPassword)
		if env.RedisDB >= 0 {
			r.DB = env.RedisDB
		}
	}

	setString(&cfg.Dataset.Kind, env.Dataset)
	setString(&cfg.Dataset.Path, env.DatasetPath)
	setString(&cfg.Dataset.DSN, env.DatasetDSN)

	setString(&cfg.Layout.Date, env.Date)
	if env.PageCap > 0 {
		cfg.Layout.PageCap = env.PageCap
	}
	setString(&cfg.Log.Level, env.LogLevel)
	setString(&cfg.Log.Format, env.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
