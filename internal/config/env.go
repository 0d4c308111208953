package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadFromEnv.
const (
	EnvConfig      = "DRT_CONFIG"
	EnvLogDir      = "DRT_LOG_DIR"
	EnvCatalogPath = "DRT_CATALOG"
	EnvStreamAddr  = "DRT_STREAM_ADDR"
	EnvMetricsAddr = "DRT_METRICS_ADDR"
)

// LoadEnv reads .env files into the process environment. Variables already
// set win. A missing file is not an error.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// GetEnv returns the value of key, or fallback if it is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// LoadFromEnv loads the file named by DRT_CONFIG, or path when the variable
// is unset. An empty path yields the defaults. The DRT_LOG_DIR, DRT_CATALOG,
// DRT_STREAM_ADDR and DRT_METRICS_ADDR variables then override their fields.
func LoadFromEnv(path string) (*ReplayConfig, error) {
	cfg := EmptyReplayConfig()
	if p := GetEnv(EnvConfig, path); p != "" {
		var err error
		if cfg, err = LoadReplayConfig(p); err != nil {
			return nil, err
		}
	}

	overrides := []struct {
		env   string
		field **string
	}{
		{EnvLogDir, &cfg.LogDir},
		{EnvCatalogPath, &cfg.CatalogPath},
		{EnvStreamAddr, &cfg.StreamAddr},
		{EnvMetricsAddr, &cfg.MetricsAddr},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok {
			*o.field = Ptr(v)
		}
	}
	return cfg, nil
}
