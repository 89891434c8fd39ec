package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/backmassage/pngtone/internal/filter"
)

// DotenvFiles are read by LoadEnv when present, earlier files winning.
var DotenvFiles = []string{".env", ".env.local"}

// LoadEnv applies PNGTONE_* variables to cfg. The process environment wins
// over dotenv files; missing files are skipped. Call before ParseFlags so
// flags override both.
func LoadEnv(cfg *Config, files ...string) error {
	fileVars := map[string]string{}
	for _, name := range files {
		vars, err := godotenv.Read(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		for k, v := range vars {
			if _, seen := fileVars[k]; !seen {
				fileVars[k] = v
			}
		}
	}
	return applyEnv(cfg, func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PNGTONE_FILTER"); ok {
		cfg.Filter = filter.Normalize(v)
	}
	if v, ok := get("PNGTONE_JOBS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PNGTONE_JOBS must be a whole number (got %q)", v)
		}
		cfg.Workers = n
	}
	if v, ok := get("PNGTONE_UNZIP_DIR"); ok {
		cfg.UnzipDir = v
	}
	if v, ok := get("PNGTONE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PNGTONE_TIMEOUT must be a duration like 90s (got %q)", v)
		}
		cfg.JobTimeout = d
	}
	if v, ok := get("PNGTONE_STRICT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PNGTONE_STRICT must be true or false (got %q)", v)
		}
		cfg.StrictMode = b
	}
	if v, ok := get("PNGTONE_LOG"); ok {
		cfg.LogFile = v
	}
	// https://no-color.org: any non-empty value disables color.
	if _, ok := get("NO_COLOR"); ok {
		cfg.ColorMode = ColorNever
	}
	return nil
}
