// Package config reads barhop's settings from the environment, an optional
// .env file and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	Port          string
	DBPath        string
	BaseURL       string
	LogLevel      string
	LogFormat     string
	Timezone      *time.Location
	SecureCookies bool

	// CheckinRateLimit is the number of check-in attempts a device may make
	// per CheckinRateWindow.
	CheckinRateLimit  int
	CheckinRateWindow time.Duration

	// SeedPath, when set, imports activities from a YAML file at startup.
	SeedPath string
	// SeedOnly exits after the import instead of serving.
	SeedOnly bool
}

// Load reads envFile (ignored if missing), then the environment, then args.
func Load(envFile string, args []string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Port:              getEnv("BARHOP_PORT", "8080"),
		DBPath:            getEnv("BARHOP_DB_PATH", "barhop.db"),
		BaseURL:           getEnv("BARHOP_BASE_URL", ""),
		LogLevel:          getEnv("BARHOP_LOG_LEVEL", "info"),
		LogFormat:         getEnv("BARHOP_LOG_FORMAT", "text"),
		SecureCookies:     getEnvBool("BARHOP_SECURE_COOKIES", false),
		CheckinRateLimit:  getEnvInt("BARHOP_CHECKIN_RATE_LIMIT", 10),
		CheckinRateWindow: getEnvDuration("BARHOP_CHECKIN_RATE_WINDOW", time.Minute),
	}
	tz := getEnv("BARHOP_TIMEZONE", "Asia/Taipei")

	flags := pflag.NewFlagSet("barhop", pflag.ContinueOnError)
	flags.StringVarP(&cfg.Port, "port", "p", cfg.Port, "HTTP listen port")
	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.StringVar(&tz, "timezone", tz, "IANA zone used to display dates")
	flags.StringVar(&cfg.SeedPath, "seed", "", "import activities from a YAML file")
	flags.BoolVar(&cfg.SeedOnly, "seed-only", false, "exit after --seed completes")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("timezone %q: %w", tz, err)
	}
	cfg.Timezone = loc

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	if cfg.CheckinRateLimit < 1 {
		return Config{}, fmt.Errorf("BARHOP_CHECKIN_RATE_LIMIT must be >= 1, got %d", cfg.CheckinRateLimit)
	}
	if cfg.SeedOnly && cfg.SeedPath == "" {
		return Config{}, errors.New("--seed-only requires --seed")
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}
