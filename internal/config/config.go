// Package config loads server settings.
//
// Precedence, lowest to highest: defaults, JSONC config file, .env file,
// process environment, command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

// DefaultConfigFile is read when present and no other file is named.
const DefaultConfigFile = "taskpad.json"

// DefaultEnvFile is read when present and no other file is named.
const DefaultEnvFile = ".env"

// Session backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

var (
	errConfigRead     = errors.New("cannot read config file")
	errConfigInvalid  = errors.New("invalid config file")
	errUnknownBackend = errors.New("unknown session backend")
	errMissingDSN     = errors.New("session backend requires a database dsn")
	errMissingDir     = errors.New("file session backend requires session.dir")
	errBadDuration    = errors.New("duration must be positive")
	errBadLogFormat   = errors.New("log.format must be json or console")
)

// Config holds all configuration options.
type Config struct {
	Addr        string  `json:"addr"`
	DatabaseURL string  `json:"database_url"` //nolint:tagliatelle // snake_case for config file
	MySQLDSN    string  `json:"mysql_dsn"`    //nolint:tagliatelle // snake_case for config file
	Session     Session `json:"session"`
	Log         Log     `json:"log"`
}

// Session configures the session layer.
type Session struct {
	Backend      string   `json:"backend"`
	Dir          string   `json:"dir"`
	TTL          Duration `json:"ttl"`
	GCInterval   Duration `json:"gc_interval"`   //nolint:tagliatelle // snake_case for config file
	CookieName   string   `json:"cookie_name"`   //nolint:tagliatelle // snake_case for config file
	CookieSecure bool     `json:"cookie_secure"` //nolint:tagliatelle // snake_case for config file
}

// Log configures the logger.
type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Duration is a time.Duration written as "24m" in config files.
type Duration time.Duration

// UnmarshalJSON accepts a Go duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the default configuration.
func Default() Config {
	return Config{
		Addr: ":8080",
		Session: Session{
			Backend:    BackendMemory,
			Dir:        "sessions",
			TTL:        Duration(24 * time.Minute),
			GCInterval: Duration(time.Minute),
			CookieName: "taskpad_session",
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Load builds the configuration from args (without the program name) and the environment.
// It returns flag.ErrHelp when -h/--help was given.
func Load(args []string, env LookupEnv) (Config, error) {
	cfg := Default()

	flags := flag.NewFlagSet("taskpad", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to a JSONC config file")
	envPath := flags.String("env-file", "", "path to a .env file")
	addr := flags.String("addr", cfg.Addr, "listen address")
	backend := flags.String("session-backend", cfg.Session.Backend, "session backend: memory, file, postgres, mysql")
	dir := flags.String("session-dir", cfg.Session.Dir, "directory for the file session backend")
	ttl := flags.Duration("session-ttl", cfg.Session.TTL.Std(), "idle lifetime of a session")
	databaseURL := flags.String("database-url", "", "postgres connection string")
	mysqlDSN := flags.String("mysql-dsn", "", "mysql data source name")
	logLevel := flags.String("log-level", cfg.Log.Level, "log level")
	logFormat := flags.String("log-format", cfg.Log.Format, "log format: json or console")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	path := *configPath
	mustExist := path != ""
	if path == "" {
		if v, ok := env("TASKPAD_CONFIG"); ok && v != "" {
			path, mustExist = v, true
		} else {
			path = DefaultConfigFile
		}
	}
	if err := loadFile(&cfg, path, mustExist); err != nil {
		return Config{}, err
	}

	lookup, err := withDotenv(env, *envPath)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if flags.Changed("addr") {
		cfg.Addr = *addr
	}
	if flags.Changed("session-backend") {
		cfg.Session.Backend = *backend
	}
	if flags.Changed("session-dir") {
		cfg.Session.Dir = *dir
	}
	if flags.Changed("session-ttl") {
		cfg.Session.TTL = Duration(*ttl)
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = *databaseURL
	}
	if flags.Changed("mysql-dsn") {
		cfg.MySQLDSN = *mysqlDSN
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = *logFormat
	}

	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string, mustExist bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !mustExist && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", errConfigRead, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("%w %s: invalid JSONC: %w", errConfigInvalid, path, err)
	}
	if err := json.Unmarshal(standardized, cfg); err != nil {
		return fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return nil
}

// withDotenv layers a .env file under the process environment.
func withDotenv(env LookupEnv, path string) (LookupEnv, error) {
	mustExist := path != ""
	if path == "" {
		path = DefaultEnvFile
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if !mustExist && errors.Is(err, fs.ErrNotExist) {
			return env, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := env(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

func applyEnv(cfg *Config, env LookupEnv) error {
	str := func(key string, dst *string) {
		if v, ok := env(key); ok && v != "" {
			*dst = v
		}
	}

	if port, ok := env("PORT"); ok && port != "" {
		cfg.Addr = ":" + port
	}
	str("TASKPAD_ADDR", &cfg.Addr)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("MYSQL_DSN", &cfg.MySQLDSN)
	str("TASKPAD_SESSION_BACKEND", &cfg.Session.Backend)
	str("TASKPAD_SESSION_DIR", &cfg.Session.Dir)
	str("TASKPAD_COOKIE_NAME", &cfg.Session.CookieName)
	str("TASKPAD_LOG_LEVEL", &cfg.Log.Level)
	str("TASKPAD_LOG_FORMAT", &cfg.Log.Format)

	for key, dst := range map[string]*Duration{
		"TASKPAD_SESSION_TTL":         &cfg.Session.TTL,
		"TASKPAD_SESSION_GC_INTERVAL": &cfg.Session.GCInterval,
	} {
		if v, ok := env(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = Duration(d)
		}
	}

	if v, ok := env("TASKPAD_COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TASKPAD_COOKIE_SECURE: %w", err)
		}
		cfg.Session.CookieSecure = b
	}
	return nil
}

// Validate checks that the configuration can start a server.
func Validate(cfg Config) error {
	switch cfg.Session.Backend {
	case BackendMemory:
	case BackendFile:
		if cfg.Session.Dir == "" {
			return errMissingDir
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("%w: set DATABASE_URL", errMissingDSN)
		}
	case BackendMySQL:
		if cfg.MySQLDSN == "" {
			return fmt.Errorf("%w: set MYSQL_DSN", errMissingDSN)
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, cfg.Session.Backend)
	}
	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl: %w", errBadDuration)
	}
	if cfg.Session.GCInterval <= 0 {
		return fmt.Errorf("session.gc_interval: %w", errBadDuration)
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return errBadLogFormat
	}
	return nil
}
