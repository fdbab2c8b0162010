package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/reyhansunduk/efatura-mcp-server/internal/credentials"
)

// Environment keys
const (
	KeyUsername    = "GIB_USERNAME"
	KeyPassword    = "GIB_PASSWORD"
	KeyEnvironment = "GIB_ENVIRONMENT"
	KeyEndpoint    = "GIB_ENDPOINT"
	KeyTimeout     = "GIB_TIMEOUT"
	KeyAutoSign    = "GIB_AUTO_SIGN"
	KeyLogLevel    = "LOG_LEVEL"
	KeyLogFormat   = "LOG_FORMAT"
)

// DefaultTimeout bounds every call to the GİB service
const DefaultTimeout = 30 * time.Second

// DefaultEnvFile is read when present; a missing file is not an error
const DefaultEnvFile = ".env"

// Config is built once at startup and passed by value.
type Config struct {
	Credentials credentials.Credentials
	// DeclaredEnvironment is GIB_ENVIRONMENT exactly as configured.
	DeclaredEnvironment string
	// EnvironmentKnown is false when DeclaredEnvironment is neither test nor production.
	EnvironmentKnown bool
	Endpoint         string
	Timeout          time.Duration
	AutoSign         bool
	Log              LogConfig
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// Options controls where Load reads from
type Options struct {
	// EnvFile is a dotenv file. Variables already set in the process win.
	EnvFile string
	// ConfigFile is an optional YAML/JSON/TOML file with the same keys.
	ConfigFile string
}

// Load resolves configuration from the process environment, an optional
// dotenv file and an optional config file, in that order of precedence.
func Load(opts Options) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(strings.ToLower(KeyTimeout), DefaultTimeout.String())
	v.SetDefault(strings.ToLower(KeyAutoSign), false)
	v.SetDefault(strings.ToLower(KeyLogLevel), "info")
	v.SetDefault(strings.ToLower(KeyLogFormat), "json")

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read env file %s: %w", envFile, err)
	}
	// Defaults rank below both the process environment and the config file.
	for key, value := range dotenv {
		v.SetDefault(strings.ToLower(key), value)
	}

	declared := strings.TrimSpace(v.GetString(strings.ToLower(KeyEnvironment)))
	env, known := credentials.ParseEnvironment(declared)

	timeout, err := parseTimeout(v.GetString(strings.ToLower(KeyTimeout)))
	if err != nil {
		return Config{}, err
	}

	autoSign, err := parseBool(v.GetString(strings.ToLower(KeyAutoSign)))
	if err != nil {
		return Config{}, err
	}

	return Config{
		Credentials: credentials.Credentials{
			Username:    strings.TrimSpace(v.GetString(strings.ToLower(KeyUsername))),
			Password:    v.GetString(strings.ToLower(KeyPassword)),
			Environment: env,
		},
		DeclaredEnvironment: declared,
		EnvironmentKnown:    known,
		Endpoint:            strings.TrimSpace(v.GetString(strings.ToLower(KeyEndpoint))),
		Timeout:             timeout,
		AutoSign:            autoSign,
		Log: LogConfig{
			Level:  v.GetString(strings.ToLower(KeyLogLevel)),
			Format: v.GetString(strings.ToLower(KeyLogFormat)),
		},
	}, nil
}

// parseTimeout accepts Go durations ("45s", "1m") or a bare number of seconds
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultTimeout, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		raw = fmt.Sprintf("%ds", secs)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", KeyTimeout, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", KeyTimeout, raw)
	}
	return d, nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "no", "off":
		return false, nil
	case "1", "true", "yes", "on":
		return true, nil
	default:
		return false, fmt.Errorf("invalid %s %q: expected a boolean", KeyAutoSign, raw)
	}
}
