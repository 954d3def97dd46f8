package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/codstats/internal/domain/match"
	"github.com/riskibarqy/codstats/internal/platform/logging"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"

	// SettingsPathEnv points at the settings file when no path is passed explicitly.
	SettingsPathEnv = "CST_SETTINGS_PATH"

	envPrefix = "CST"
)

// Config stores runtime configuration for the poller.
type Config struct {
	Env            string          `mapstructure:"env" validate:"oneof=dev stage prod"`
	ServiceName    string          `mapstructure:"service_name" validate:"required"`
	ServiceVersion string          `mapstructure:"service_version"`
	LogLevelName   string          `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	DB             DBConfig        `mapstructure:"db"`
	API            APIConfig       `mapstructure:"api"`
	Poller         PollerConfig    `mapstructure:"poller"`
	PlayersToPoll  []RosterEntry   `mapstructure:"players_to_poll" validate:"dive"`
	Uptrace        UptraceConfig   `mapstructure:"uptrace"`
	Pyroscope      PyroscopeConfig `mapstructure:"pyroscope"`

	LogLevel logging.Level `mapstructure:"-"`
	Targets  []Target      `mapstructure:"-"`
}

type DBConfig struct {
	URI              string `mapstructure:"uri" validate:"required"`
	LogFile          string `mapstructure:"log_file"`
	MatchLogs        bool   `mapstructure:"match_logs"`
	BinaryParameters bool   `mapstructure:"binary_parameters"`
	MaxOpenConns     int    `mapstructure:"max_open_conns" validate:"min=0"`
}

type APIConfig struct {
	AuthCookie  string        `mapstructure:"auth_cookie"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0"`
	TrackSource bool          `mapstructure:"track_source"`
	NotFoundTTL time.Duration `mapstructure:"not_found_ttl" validate:"min=0"`
	Circuit     CircuitConfig `mapstructure:"circuit"`
}

type CircuitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	FailureCount   int           `mapstructure:"failure_count" validate:"min=1"`
	OpenTimeout    time.Duration `mapstructure:"open_timeout" validate:"gt=0"`
	HalfOpenMaxReq int           `mapstructure:"half_open_max_req" validate:"min=1"`
}

type PollerConfig struct {
	FetchWorkers int    `mapstructure:"fetch_workers" validate:"min=1"`
	Schedule     string `mapstructure:"schedule"`
}

// RosterEntry is one raw players_to_poll item, e.g. {game: "mw:wz", player: "battle:nick#1234"}.
type RosterEntry struct {
	Game   string `mapstructure:"game" validate:"required"`
	Player string `mapstructure:"player" validate:"required"`
}

// Target is a parsed roster entry.
type Target struct {
	Game   match.Game
	Player match.PlayerID
}

type UptraceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

type PyroscopeConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	ServerAddress string        `mapstructure:"server_address"`
	AppName       string        `mapstructure:"app_name"`
	AuthToken     string        `mapstructure:"auth_token"`
	UploadRate    time.Duration `mapstructure:"upload_rate" validate:"gt=0"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", EnvDev)
	v.SetDefault("service_name", "codstats-poller")
	v.SetDefault("service_version", "dev")
	v.SetDefault("log_level", "info")

	v.SetDefault("db.uri", "")
	v.SetDefault("db.log_file", "")
	v.SetDefault("db.match_logs", false)
	v.SetDefault("db.binary_parameters", true)
	v.SetDefault("db.max_open_conns", 4)

	v.SetDefault("api.auth_cookie", "")
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", "20s")
	v.SetDefault("api.max_retries", 1)
	v.SetDefault("api.track_source", false)
	v.SetDefault("api.not_found_ttl", "1h")
	v.SetDefault("api.circuit.enabled", true)
	v.SetDefault("api.circuit.failure_count", 5)
	v.SetDefault("api.circuit.open_timeout", "30s")
	v.SetDefault("api.circuit.half_open_max_req", 1)

	v.SetDefault("poller.fetch_workers", 1)
	v.SetDefault("poller.schedule", "")

	v.SetDefault("uptrace.enabled", false)
	v.SetDefault("uptrace.dsn", "")

	v.SetDefault("pyroscope.enabled", false)
	v.SetDefault("pyroscope.server_address", "")
	v.SetDefault("pyroscope.app_name", "")
	v.SetDefault("pyroscope.auth_token", "")
	v.SetDefault("pyroscope.upload_rate", "15s")
}

// Load reads settings from settingsPath (or CST_SETTINGS_PATH when empty) and
// applies CST_<SECTION>__<KEY> environment overrides on top. A .env file in the
// working directory is loaded first when present.
func Load(settingsPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	path := strings.TrimSpace(settingsPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(SettingsPathEnv))
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	env, err := parseAppEnv(c.Env)
	if err != nil {
		return err
	}
	c.Env = env
	c.LogLevelName = strings.ToLower(strings.TrimSpace(c.LogLevelName))
	c.DB.URI = strings.TrimSpace(c.DB.URI)
	c.API.BaseURL = strings.TrimSpace(c.API.BaseURL)
	c.API.AuthCookie = strings.TrimSpace(c.API.AuthCookie)
	c.Poller.Schedule = strings.TrimSpace(c.Poller.Schedule)

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}
	c.LogLevel = parseLogLevel(c.LogLevelName)

	if c.Uptrace.DSN == "" {
		c.Uptrace.DSN = parseUptraceDSNFromOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	}
	if c.Uptrace.Enabled && c.Uptrace.DSN == "" {
		return fmt.Errorf("uptrace.dsn is required when uptrace.enabled=true")
	}

	if c.Pyroscope.AppName == "" {
		c.Pyroscope.AppName = c.ServiceName
	}
	if c.Pyroscope.Enabled && strings.TrimSpace(c.Pyroscope.ServerAddress) == "" {
		return fmt.Errorf("pyroscope.server_address is required when pyroscope.enabled=true")
	}

	if c.Poller.Schedule != "" {
		if _, err := cron.ParseStandard(c.Poller.Schedule); err != nil {
			return fmt.Errorf("parse poller.schedule %q: %w", c.Poller.Schedule, err)
		}
	}

	targets, err := parseRoster(c.PlayersToPoll)
	if err != nil {
		return err
	}
	c.Targets = targets
	return nil
}

// RequireAPI reports whether the settings can reach the upstream API.
func (c Config) RequireAPI() error {
	if c.API.AuthCookie == "" {
		return fmt.Errorf("api.auth_cookie is required to poll")
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("players_to_poll cannot be empty")
	}
	return nil
}

func parseRoster(entries []RosterEntry) ([]Target, error) {
	out := make([]Target, 0, len(entries))
	for i, entry := range entries {
		game, err := match.ParseGame(entry.Game)
		if err != nil {
			return nil, fmt.Errorf("parse players_to_poll[%d]: %w", i, err)
		}
		player, err := match.ParsePlayerID(entry.Player)
		if err != nil {
			return nil, fmt.Errorf("parse players_to_poll[%d]: %w", i, err)
		}
		out = append(out, Target{Game: game, Player: player})
	}
	return out, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(value), "\"'")
		}
	}
	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid env %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
