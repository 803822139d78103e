// Package config loads controller settings from configs/config.yml,
// overridable through DEVICE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"device_controller/internal/logger"
	"device_controller/internal/panel"
	"device_controller/internal/ports"
	"device_controller/internal/thermostat"

	"github.com/spf13/viper"
)

const envPrefix = "DEVICE"

type Config struct {
	Port       string
	Log        Log
	DBPath     string
	Location   *time.Location
	Auth       Auth
	Simulator  Simulator
	Thermostat Thermostat
	Panel      Panel
}

type Log struct {
	Level  string
	Format string
	Output string // stdout or stderr
}

type Auth struct {
	SigningKey string
	TokenTTL   time.Duration
}

type Simulator struct {
	Enabled  bool
	Tick     time.Duration // wall time between samples
	HourStep time.Duration // simulated time per sample
}

type Thermostat struct {
	Name string
	thermostat.Config
}

type Panel struct {
	Name       string
	Secret     string
	SecretHash string
	Keypad     bool // read keypad input from stdin
	panel.Config
}

var (
	errNoSecret    = errors.New("config: panel.secret or panel.secret_hash is required")
	errSigningKey  = errors.New("config: auth.signing_key is required")
	errTokenTTL    = errors.New("config: auth.token_ttl must be positive")
	errSimTick     = errors.New("config: simulator.tick and simulator.hour_step must be positive")
	errDeviceNames = errors.New("config: device names must be set and distinct")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", logger.InfoLevel)
	v.SetDefault("log.format", logger.FormatConsole)
	v.SetDefault("log.output", "stdout")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("timezone", "Local")

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("simulator.enabled", true)
	v.SetDefault("simulator.tick", time.Second)
	v.SetDefault("simulator.hour_step", 10*time.Minute)

	th := thermostat.DefaultConfig()
	v.SetDefault("thermostat.name", "thermostat-1")
	v.SetDefault("thermostat.low_c", th.LowC)
	v.SetDefault("thermostat.high_c", th.HighC)
	v.SetDefault("thermostat.sleep_start_hour", th.SleepStartHour)
	v.SetDefault("thermostat.wake_hour", th.WakeHour)

	pn := panel.DefaultConfig()
	v.SetDefault("panel.name", "panel-1")
	v.SetDefault("panel.secret", "")
	v.SetDefault("panel.secret_hash", "")
	v.SetDefault("panel.keypad", false)
	v.SetDefault("panel.credential_length", pn.CredentialLength)
	v.SetDefault("panel.attempt_limit", pn.AttemptLimit)
	v.SetDefault("panel.lockout_delay", pn.LockoutDelay)
	v.SetDefault("panel.functions", pn.Functions)
}

// Load reads config.yml from dir (if present) and the environment.
// A missing file is not an error; every key has a default.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("config: timezone: %w", err)
	}
	cfg := &Config{
		Port: v.GetString("port"),
		Log: Log{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
			Output: strings.ToLower(v.GetString("log.output")),
		},
		DBPath:   v.GetString("db.path"),
		Location: loc,
		Auth: Auth{
			SigningKey: v.GetString("auth.signing_key"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
		},
		Simulator: Simulator{
			Enabled:  v.GetBool("simulator.enabled"),
			Tick:     v.GetDuration("simulator.tick"),
			HourStep: v.GetDuration("simulator.hour_step"),
		},
		Thermostat: Thermostat{
			Name: v.GetString("thermostat.name"),
			Config: thermostat.Config{
				LowC:           v.GetInt("thermostat.low_c"),
				HighC:          v.GetInt("thermostat.high_c"),
				SleepStartHour: v.GetInt("thermostat.sleep_start_hour"),
				WakeHour:       v.GetInt("thermostat.wake_hour"),
			},
		},
		Panel: Panel{
			Name:       v.GetString("panel.name"),
			Secret:     v.GetString("panel.secret"),
			SecretHash: v.GetString("panel.secret_hash"),
			Keypad:     v.GetBool("panel.keypad"),
			Config: panel.Config{
				CredentialLength: v.GetInt("panel.credential_length"),
				AttemptLimit:     v.GetInt("panel.attempt_limit"),
				LockoutDelay:     v.GetDuration("panel.lockout_delay"),
				Functions:        v.GetInt("panel.functions"),
			},
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("config: unknown log.level %q", c.Log.Level)
	}
	if !logger.ValidFormat(c.Log.Format) {
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	if c.Log.Output != "stdout" && c.Log.Output != "stderr" {
		return fmt.Errorf("config: log.output must be stdout or stderr, got %q", c.Log.Output)
	}
	if c.Auth.SigningKey == "" {
		return errSigningKey
	}
	if c.Auth.TokenTTL <= 0 {
		return errTokenTTL
	}
	if c.Simulator.Tick <= 0 || c.Simulator.HourStep <= 0 {
		return errSimTick
	}
	if c.Thermostat.Name == "" || c.Panel.Name == "" || c.Thermostat.Name == c.Panel.Name {
		return errDeviceNames
	}
	if err := c.Thermostat.Config.Validate(); err != nil {
		return err
	}
	if err := c.Panel.Config.Validate(); err != nil {
		return err
	}
	if c.Panel.Secret == "" && c.Panel.SecretHash == "" {
		return errNoSecret
	}
	if c.Panel.Secret != "" && len([]rune(c.Panel.Secret)) != c.Panel.CredentialLength {
		return fmt.Errorf("config: panel.secret must be %d characters", c.Panel.CredentialLength)
	}
	return nil
}

// CredentialStore builds the panel's verifier, preferring the bcrypt hash.
func (c *Config) CredentialStore() (ports.CredentialStore, error) {
	if c.Panel.SecretHash != "" {
		s, err := ports.NewHashedSecret(c.Panel.SecretHash)
		if err != nil {
			return nil, fmt.Errorf("config: panel.secret_hash: %w", err)
		}
		return s, nil
	}
	s, err := ports.NewStaticSecret(c.Panel.Secret)
	if err != nil {
		return nil, fmt.Errorf("config: panel.secret: %w", err)
	}
	return s, nil
}

// LoggerOptions maps the log section onto logger options.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Output: logger.OutputFor(c.Log.Output),
	}
}
