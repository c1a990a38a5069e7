// Package config provides Viper-based configuration loading for the
// skirmish game server.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP/WebSocket server settings.
type ServerConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
	// StaticDir is a directory of static client assets served from the
	// router root. Empty disables static serving.
	StaticDir string `mapstructure:"static_dir"`
	// AllowedOrigins is the CORS origin allowlist. Empty allows all origins,
	// matching the development posture of the browser client.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// SendBuffer is the per-connection outbound event buffer size.
	SendBuffer int `mapstructure:"send_buffer"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GameConfig holds duel tuning parameters.
type GameConfig struct {
	// StartingHealth is each fighter's health at spawn.
	StartingHealth int `mapstructure:"starting_health"`
	// AttackReach is the horizontal reach of an attack in world units.
	AttackReach float64 `mapstructure:"attack_reach"`
	// AttackDamage is the health removed by a connecting attack.
	AttackDamage int `mapstructure:"attack_damage"`
	// StageDir is a directory of stage YAML definitions. Empty uses the
	// built-in default stage.
	StageDir string `mapstructure:"stage_dir"`
	// Stage selects the stage by name when StageDir is set.
	Stage string `mapstructure:"stage"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// LevelConfig holds platform level generator settings.
type LevelConfig struct {
	// Width is the generated level width in tiles.
	Width int `mapstructure:"width"`
	// Height is the generated level height in tiles.
	Height int `mapstructure:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Level   LevelConfig   `mapstructure:"level"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLevel(c.Level); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.SendBuffer < 1 {
		errs = append(errs, fmt.Sprintf("server.send_buffer must be >= 1, got %d", s.SendBuffer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.StartingHealth < 1 {
		errs = append(errs, fmt.Sprintf("game.starting_health must be >= 1, got %d", g.StartingHealth))
	}
	if g.AttackReach <= 0 {
		errs = append(errs, fmt.Sprintf("game.attack_reach must be > 0, got %g", g.AttackReach))
	}
	if g.AttackDamage < 1 {
		errs = append(errs, fmt.Sprintf("game.attack_damage must be >= 1, got %d", g.AttackDamage))
	}
	if g.StageDir == "" && g.Stage != "" {
		errs = append(errs, "game.stage requires game.stage_dir to be set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLevel(l LevelConfig) error {
	var errs []string
	if l.Width < 10 {
		errs = append(errs, fmt.Sprintf("level.width must be >= 10, got %d", l.Width))
	}
	if l.Height < 8 {
		errs = append(errs, fmt.Sprintf("level.height must be >= 8, got %d", l.Height))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SKIRMISH_ prefix
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in configuration used when no file is given.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config unmarshal: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.send_buffer", 64)

	v.SetDefault("game.starting_health", 100)
	v.SetDefault("game.attack_reach", 60.0)
	v.SetDefault("game.attack_damage", 20)

	v.SetDefault("level.width", 30)
	v.SetDefault("level.height", 15)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
