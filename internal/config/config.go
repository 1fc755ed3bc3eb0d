// Package config loads server configuration from YAML with environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dmklda/farmandcity-sub002/internal/game"
	"github.com/dmklda/farmandcity-sub002/internal/game/resources"
	"github.com/dmklda/farmandcity-sub002/internal/game/victory"
)

// Config is the root server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig configures the WebSocket listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxSessions     int           `mapstructure:"max_sessions"`
}

// DatabaseConfig configures the PostgreSQL connection pool.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// DSN builds the pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig carries the tunable game balance values.
type GameConfig struct {
	StartingCoins      int     `mapstructure:"starting_coins"`
	StartingFood       int     `mapstructure:"starting_food"`
	StartingMaterials  int     `mapstructure:"starting_materials"`
	StartingPopulation int     `mapstructure:"starting_population"`
	HandLimit          int     `mapstructure:"hand_limit"`
	DrawThreshold      int     `mapstructure:"draw_threshold"`
	BuildLimit         int     `mapstructure:"build_limit"`
	LandmarkLimit      int     `mapstructure:"landmark_limit"`
	TurnLimit          int     `mapstructure:"turn_limit"`
	ReputationGoal     int     `mapstructure:"reputation_goal"`
	CatastropheChance  float64 `mapstructure:"catastrophe_chance"`
	VictoryMode        string  `mapstructure:"victory_mode"`
}

// Settings converts the configuration into engine settings.
func (g GameConfig) Settings() game.Settings {
	return game.Settings{
		StartingResources: resources.Resources{
			Coins:      g.StartingCoins,
			Food:       g.StartingFood,
			Materials:  g.StartingMaterials,
			Population: g.StartingPopulation,
		},
		HandLimit:         g.HandLimit,
		DrawThreshold:     g.DrawThreshold,
		BuildLimit:        g.BuildLimit,
		LandmarkLimit:     g.LandmarkLimit,
		TurnLimit:         g.TurnLimit,
		ReputationGoal:    g.ReputationGoal,
		CatastropheChance: g.CatastropheChance,
		VictoryMode:       victory.Mode(g.VictoryMode),
	}
}

// Load reads configuration from the given YAML file. Every key can be
// overridden by a FARMCITY_ environment variable; a missing file falls
// back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("FARMCITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_sessions", 1000)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "farmcity")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "farmcity")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	defaults := game.DefaultSettings()
	v.SetDefault("game.starting_coins", defaults.StartingResources.Coins)
	v.SetDefault("game.starting_food", defaults.StartingResources.Food)
	v.SetDefault("game.starting_materials", defaults.StartingResources.Materials)
	v.SetDefault("game.starting_population", defaults.StartingResources.Population)
	v.SetDefault("game.hand_limit", defaults.HandLimit)
	v.SetDefault("game.draw_threshold", defaults.DrawThreshold)
	v.SetDefault("game.build_limit", defaults.BuildLimit)
	v.SetDefault("game.landmark_limit", defaults.LandmarkLimit)
	v.SetDefault("game.turn_limit", defaults.TurnLimit)
	v.SetDefault("game.reputation_goal", defaults.ReputationGoal)
	v.SetDefault("game.catastrophe_chance", defaults.CatastropheChance)
	v.SetDefault("game.victory_mode", string(defaults.VictoryMode))
}
