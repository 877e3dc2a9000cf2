// Package config loads game settings from a file and TOUCHLINE_*
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/talgya/touchline/internal/finance"
	"github.com/talgya/touchline/internal/league"
)

// Config represents the complete application configuration
type Config struct {
	Game    GameConfig    `mapstructure:"game"`
	Finance FinanceConfig `mapstructure:"finance"`
	Storage StorageConfig `mapstructure:"storage"`
	Scout   ScoutConfig   `mapstructure:"scout"`
	Entropy EntropyConfig `mapstructure:"entropy"`
	Feed    FeedConfig    `mapstructure:"feed"`
	API     APIConfig     `mapstructure:"api"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// GameConfig describes a new game.
type GameConfig struct {
	Seed             int64    `mapstructure:"seed"` // 0 = derive from the clock
	UserClub         string   `mapstructure:"user_club"`
	UserDivision     int      `mapstructure:"user_division"`
	ClubsPerDivision int      `mapstructure:"clubs_per_division"`
	FreeAgents       int      `mapstructure:"free_agents"`
	Rivals           []string `mapstructure:"rivals"`
}

// FinanceConfig holds the weekly ledger rates.
type FinanceConfig struct {
	TicketPrice        float64 `mapstructure:"ticket_price"`
	SponsorPerTier     float64 `mapstructure:"sponsor_per_tier"`
	WageRate           float64 `mapstructure:"wage_rate"`
	MaintenancePerSeat float64 `mapstructure:"maintenance_per_seat"`
	AISubsidyPerTier   float64 `mapstructure:"ai_subsidy_per_tier"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	Path          string `mapstructure:"path"`
	KeepSnapshots int    `mapstructure:"keep_snapshots"`
}

// ScoutConfig holds the scouting service configuration.
type ScoutConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxPerMinute int           `mapstructure:"max_per_minute"`
}

// EntropyConfig selects the random source for unseeded games.
type EntropyConfig struct {
	RandomOrgKey string `mapstructure:"random_org_key"`
}

// FeedConfig holds the week-report feed configuration.
type FeedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	NATSURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
	Retain  int    `mapstructure:"retain"`
}

// APIConfig holds the HTTP server configuration.
type APIConfig struct {
	Port     int    `mapstructure:"port"`
	AdminKey string `mapstructure:"admin_key"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultRivals are the AI club names, enough for eight clubs in each of
// three divisions.
var DefaultRivals = []string{
	"Iron Citadel", "Storm Riders", "Shadow Wolves", "Crimson Kings", "Azure Titans",
	"Golden Eagles", "Neon Knights", "Void Walkers", "Apex Predators", "Cyber Dragons",
	"Stellar United", "Thunder Vale", "Obsidian Athletic", "Harbour Rovers", "Emerald City",
	"Granite Town", "Silver Stags", "Northern Lights", "Royal Tide", "Ember Rangers",
	"Coastal Albion", "Frontier Wanderers", "Highland Spartans",
}

// Load reads configuration from file and environment variables. An empty
// path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TOUCHLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.user_club", "Touchline FC")
	v.SetDefault("game.user_division", 3)
	v.SetDefault("game.clubs_per_division", 8)
	v.SetDefault("game.free_agents", 20)
	v.SetDefault("game.rivals", DefaultRivals)

	v.SetDefault("finance.ticket_price", 20)
	v.SetDefault("finance.sponsor_per_tier", 150000)
	v.SetDefault("finance.wage_rate", 0.005)
	v.SetDefault("finance.maintenance_per_seat", 1)
	v.SetDefault("finance.ai_subsidy_per_tier", 50000)

	v.SetDefault("storage.path", "./data/touchline.db")
	v.SetDefault("storage.keep_snapshots", 20)

	v.SetDefault("scout.api_key", "")
	v.SetDefault("scout.model", "claude-haiku-4-5-20251001")
	v.SetDefault("scout.timeout", "30s")
	v.SetDefault("scout.max_per_minute", 20)

	v.SetDefault("entropy.random_org_key", "")

	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.nats_url", "nats://127.0.0.1:4222")
	v.SetDefault("feed.subject", "touchline.weeks")
	v.SetDefault("feed.retain", 100)

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.admin_key", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Game.UserClub) == "" {
		return fmt.Errorf("game.user_club is required")
	}
	if c.Game.UserDivision < 1 || c.Game.UserDivision > 3 {
		return fmt.Errorf("game.user_division must be between 1 and 3")
	}
	if c.Game.ClubsPerDivision < 2 || c.Game.ClubsPerDivision%2 != 0 {
		return fmt.Errorf("game.clubs_per_division must be an even number of at least 2")
	}
	if c.Game.FreeAgents < 0 {
		return fmt.Errorf("game.free_agents must not be negative")
	}

	if c.Finance.TicketPrice < 0 || c.Finance.SponsorPerTier < 0 || c.Finance.MaintenancePerSeat < 0 || c.Finance.AISubsidyPerTier < 0 {
		return fmt.Errorf("finance rates must not be negative")
	}
	if c.Finance.WageRate < 0 || c.Finance.WageRate > 1 {
		return fmt.Errorf("finance.wage_rate must be between 0.0 and 1.0")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Storage.KeepSnapshots < 1 {
		return fmt.Errorf("storage.keep_snapshots must be at least 1")
	}

	if c.Scout.APIKey != "" {
		if c.Scout.Timeout < time.Second {
			return fmt.Errorf("scout.timeout must be at least 1 second")
		}
		if c.Scout.MaxPerMinute < 1 {
			return fmt.Errorf("scout.max_per_minute must be at least 1")
		}
	}

	if c.Feed.Enabled {
		if c.Feed.NATSURL == "" {
			return fmt.Errorf("feed.nats_url is required when feed is enabled")
		}
		if c.Feed.Subject == "" {
			return fmt.Errorf("feed.subject is required when feed is enabled")
		}
	}

	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 0 and 65535")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}
	return nil
}

// Ledger converts the finance rates into a ledger.
func (f FinanceConfig) Ledger() finance.Ledger {
	return finance.Ledger{
		TicketPrice:        decimal.NewFromFloat(f.TicketPrice),
		SponsorPerTier:     decimal.NewFromFloat(f.SponsorPerTier),
		WageRate:           decimal.NewFromFloat(f.WageRate),
		MaintenancePerSeat: decimal.NewFromFloat(f.MaintenancePerSeat),
		AISubsidyPerTier:   decimal.NewFromFloat(f.AISubsidyPerTier),
	}
}

// Setup converts the game section into a new-game setup.
func (g GameConfig) Setup(seed int64) league.Setup {
	return league.Setup{
		UserClub:         g.UserClub,
		UserDivision:     g.UserDivision,
		ClubsPerDivision: g.ClubsPerDivision,
		Rivals:           g.Rivals,
		FreeAgents:       g.FreeAgents,
		Seed:             seed,
	}
}
