package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Places PlacesConfig `yaml:"places" mapstructure:"places"`
	Census CensusConfig `yaml:"census" mapstructure:"census"`
	Storms StormsConfig `yaml:"storms" mapstructure:"storms"`
	Radar  RadarConfig  `yaml:"radar" mapstructure:"radar"`
	Tracts TractsConfig `yaml:"tracts" mapstructure:"tracts"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the cache and rate-limit counter backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // memory, postgres, redis, sqlite
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	RedisAddr   string `yaml:"redis_addr" mapstructure:"redis_addr"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CensusConfig holds Census geocoder and ACS API settings.
type CensusConfig struct {
	Key             string `yaml:"key" mapstructure:"key"`
	GeocoderBaseURL string `yaml:"geocoder_base_url" mapstructure:"geocoder_base_url"`
	ACSBaseURL      string `yaml:"acs_base_url" mapstructure:"acs_base_url"`
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	GeocodeWorkers  int    `yaml:"geocode_workers" mapstructure:"geocode_workers"`
	TractWorkers    int    `yaml:"tract_workers" mapstructure:"tract_workers"`
}

// StormsConfig holds NOAA storm event API settings.
type StormsConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	LookbackYrs int    `yaml:"lookback_years" mapstructure:"lookback_years"`
}

// RadarConfig configures the search pipeline itself.
type RadarConfig struct {
	MaxResults    int     `yaml:"max_results" mapstructure:"max_results"`
	CacheTTLHours int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	DailyLimit    int     `yaml:"daily_limit" mapstructure:"daily_limit"`
	DefaultLat    float64 `yaml:"default_lat" mapstructure:"default_lat"`
	DefaultLng    float64 `yaml:"default_lng" mapstructure:"default_lng"`
}

// TractsConfig configures the optional local TIGER tract index.
type TractsConfig struct {
	ShapefileDir string `yaml:"shapefile_dir" mapstructure:"shapefile_dir"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.sqlite_path", "radar.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.rate_per_sec", 10)
	v.SetDefault("places.timeout_secs", 10)
	v.SetDefault("census.geocoder_base_url", "https://geocoding.geo.census.gov/geocoder")
	v.SetDefault("census.acs_base_url", "https://api.census.gov/data")
	v.SetDefault("census.timeout_secs", 10)
	v.SetDefault("census.geocode_workers", 60)
	v.SetDefault("census.tract_workers", 30)
	v.SetDefault("storms.base_url", "https://www.ncei.noaa.gov/access/services/search/v1")
	v.SetDefault("storms.timeout_secs", 10)
	v.SetDefault("storms.lookback_years", 2)
	v.SetDefault("radar.max_results", 300)
	v.SetDefault("radar.cache_ttl_hours", 6)
	v.SetDefault("radar.daily_limit", 25)
	v.SetDefault("radar.default_lat", 39.4143)
	v.SetDefault("radar.default_lng", -77.4105)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// validDrivers is the set of accepted store.driver values.
var validDrivers = map[string]bool{
	"memory":   true,
	"postgres": true,
	"redis":    true,
	"sqlite":   true,
}

// Validate checks that the configuration is usable for the given mode
// ("serve" or "search"). It collects all problems into one error.
func (c *Config) Validate(mode string) error {
	var problems []string

	if !validDrivers[c.Store.Driver] {
		problems = append(problems, fmt.Sprintf("store.driver %q is not one of memory, postgres, redis, sqlite", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for the postgres driver")
	}
	if c.Store.Driver == "sqlite" && c.Store.SQLitePath == "" {
		problems = append(problems, "store.sqlite_path is required for the sqlite driver")
	}
	if c.Radar.MaxResults < 1 || c.Radar.MaxResults > 1000 {
		problems = append(problems, "radar.max_results must be between 1 and 1000")
	}
	if c.Radar.DailyLimit < 0 {
		problems = append(problems, "radar.daily_limit must be >= 0")
	}
	if c.Census.GeocodeWorkers < 1 || c.Census.TractWorkers < 1 {
		problems = append(problems, "census worker counts must be >= 1")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "search":
		// No extra requirements beyond the common ones.
	default:
		problems = append(problems, fmt.Sprintf("unknown mode %q", mode))
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
