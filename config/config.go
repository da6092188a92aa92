// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads khampha settings from khampha.yaml, the environment
// and defaults, and builds the process logger.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/khampha-vn/khampha/discovery"
	"github.com/khampha-vn/khampha/geo"
	"github.com/khampha-vn/khampha/weather"
)

// EnvPrefix prefixes every environment override, e.g. KHAMPHA_LOG_LEVEL.
const EnvPrefix = "KHAMPHA"

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig          `yaml:"log" mapstructure:"log"`
	Search    discovery.Settings `yaml:"search" mapstructure:"search"`
	Nominatim NominatimConfig    `yaml:"nominatim" mapstructure:"nominatim"`
	Overpass  OverpassConfig     `yaml:"overpass" mapstructure:"overpass"`
	Weather   WeatherConfig      `yaml:"weather" mapstructure:"weather"`
	Cache     CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Store     StoreConfig        `yaml:"store" mapstructure:"store"`
	Server    ServerConfig       `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
	// HTTPDump writes every provider request and response to stderr
	HTTPDump bool `yaml:"http_dump" mapstructure:"http_dump"`
}

// NominatimConfig configures the geocoder.
type NominatimConfig struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string        `yaml:"user_agent" mapstructure:"user_agent"`
	ScopeSuffix string        `yaml:"scope_suffix" mapstructure:"scope_suffix"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// OverpassConfig configures the feature query provider.
type OverpassConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// WeatherConfig configures OpenWeather. An empty key disables weather.
type WeatherConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Units   string        `yaml:"units" mapstructure:"units"`
	Lang    string        `yaml:"lang" mapstructure:"lang"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig configures the redis response cache. An empty Addr disables it.
type CacheConfig struct {
	Addr string        `yaml:"addr" mapstructure:"addr"`
	DB   int           `yaml:"db" mapstructure:"db"`
	TTL  time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// StoreConfig configures the session history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	s := discovery.DefaultSettings()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.http_dump", false)

	v.SetDefault("search.target", s.Target)
	v.SetDefault("search.province_half_extent", s.ProvinceHalfExtent)
	v.SetDefault("search.point_half_extent", s.PointHalfExtent)
	v.SetDefault("search.primary_limit", s.PrimaryLimit)
	v.SetDefault("search.sibling_geocode_limit", s.SiblingGeocodeLimit)
	v.SetDefault("search.sibling_half_extent", s.SiblingHalfExtent)
	v.SetDefault("search.sibling_limit", s.SiblingLimit)
	v.SetDefault("search.province_radius", s.ProvinceRadius)
	v.SetDefault("search.point_radius", s.PointRadius)
	v.SetDefault("search.feature_limit", s.FeatureLimit)
	v.SetDefault("search.more_province_half_extent", s.MoreProvinceHalfExtent)
	v.SetDefault("search.more_point_half_extent", s.MorePointHalfExtent)
	v.SetDefault("search.more_limit", s.MoreLimit)
	v.SetDefault("search.categories", s.Categories)
	v.SetDefault("search.expanded_categories", s.ExpandedCategories)
	v.SetDefault("search.region_match", string(s.RegionMatch))
	v.SetDefault("search.pace_interval", s.PaceInterval)

	v.SetDefault("nominatim.base_url", geo.DefaultNominatimURL)
	v.SetDefault("nominatim.user_agent", "khampha (+https://github.com/khampha-vn/khampha)")
	v.SetDefault("nominatim.scope_suffix", geo.DefaultScopeSuffix)
	v.SetDefault("nominatim.timeout", 15*time.Second)

	v.SetDefault("overpass.url", geo.DefaultOverpassURL)
	v.SetDefault("overpass.timeout", 35*time.Second)

	v.SetDefault("weather.base_url", weather.DefaultBaseURL)
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.units", "metric")
	v.SetDefault("weather.lang", "vi")
	v.SetDefault("weather.timeout", 10*time.Second)

	v.SetDefault("cache.addr", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", geo.DefaultCacheTTL)

	v.SetDefault("store.path", "khampha.duckdb")

	v.SetDefault("server.addr", ":8080")
}

// Load reads the configuration. configFile is optional; when empty,
// khampha.yaml is looked up in the working directory and skipped if absent.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("khampha")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// OpenWeather keys are commonly exported under their own name.
	if err := v.BindEnv("weather.api_key", EnvPrefix+"_WEATHER_API_KEY", "OPENWEATHER_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross field constraints.
func (c *Config) Validate() error {
	if err := c.Search.Validate(); err != nil {
		return eris.Wrap(err, "config: search")
	}

	if strings.TrimSpace(c.Nominatim.UserAgent) == "" {
		return eris.New("config: nominatim.user_agent must not be empty")
	}

	if c.Store.Path == "" {
		return eris.New("config: store.path must not be empty")
	}

	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapCfg.DisableStacktrace = true
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
