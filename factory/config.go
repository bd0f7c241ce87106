package factory

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/violations"
)

// EnvPrefix prefixes environment overrides. OT_ENGINE__WEEKLY_MAX=55 sets
// engine.weekly_max.
const EnvPrefix = "OT_"

// Config is the whole service configuration.
type Config struct {
	Engine     EngineConfig    `json:"engine"`
	Exclusions ExclusionConfig `json:"exclusions"`
	Server     ServerConfig    `json:"server"`
	Store      StoreConfig     `json:"store"`
	Logging    LoggingConfig   `json:"logging"`
	Schedule   ScheduleConfig  `json:"schedule"`
}

// EngineConfig carries the contract thresholds in hours.
type EngineConfig struct {
	OvertimeThreshold float64 `json:"overtime_threshold"`
	OwnRouteLimit     float64 `json:"own_route_limit"`
	DailyMax          float64 `json:"daily_max"`
	WeeklyMax         float64 `json:"weekly_max"`
	FifthDayOrdinal   int     `json:"fifth_day_ordinal"`
	DefaultOTDLLimit  float64 `json:"default_otdl_limit"`
	MoveSanity        float64 `json:"move_sanity"`
	WeekStart         string  `json:"week_start"`
}

// ExclusionConfig lists exclusion periods inline, or points at a calendar
// document. Both may be set; their periods must not overlap. Quote dates in
// YAML so they stay strings.
type ExclusionConfig struct {
	File    string           `json:"file"`
	Periods []PeriodDocument `json:"periods"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// StoreConfig selects the persistence backend: "sqlite" or "memory".
type StoreConfig struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
}

type LoggingConfig struct {
	Level string `json:"level"`
}

// ScheduleConfig drives periodic re-evaluation of recent service weeks.
// LookbackWeeks counts previous weeks; zero means one.
type ScheduleConfig struct {
	Enabled       bool   `json:"enabled"`
	Interval      string `json:"interval"`
	LookbackWeeks int    `json:"lookback_weeks"`
}

// =============================================================================
// LOADING
// =============================================================================

// Default returns a configuration with every section defaulted.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// LoadConfig reads a YAML or JSON file, applies OT_ environment overrides,
// fills defaults and validates. An empty path loads defaults plus
// environment only.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, &generic.ConfigurationError{Field: "config", Message: fmt.Sprintf("unsupported config format: %s", ext)}
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, &generic.ConfigurationError{Field: "config", Message: err.Error()}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) SetDefaults() {
	c.Engine.SetDefaults()
	c.Server.SetDefaults()
	c.Store.SetDefaults()
	c.Logging.SetDefaults()
	c.Schedule.SetDefaults()
}

func (c *Config) Validate() error {
	if _, err := c.Engine.Violations(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return c.Schedule.Validate()
}

// =============================================================================
// SECTIONS
// =============================================================================

func (c *EngineConfig) SetDefaults() {
	d := violations.DefaultConfig()
	setFloat := func(v *float64, def decimal.Decimal) {
		if *v == 0 {
			*v = def.InexactFloat64()
		}
	}
	setFloat(&c.OvertimeThreshold, d.OvertimeThreshold)
	setFloat(&c.OwnRouteLimit, d.OwnRouteLimit)
	setFloat(&c.DailyMax, d.DailyMax)
	setFloat(&c.WeeklyMax, d.WeeklyMax)
	setFloat(&c.DefaultOTDLLimit, d.DefaultOTDLLimit)
	setFloat(&c.MoveSanity, d.MoveSanity)
	if c.FifthDayOrdinal == 0 {
		c.FifthDayOrdinal = d.FifthDayOrdinal
	}
	if c.WeekStart == "" {
		c.WeekStart = strings.ToLower(d.WeekStart.String())
	}
}

// Violations converts the section into validated engine thresholds.
func (c EngineConfig) Violations() (violations.Config, error) {
	ws, ok := generic.ParseWeekday(c.WeekStart)
	if !ok {
		return violations.Config{}, &generic.ConfigurationError{Field: "engine.week_start", Message: fmt.Sprintf("unknown weekday %q", c.WeekStart)}
	}
	cfg := violations.Config{
		OvertimeThreshold: decimal.NewFromFloat(c.OvertimeThreshold),
		OwnRouteLimit:     decimal.NewFromFloat(c.OwnRouteLimit),
		DailyMax:          decimal.NewFromFloat(c.DailyMax),
		WeeklyMax:         decimal.NewFromFloat(c.WeeklyMax),
		FifthDayOrdinal:   c.FifthDayOrdinal,
		DefaultOTDLLimit:  decimal.NewFromFloat(c.DefaultOTDLLimit),
		MoveSanity:        decimal.NewFromFloat(c.MoveSanity),
		WeekStart:         ws,
	}
	if err := cfg.Validate(); err != nil {
		return violations.Config{}, err
	}
	return cfg, nil
}

// Calendar builds the exclusion calendar from the file and inline periods.
func (c ExclusionConfig) Calendar() (*exclusion.Calendar, error) {
	doc := CalendarDocument{Periods: append([]PeriodDocument(nil), c.Periods...)}
	if c.File != "" {
		fromFile, err := LoadCalendarFile(c.File)
		if err != nil {
			return nil, err
		}
		doc.Periods = append(doc.Periods, DocumentOf(fromFile).Periods...)
	}
	return doc.Calendar()
}

func (c *ServerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

func (c ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &generic.ConfigurationError{Field: "server.port", Message: fmt.Sprintf("%d is not a valid port", c.Port)}
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c ServerConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c *StoreConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.Driver == "sqlite" && c.Path == "" {
		c.Path = "overtime.db"
	}
}

func (c StoreConfig) Validate() error {
	switch c.Driver {
	case "sqlite", "memory":
		return nil
	}
	return &generic.ConfigurationError{Field: "store.driver", Message: fmt.Sprintf("unknown driver %q", c.Driver)}
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return &generic.ConfigurationError{Field: "logging.level", Message: err.Error()}
	}
	return nil
}

func (c *ScheduleConfig) SetDefaults() {
	if c.Interval == "" {
		c.Interval = "1h"
	}
	if c.LookbackWeeks == 0 {
		c.LookbackWeeks = 1
	}
}

func (c ScheduleConfig) Validate() error {
	if _, err := c.Every(); err != nil {
		return err
	}
	if c.LookbackWeeks < 0 {
		return &generic.ConfigurationError{Field: "schedule.lookback_weeks", Message: "must not be negative"}
	}
	return nil
}

// Every parses Interval. Intervals under a minute are rejected.
func (c ScheduleConfig) Every() (time.Duration, error) {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, &generic.ConfigurationError{Field: "schedule.interval", Message: err.Error()}
	}
	if d < time.Minute {
		return 0, &generic.ConfigurationError{Field: "schedule.interval", Message: fmt.Sprintf("%v is shorter than a minute", d)}
	}
	return d, nil
}
