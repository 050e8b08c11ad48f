package config

import (
	"fmt"
	"os"
	"sort"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Redis        RedisConfig        `yaml:"redis"`
	MySQL        MySQLConfig        `yaml:"mysql"`
	Queue        QueueConfig        `yaml:"queue"`
	Logger       LoggerConfig       `yaml:"logger"`
	Engine       EngineConfig       `yaml:"engine"`
	Jobs         JobsConfig         `yaml:"jobs"`
	Notification NotificationConfig `yaml:"notification"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port   int    `yaml:"port"`
	Mode   string `yaml:"mode"`    // debug, release
	APIKey string `yaml:"api_key"` // API key for client authentication (optional, if empty, auth is disabled)
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// AutoMigrate creates/updates tables on startup
	AutoMigrate bool `yaml:"auto_migrate"`
}

// QueueConfig notification queue configuration
type QueueConfig struct {
	Enabled     bool `yaml:"enabled"`
	Concurrency int  `yaml:"concurrency"`  // queue processing concurrency
	MaxRetry    int  `yaml:"max_retry"`    // maximum delivery retry count
	TaskTimeout int  `yaml:"task_timeout"` // delivery timeout (seconds)
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// PenaltyTier maps a minute threshold to an XP deduction.
// For cancellation tiers MinMinutes is the minimum lead time, for delay tiers it is the minimum lateness.
type PenaltyTier struct {
	MinMinutes int    `yaml:"min_minutes"`
	XP         int64  `yaml:"xp"`
	Label      string `yaml:"label"`
}

// StreakMilestone awards bonus XP when a streak reaches Days
type StreakMilestone struct {
	Days    int   `yaml:"days"`
	BonusXP int64 `yaml:"bonus_xp"`
}

// EngineConfig offer lifecycle rules
type EngineConfig struct {
	Timezone          string            `yaml:"timezone"`           // IANA zone used to interpret offer dates/times
	ArrivalLead       time.Duration     `yaml:"arrival_lead"`       // how early before start arrival may be confirmed
	GeofenceRadiusKm  float64           `yaml:"geofence_radius_km"` // max distance to offer location on arrival
	GPSStaleAfter     time.Duration     `yaml:"gps_stale_after"`    // current position older than this is inactive
	CancellationTiers []PenaltyTier     `yaml:"cancellation_tiers"` // keyed by lead time
	DelayTiers        []PenaltyTier     `yaml:"delay_tiers"`        // keyed by lateness
	LevelThresholds   []int64           `yaml:"level_thresholds"`   // ascending total XP per level, first must be 0
	CompletionXP      int64             `yaml:"completion_xp"`      // awarded per fulfilled assignment
	StreakMilestones  []StreakMilestone `yaml:"streak_milestones"`
}

// JobsConfig background job intervals
type JobsConfig struct {
	OfferExpiryInterval      time.Duration `yaml:"offer_expiry_interval"`
	CompletionSettleInterval time.Duration `yaml:"completion_settle_interval"`
	PenaltyReconcileInterval time.Duration `yaml:"penalty_reconcile_interval"`
}

// NotificationConfig outbound event delivery
type NotificationConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := Load(configPath)
	if err != nil {
		return err
	}

	GlobalConfig = cfg
	return nil
}

// Load reads a YAML file and applies defaults for missing or invalid values
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML bytes and applies defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	validateAndApplyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a fully populated configuration
func Default() *Config {
	cfg := &Config{}
	validateAndApplyDefaults(cfg)
	return cfg
}

// DefaultEngineConfig returns the reference lifecycle rules
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Timezone:         "UTC",
		ArrivalLead:      30 * time.Minute,
		GeofenceRadiusKm: 1.0,
		GPSStaleAfter:    2 * time.Minute,
		CancellationTiers: []PenaltyTier{
			{MinMinutes: 360, XP: 25, Label: "low"},
			{MinMinutes: 180, XP: 50, Label: "medium"},
			{MinMinutes: 0, XP: 100, Label: "critical"},
		},
		DelayTiers: []PenaltyTier{
			{MinMinutes: 1, XP: 10, Label: "minor"},
			{MinMinutes: 16, XP: 25, Label: "moderate"},
			{MinMinutes: 31, XP: 50, Label: "severe"},
			{MinMinutes: 61, XP: 100, Label: "critical"},
		},
		LevelThresholds: []int64{0, 100, 300, 600, 1000},
		CompletionXP:    50,
		StreakMilestones: []StreakMilestone{
			{Days: 3, BonusXP: 20},
			{Days: 7, BonusXP: 50},
			{Days: 14, BonusXP: 100},
			{Days: 30, BonusXP: 250},
		},
	}
}

// DefaultJobsConfig returns default job intervals
func DefaultJobsConfig() JobsConfig {
	return JobsConfig{
		OfferExpiryInterval:      5 * time.Minute,
		CompletionSettleInterval: time.Minute,
		PenaltyReconcileInterval: 2 * time.Minute,
	}
}

// validateAndApplyDefaults replaces zero or invalid values with defaults.
// Tier tables that are not monotonic are replaced as a whole.
func validateAndApplyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.MySQL.Port <= 0 {
		cfg.MySQL.Port = 3306
	}
	if cfg.Queue.Concurrency <= 0 {
		cfg.Queue.Concurrency = 10
	}
	if cfg.Queue.MaxRetry < 0 {
		cfg.Queue.MaxRetry = 5
	}
	if cfg.Queue.TaskTimeout <= 0 {
		cfg.Queue.TaskTimeout = 30
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Output == "" {
		cfg.Logger.Output = "console"
	}

	defaults := DefaultEngineConfig()
	eng := &cfg.Engine
	if eng.Timezone == "" {
		eng.Timezone = defaults.Timezone
	} else if _, err := time.LoadLocation(eng.Timezone); err != nil {
		eng.Timezone = defaults.Timezone
	}
	if eng.ArrivalLead <= 0 {
		eng.ArrivalLead = defaults.ArrivalLead
	}
	if eng.GeofenceRadiusKm <= 0 {
		eng.GeofenceRadiusKm = defaults.GeofenceRadiusKm
	}
	if eng.GPSStaleAfter <= 0 {
		eng.GPSStaleAfter = defaults.GPSStaleAfter
	}
	if !validCancellationTiers(eng.CancellationTiers) {
		eng.CancellationTiers = defaults.CancellationTiers
	}
	if !validDelayTiers(eng.DelayTiers) {
		eng.DelayTiers = defaults.DelayTiers
	}
	if !validLevelThresholds(eng.LevelThresholds) {
		eng.LevelThresholds = defaults.LevelThresholds
	}
	if eng.CompletionXP <= 0 {
		eng.CompletionXP = defaults.CompletionXP
	}
	if !validMilestones(eng.StreakMilestones) {
		eng.StreakMilestones = defaults.StreakMilestones
	}

	jobDefaults := DefaultJobsConfig()
	if cfg.Jobs.OfferExpiryInterval <= 0 {
		cfg.Jobs.OfferExpiryInterval = jobDefaults.OfferExpiryInterval
	}
	if cfg.Jobs.CompletionSettleInterval <= 0 {
		cfg.Jobs.CompletionSettleInterval = jobDefaults.CompletionSettleInterval
	}
	if cfg.Jobs.PenaltyReconcileInterval <= 0 {
		cfg.Jobs.PenaltyReconcileInterval = jobDefaults.PenaltyReconcileInterval
	}
}

// validCancellationTiers requires a tier starting at 0 and XP that never grows with lead time
func validCancellationTiers(tiers []PenaltyTier) bool {
	if len(tiers) == 0 {
		return false
	}
	sorted := sortedTiers(tiers)
	if sorted[0].MinMinutes != 0 {
		return false
	}
	for i, t := range sorted {
		if t.XP < 0 {
			return false
		}
		if i > 0 && (t.MinMinutes == sorted[i-1].MinMinutes || t.XP > sorted[i-1].XP) {
			return false
		}
	}
	return true
}

// validDelayTiers requires positive thresholds and XP that never shrinks with lateness
func validDelayTiers(tiers []PenaltyTier) bool {
	if len(tiers) == 0 {
		return false
	}
	sorted := sortedTiers(tiers)
	if sorted[0].MinMinutes < 1 {
		return false
	}
	for i, t := range sorted {
		if t.XP < 0 {
			return false
		}
		if i > 0 && (t.MinMinutes == sorted[i-1].MinMinutes || t.XP < sorted[i-1].XP) {
			return false
		}
	}
	return true
}

func validLevelThresholds(thresholds []int64) bool {
	if len(thresholds) == 0 || thresholds[0] != 0 {
		return false
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return false
		}
	}
	return true
}

func validMilestones(milestones []StreakMilestone) bool {
	if len(milestones) == 0 {
		return false
	}
	seen := make(map[int]bool, len(milestones))
	for _, m := range milestones {
		if m.Days <= 0 || m.BonusXP < 0 || seen[m.Days] {
			return false
		}
		seen[m.Days] = true
	}
	return true
}

// sortedTiers returns a copy ordered by MinMinutes ascending
func sortedTiers(tiers []PenaltyTier) []PenaltyTier {
	out := append([]PenaltyTier(nil), tiers...)
	sort.Slice(out, func(i, j int) bool { return out[i].MinMinutes < out[j].MinMinutes })
	return out
}

// Location returns the configured time zone, falling back to UTC
func (e EngineConfig) Location() *time.Location {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
