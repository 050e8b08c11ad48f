// Package config provides property-based tests for configuration fallback functionality.
// These tests verify properties that should hold across all generated inputs.
package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_InvalidDurationsFallBackToDefault tests that non-positive durations fall back to defaults
func TestProperty_InvalidDurationsFallBackToDefault(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	defaults := DefaultEngineConfig()

	properties.Property("non-positive arrival lead falls back to default", prop.ForAll(
		func(seconds int) bool {
			cfg := &Config{Engine: EngineConfig{ArrivalLead: time.Duration(seconds) * time.Second}}
			validateAndApplyDefaults(cfg)
			return cfg.Engine.ArrivalLead == defaults.ArrivalLead
		},
		gen.IntRange(-10000, 0),
	))

	properties.Property("non-positive gps stale threshold falls back to default", prop.ForAll(
		func(seconds int) bool {
			cfg := &Config{Engine: EngineConfig{GPSStaleAfter: time.Duration(seconds) * time.Second}}
			validateAndApplyDefaults(cfg)
			return cfg.Engine.GPSStaleAfter == defaults.GPSStaleAfter
		},
		gen.IntRange(-10000, 0),
	))

	properties.Property("non-positive geofence radius falls back to default", prop.ForAll(
		func(radius float64) bool {
			cfg := &Config{Engine: EngineConfig{GeofenceRadiusKm: radius}}
			validateAndApplyDefaults(cfg)
			return cfg.Engine.GeofenceRadiusKm == defaults.GeofenceRadiusKm
		},
		gen.Float64Range(-100, 0),
	))

	properties.TestingRun(t)
}

// TestProperty_ValidValuesArePreserved tests that valid values survive validation untouched
func TestProperty_ValidValuesArePreserved(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("positive durations and radius are kept", prop.ForAll(
		func(leadMin, staleSec int, radius float64) bool {
			cfg := &Config{Engine: EngineConfig{
				ArrivalLead:      time.Duration(leadMin) * time.Minute,
				GPSStaleAfter:    time.Duration(staleSec) * time.Second,
				GeofenceRadiusKm: radius,
			}}
			validateAndApplyDefaults(cfg)
			return cfg.Engine.ArrivalLead == time.Duration(leadMin)*time.Minute &&
				cfg.Engine.GPSStaleAfter == time.Duration(staleSec)*time.Second &&
				cfg.Engine.GeofenceRadiusKm == radius
		},
		gen.IntRange(1, 240),
		gen.IntRange(1, 3600),
		gen.Float64Range(0.01, 50),
	))

	properties.Property("strictly ascending level thresholds starting at zero are kept", prop.ForAll(
		func(steps []int64) bool {
			thresholds := []int64{0}
			for _, s := range steps {
				thresholds = append(thresholds, thresholds[len(thresholds)-1]+s)
			}
			cfg := &Config{Engine: EngineConfig{LevelThresholds: thresholds}}
			validateAndApplyDefaults(cfg)
			return reflect.DeepEqual(cfg.Engine.LevelThresholds, thresholds)
		},
		gen.SliceOf(gen.Int64Range(1, 1000)),
	))

	properties.TestingRun(t)
}

// TestProperty_ValidationIsIdempotent tests that applying defaults twice changes nothing
func TestProperty_ValidationIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("validate(validate(cfg)) == validate(cfg)", prop.ForAll(
		func(leadMin int, radius float64, completion int64) bool {
			cfg := &Config{Engine: EngineConfig{
				ArrivalLead:      time.Duration(leadMin) * time.Minute,
				GeofenceRadiusKm: radius,
				CompletionXP:     completion,
			}}
			validateAndApplyDefaults(cfg)
			first := *cfg
			first.Engine.CancellationTiers = append([]PenaltyTier(nil), cfg.Engine.CancellationTiers...)
			validateAndApplyDefaults(cfg)
			return reflect.DeepEqual(first.Engine, cfg.Engine) && first.Server == cfg.Server
		},
		gen.IntRange(-60, 60),
		gen.Float64Range(-5, 5),
		gen.Int64Range(-100, 100),
	))

	properties.TestingRun(t)
}

func TestValidateAndApplyDefaults_RejectsNonMonotonicTiers(t *testing.T) {
	defaults := DefaultEngineConfig()

	cfg := &Config{Engine: EngineConfig{
		// longer lead with a bigger penalty is rejected
		CancellationTiers: []PenaltyTier{
			{MinMinutes: 0, XP: 10},
			{MinMinutes: 180, XP: 50},
		},
		// more lateness with a smaller penalty is rejected
		DelayTiers: []PenaltyTier{
			{MinMinutes: 1, XP: 40},
			{MinMinutes: 30, XP: 5},
		},
		LevelThresholds: []int64{10, 100},
	}}
	validateAndApplyDefaults(cfg)

	if !reflect.DeepEqual(cfg.Engine.CancellationTiers, defaults.CancellationTiers) {
		t.Fatalf("expected default cancellation tiers, got %+v", cfg.Engine.CancellationTiers)
	}
	if !reflect.DeepEqual(cfg.Engine.DelayTiers, defaults.DelayTiers) {
		t.Fatalf("expected default delay tiers, got %+v", cfg.Engine.DelayTiers)
	}
	if !reflect.DeepEqual(cfg.Engine.LevelThresholds, defaults.LevelThresholds) {
		t.Fatalf("expected default level thresholds, got %+v", cfg.Engine.LevelThresholds)
	}
}

func TestParse_DurationsAndTiers(t *testing.T) {
	yamlDoc := []byte(`
server:
  port: 9090
engine:
  timezone: America/Sao_Paulo
  arrival_lead: 45m
  gps_stale_after: 90s
  delay_tiers:
    - {min_minutes: 1, xp: 5, label: minor}
    - {min_minutes: 10, xp: 15, label: major}
`)
	cfg, err := Parse(yamlDoc)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Engine.ArrivalLead != 45*time.Minute || cfg.Engine.GPSStaleAfter != 90*time.Second {
		t.Fatalf("durations not decoded: %v %v", cfg.Engine.ArrivalLead, cfg.Engine.GPSStaleAfter)
	}
	if len(cfg.Engine.DelayTiers) != 2 || cfg.Engine.DelayTiers[1].XP != 15 {
		t.Fatalf("delay tiers not decoded: %+v", cfg.Engine.DelayTiers)
	}
	if cfg.Engine.Location().String() != "America/Sao_Paulo" {
		t.Fatalf("unexpected location %s", cfg.Engine.Location())
	}
	// untouched sections get defaults
	if cfg.Engine.GeofenceRadiusKm != 1.0 || len(cfg.Engine.CancellationTiers) != 3 {
		t.Fatalf("defaults not applied: %+v", cfg.Engine)
	}
}
