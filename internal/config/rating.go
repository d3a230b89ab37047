package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RatingConfig holds operational tunables for rating and zone imports.
// Values reload at runtime when the backing file changes.
type RatingConfig struct {
	// Surcharge thresholds. The oversize threshold is compared in the
	// shipment's declared dimension unit.
	OversizeDimension float64 `mapstructure:"oversizeDimension"`
	OversizeSurcharge float64 `mapstructure:"oversizeSurcharge"`
	HighValueMinimum  float64 `mapstructure:"highValueMinimum"`
	HighValuePercent  float64 `mapstructure:"highValuePercent"`

	Import ImportTuning `mapstructure:"import"`
}

// ImportTuning bounds the zone import pipeline.
type ImportTuning struct {
	BatchSize   int `mapstructure:"batchSize"`
	Concurrency int `mapstructure:"concurrency"`
	BatchPause  int `mapstructure:"batchPauseMs"`
	CommitChunk int `mapstructure:"commitChunk"`
}

func DefaultRatingConfig() RatingConfig {
	return RatingConfig{
		OversizeDimension: 48,
		OversizeSurcharge: 75,
		HighValueMinimum:  1000,
		HighValuePercent:  0.01,
		Import: ImportTuning{
			BatchSize:   8,
			Concurrency: 8,
			BatchPause:  250,
			CommitChunk: 400,
		},
	}
}

type RatingConfigHolder struct {
	current atomic.Value // holds RatingConfig
}

func NewRatingConfigHolder() (*RatingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("rating")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/freightrate/config")
	v.AddConfigPath("/etc/freightrate")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FREIGHTRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultRatingConfig()
		v.SetDefault("rating.oversizeDimension", defaults.OversizeDimension)
		v.SetDefault("rating.oversizeSurcharge", defaults.OversizeSurcharge)
		v.SetDefault("rating.highValueMinimum", defaults.HighValueMinimum)
		v.SetDefault("rating.highValuePercent", defaults.HighValuePercent)
		v.SetDefault("rating.import.batchSize", defaults.Import.BatchSize)
		v.SetDefault("rating.import.concurrency", defaults.Import.Concurrency)
		v.SetDefault("rating.import.batchPauseMs", defaults.Import.BatchPause)
		v.SetDefault("rating.import.commitChunk", defaults.Import.CommitChunk)
	}

	holder := &RatingConfigHolder{}
	if err := holder.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := holder.reload(v); err != nil {
			log.Printf("rating config reload failed: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

// NewStaticRatingConfigHolder returns a holder pinned to the given config.
func NewStaticRatingConfigHolder(cfg RatingConfig) *RatingConfigHolder {
	holder := &RatingConfigHolder{}
	holder.current.Store(cfg.withDefaults())
	return holder
}

func (h *RatingConfigHolder) Current() RatingConfig {
	if v, ok := h.current.Load().(RatingConfig); ok {
		return v
	}
	return DefaultRatingConfig()
}

func (h *RatingConfigHolder) reload(v *viper.Viper) error {
	var cfg RatingConfig
	if err := v.UnmarshalKey("rating", &cfg); err != nil {
		return err
	}
	h.current.Store(cfg.withDefaults())
	return nil
}

func (c RatingConfig) withDefaults() RatingConfig {
	defaults := DefaultRatingConfig()
	if c.OversizeDimension <= 0 {
		c.OversizeDimension = defaults.OversizeDimension
	}
	if c.OversizeSurcharge <= 0 {
		c.OversizeSurcharge = defaults.OversizeSurcharge
	}
	if c.HighValueMinimum <= 0 {
		c.HighValueMinimum = defaults.HighValueMinimum
	}
	if c.HighValuePercent <= 0 {
		c.HighValuePercent = defaults.HighValuePercent
	}
	if c.Import.BatchSize <= 0 {
		c.Import.BatchSize = defaults.Import.BatchSize
	}
	if c.Import.Concurrency <= 0 {
		c.Import.Concurrency = defaults.Import.Concurrency
	}
	if c.Import.BatchPause < 0 {
		c.Import.BatchPause = defaults.Import.BatchPause
	}
	if c.Import.CommitChunk <= 0 || c.Import.CommitChunk > 450 {
		c.Import.CommitChunk = defaults.Import.CommitChunk
	}
	return c
}
