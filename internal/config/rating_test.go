package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatingConfigDefaults(t *testing.T) {
	cfg := RatingConfig{}.withDefaults()

	assert.Equal(t, 48.0, cfg.OversizeDimension)
	assert.Equal(t, 1000.0, cfg.HighValueMinimum)
	assert.Equal(t, 0.01, cfg.HighValuePercent)
	assert.Equal(t, 8, cfg.Import.BatchSize)
	assert.Equal(t, 400, cfg.Import.CommitChunk)
}

func TestRatingConfigCommitChunkCeiling(t *testing.T) {
	cfg := RatingConfig{Import: ImportTuning{CommitChunk: 5000}}.withDefaults()

	// Commit chunks above the store's safe per-commit limit are rejected.
	assert.Equal(t, 400, cfg.Import.CommitChunk)
}

func TestStaticHolder(t *testing.T) {
	holder := NewStaticRatingConfigHolder(RatingConfig{OversizeSurcharge: 120})
	assert.Equal(t, 120.0, holder.Current().OversizeSurcharge)
	assert.Equal(t, 48.0, holder.Current().OversizeDimension)
}
