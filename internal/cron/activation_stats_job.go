package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/pkg/metrics"
)

const activationStatsJobName = "activation_stats"

type statsSource interface {
	Stats(ctx context.Context) (activation.Stats, error)
}

// ActivationStatsJob publishes code counts by state as gauges. Expiry is a
// function of time, so the gauges drift unless refreshed.
type ActivationStatsJob struct {
	source  statsSource
	metrics *metrics.ActivationMetrics
}

func NewActivationStatsJob(source statsSource, m *metrics.ActivationMetrics) (*ActivationStatsJob, error) {
	if source == nil {
		return nil, fmt.Errorf("stats source required")
	}
	if m == nil {
		return nil, fmt.Errorf("activation metrics required")
	}
	return &ActivationStatsJob{source: source, metrics: m}, nil
}

func (j *ActivationStatsJob) Name() string { return activationStatsJobName }

func (j *ActivationStatsJob) Run(ctx context.Context) error {
	stats, err := j.source.Stats(ctx)
	if err != nil {
		return fmt.Errorf("loading activation stats: %w", err)
	}
	j.metrics.SetCodes(stats.Codes.Unused, stats.Codes.Used, stats.Codes.Expired)
	return nil
}
