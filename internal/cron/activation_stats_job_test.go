package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type stubStats struct {
	stats activation.Stats
	err   error
}

func (s stubStats) Stats(context.Context) (activation.Stats, error) {
	return s.stats, s.err
}

func gaugeFor(t *testing.T, reg *prometheus.Registry, state string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "activation_codes" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "state" && label.GetValue() == state {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("gauge for state %s not found", state)
	return 0
}

func TestActivationStatsJobSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	job, err := NewActivationStatsJob(stubStats{stats: activation.Stats{
		Orders: 6,
		Codes:  activation.CodeStats{Unused: 3, Used: 2, Expired: 1},
	}}, metrics.NewActivationMetrics(reg))
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "activation_stats" {
		t.Fatalf("unexpected name %q", job.Name())
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := gaugeFor(t, reg, "unused"); got != 3 {
		t.Fatalf("unused = %v", got)
	}
	if got := gaugeFor(t, reg, "used"); got != 2 {
		t.Fatalf("used = %v", got)
	}
	if got := gaugeFor(t, reg, "expired"); got != 1 {
		t.Fatalf("expired = %v", got)
	}
}

func TestActivationStatsJobPropagatesErrors(t *testing.T) {
	job, err := NewActivationStatsJob(stubStats{err: errors.New("store down")}, metrics.NewActivationMetrics(nil))
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}

	if _, err := NewActivationStatsJob(nil, metrics.NewActivationMetrics(nil)); err == nil {
		t.Fatalf("expected error without source")
	}
}
