package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/nutriscan-activation/pkg/logger"
	"github.com/angelmondragon/nutriscan-activation/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func runsFor(t *testing.T, reg *prometheus.Registry, job, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "activation_cron_job_runs_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}
			if labels["job"] == job && labels["result"] == result {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	registry, err := NewRegistry(success, failure)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: registry,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	service.runCycle(context.Background())

	if success.runs != 1 || failure.runs != 1 {
		t.Fatalf("expected each job once, got success=%d fail=%d", success.runs, failure.runs)
	}
	if got := runsFor(t, reg, "success", "success"); got != 1 {
		t.Fatalf("success runs = %v", got)
	}
	if got := runsFor(t, reg, "fail", "failure"); got != 1 {
		t.Fatalf("failure runs = %v", got)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "guarded"}
	registry, _ := NewRegistry(job)
	lock := NewLocalLock()
	service, err := NewService(ServiceParams{Registry: registry, Lock: lock})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	held, _ := lock.Acquire(context.Background())
	if !held {
		t.Fatalf("expected to acquire lock")
	}
	service.runCycle(context.Background())
	if job.runs != 0 {
		t.Fatalf("job ran while lock was held")
	}

	_ = lock.Release(context.Background())
	service.runCycle(context.Background())
	if job.runs != 1 {
		t.Fatalf("expected job to run after release, ran %d", job.runs)
	}
}

type signalJob struct {
	ran chan struct{}
}

func (j *signalJob) Name() string { return "signal" }

func (j *signalJob) Run(context.Context) error {
	select {
	case j.ran <- struct{}{}:
	default:
	}
	return nil
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &signalJob{ran: make(chan struct{}, 1)}
	registry, _ := NewRegistry(job)
	service, err := NewService(ServiceParams{Registry: registry, Interval: time.Hour})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	select {
	case <-job.ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("initial cycle never ran")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("service did not stop")
	}
}

func TestNewServiceRequiresRegistry(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error without registry")
	}
}
