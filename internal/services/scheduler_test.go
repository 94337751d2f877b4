package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig("reproject")
	if config.Interval != time.Hour {
		t.Errorf("expected Interval 1h, got %v", config.Interval)
	}
	if !config.RunOnStart {
		t.Error("expected RunOnStart by default")
	}
	if s := NewScheduler(nil, SchedulerConfig{}); s.config.Interval != time.Hour {
		t.Errorf("zero interval should fall back to 1h, got %v", s.config.Interval)
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	s := NewScheduler(func(context.Context) error { return nil }, SchedulerConfig{Name: "x", Interval: time.Hour})
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Error("scheduler should be running")
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting a running scheduler")
	}
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}

func TestScheduler_StopNotRunning(t *testing.T) {
	s := NewScheduler(nil, DefaultSchedulerConfig("idle"))
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestScheduler_RunsOnStartAndTicks(t *testing.T) {
	var calls int64
	job := func(context.Context) error {
		if atomic.AddInt64(&calls, 1)%2 == 0 {
			return errors.New("boom")
		}
		return nil
	}
	s := NewScheduler(job, SchedulerConfig{Name: "tick", Interval: 10 * time.Millisecond, RunOnStart: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&calls) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}

	m := s.GetMetrics()
	if m.Runs < 3 || m.Failures < 1 {
		t.Errorf("metrics = %+v, want at least 3 runs and 1 failure", m)
	}
}
