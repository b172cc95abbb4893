package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budgetcast/internal/core"
	"budgetcast/internal/sheets/memory"
)

// gatedReader blocks ListAccounts until release is closed.
type gatedReader struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedReader() *gatedReader {
	return &gatedReader{
		Store:   memory.New(testRecords()),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedReader) ListAccounts(ctx context.Context) ([]core.AccountRecord, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.Store.ListAccounts(ctx)
}

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(nil, SchedulerConfig{}, nil)
	if s.config.Spec != "@hourly" {
		t.Errorf("Spec = %q, want @hourly", s.config.Spec)
	}
	if s.config.HorizonDays != 90 {
		t.Errorf("HorizonDays = %d, want 90", s.config.HorizonDays)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running initially")
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	runs := &fakeRuns{}
	svc := NewForecastService(memory.New(testRecords()), nil, runs, ForecastServiceConfig{}, nil)
	s := NewScheduler(svc, SchedulerConfig{HorizonDays: 14}, nil)
	s.now = func() time.Time { return time.Date(2023, 3, 5, 18, 30, 0, 0, time.UTC) }

	s.RunOnce(context.Background())

	if len(runs.runs) != 1 {
		t.Fatalf("saved %d runs, want 1", len(runs.runs))
	}
	got := runs.runs[0]
	if !got.Start.SameDay(core.NewDate(2023, 3, 5)) || got.Horizon != 14 {
		t.Errorf("run = %+v", got)
	}
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(nil, SchedulerConfig{Spec: "every tuesday"}, nil)
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if s.IsRunning() {
		t.Error("scheduler running after failed start")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	runs := &fakeRuns{}
	svc := NewForecastService(memory.New(testRecords()), nil, runs, ForecastServiceConfig{}, nil)
	s := NewScheduler(svc, SchedulerConfig{Spec: "@every 1h", HorizonDays: 7, RunOnStart: true}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting a running scheduler")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		runs.mu.Lock()
		n := len(runs.runs)
		runs.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("startup run did not complete")
		}
		time.Sleep(10 * time.Millisecond)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
	if err := s.Stop(stopCtx); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestScheduler_StopWaitsForStartupRun(t *testing.T) {
	reader := newGatedReader()
	runs := &fakeRuns{}
	svc := NewForecastService(reader, nil, runs, ForecastServiceConfig{}, nil)
	s := NewScheduler(svc, SchedulerConfig{Spec: "@every 1h", HorizonDays: 7, RunOnStart: true}, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-reader.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("startup run never reached the record reader")
	}

	stopped := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		stopped <- s.Stop(ctx)
	}()

	select {
	case err := <-stopped:
		t.Fatalf("Stop returned (%v) while the startup run was in flight", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(reader.release)
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Stop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the startup run finished")
	}
}

func TestScheduler_StopTimesOutOnStuckRun(t *testing.T) {
	reader := newGatedReader()
	defer close(reader.release)
	svc := NewForecastService(reader, nil, &fakeRuns{}, ForecastServiceConfig{}, nil)
	s := NewScheduler(svc, SchedulerConfig{Spec: "@every 1h", RunOnStart: true}, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-reader.entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Stop = %v, want deadline exceeded", err)
	}
}
