package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/prodcheck/internal/metrics"
	"github.com/nao1215/prodcheck/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStore struct {
	mu      sync.Mutex
	saved   []*model.Run
	pruned  []int
	saveErr error
}

func (s *fakeStore) SaveRun(_ context.Context, run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, run)
	return nil
}

func (s *fakeStore) PruneRuns(_ context.Context, _ model.RunKind, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruned = append(s.pruned, keep)
	return 0, nil
}

func liveRun(_ context.Context) (*model.Run, error) {
	run := model.NewRun(model.RunKindLive, "http://example.com/products")
	run.StatusCode = 200
	run.GenerateReport()
	return run, nil
}

func TestMonitor_RunOnce(t *testing.T) {
	t.Parallel()

	t.Run("records, saves and prunes", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		collector := metrics.NewCollector(nil)
		var observed []*model.Run

		m := New("@every 1h", liveRun,
			WithStore(store),
			WithCollector(collector),
			WithKeep(10),
			WithObserver(func(r *model.Run) { observed = append(observed, r) }),
		)

		run, err := m.RunOnce(t.Context())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.saved) != 1 || store.saved[0] != run {
			t.Errorf("expected run to be saved, got %v", store.saved)
		}
		if len(store.pruned) != 1 || store.pruned[0] != 10 {
			t.Errorf("expected one prune with keep 10, got %v", store.pruned)
		}
		if len(observed) != 1 {
			t.Errorf("expected observer to be called once, got %d", len(observed))
		}
		got, err := testutil.GatherAndCount(collector.Registry(), "prodcheck_runs_total")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 1 {
			t.Errorf("expected one runs_total series, got %d", got)
		}
	})

	t.Run("zero keep does not prune", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		m := New("@every 1h", liveRun, WithStore(store))

		if _, err := m.RunOnce(t.Context()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.pruned) != 0 {
			t.Errorf("expected no prune, got %v", store.pruned)
		}
	})

	t.Run("save failure is not returned", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{saveErr: errors.New("disk full")}
		m := New("@every 1h", liveRun, WithStore(store), WithKeep(5))

		if _, err := m.RunOnce(t.Context()); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
		if len(store.pruned) != 0 {
			t.Errorf("expected no prune after failed save, got %v", store.pruned)
		}
	})

	t.Run("run error is returned with partial run recorded", func(t *testing.T) {
		t.Parallel()

		runErr := errors.New("cancelled")
		store := &fakeStore{}
		m := New("@every 1h", func(ctx context.Context) (*model.Run, error) {
			run, _ := liveRun(ctx)
			return run, runErr
		}, WithStore(store))

		run, err := m.RunOnce(t.Context())
		if !errors.Is(err, runErr) {
			t.Errorf("expected %v, got %v", runErr, err)
		}
		if run == nil || len(store.saved) != 1 {
			t.Error("expected partial run to be saved")
		}
	})

	t.Run("nil run is not recorded", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		m := New("@every 1h", func(context.Context) (*model.Run, error) {
			return nil, errors.New("boom")
		}, WithStore(store))

		if _, err := m.RunOnce(t.Context()); err == nil {
			t.Error("expected error")
		}
		if len(store.saved) != 0 {
			t.Errorf("expected nothing saved, got %v", store.saved)
		}
	})
}

func TestMonitor_Start(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "valid descriptor", schedule: "@every 1h", wantRunning: true},
		{name: "valid cron expression", schedule: "0 3 * * *", wantRunning: true},
		{name: "invalid schedule", schedule: "invalid cron", wantError: true},
		{name: "empty schedule", schedule: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := New(tt.schedule, liveRun)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := m.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Errorf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if m.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", m.IsRunning(), tt.wantRunning)
			}

			if tt.wantRunning {
				next := m.NextRun()
				if next == nil {
					t.Error("NextRun() returned nil for running monitor")
				} else if !next.After(time.Now()) {
					t.Errorf("NextRun() = %v, expected a future time", next)
				}
				m.Stop()
				if m.IsRunning() {
					t.Error("expected monitor to be stopped")
				}
			} else if m.NextRun() != nil {
				t.Error("expected NextRun() to be nil when not running")
			}
		})
	}
}

func TestMonitor_Restart(t *testing.T) {
	t.Parallel()

	m := New("@every 1h", liveRun)

	first, cancelFirst := context.WithCancel(context.Background())
	if err := m.Start(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("unexpected error on restart: %v", err)
	}
	defer m.Stop()

	if n := len(m.cron.Entries()); n != 1 {
		t.Errorf("expected 1 scheduled entry after restart, got %d", n)
	}

	// Cancelling the context of the first start leaves the restart running.
	cancelFirst()
	time.Sleep(50 * time.Millisecond)
	if !m.IsRunning() {
		t.Error("expected monitor to keep running")
	}
}

func TestMonitor_ScheduledRun(t *testing.T) {
	t.Parallel()

	ran := make(chan struct{}, 1)
	m := New("@every 1s", func(ctx context.Context) (*model.Run, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return liveRun(ctx)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Stop()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled run did not happen")
	}
}
