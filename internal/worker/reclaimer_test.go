package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/polkiloo/cardshop/internal/domain/model"
	testhelpers "github.com/polkiloo/cardshop/internal/test"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for condition")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNewReclaimerDefaults(t *testing.T) {
	r := NewReclaimer(&testhelpers.WorkerFacadeStub{}, 0, 0, 0, testLogger())
	if r.batchSize != 1 {
		t.Fatalf("expected batch size default to 1, got %d", r.batchSize)
	}
	if r.workers != 1 {
		t.Fatalf("expected workers default to 1, got %d", r.workers)
	}
	if r.interval != 5*time.Minute {
		t.Fatalf("expected default interval, got %v", r.interval)
	}
}

func TestReclaimerRunsImmediately(t *testing.T) {
	facade := &testhelpers.WorkerFacadeStub{Batches: [][]model.Order{{{ID: "o1"}, {ID: "o2"}}}}
	r := NewReclaimer(facade, time.Hour, 10, 2, testLogger())

	r.Start(context.Background())
	waitFor(t, time.Second, func() bool {
		facade.Lock()
		defer facade.Unlock()
		return len(facade.Expired) == 2
	})
	r.Stop()

	facade.Lock()
	defer facade.Unlock()
	if facade.Limits[0] != 10 {
		t.Fatalf("expected batch limit 10, got %d", facade.Limits[0])
	}
	if len(facade.Limits) != 1 {
		t.Fatalf("ticker must not fire within an hour, got %d passes", len(facade.Limits))
	}
}

func TestReclaimerRepeatsOnInterval(t *testing.T) {
	facade := &testhelpers.WorkerFacadeStub{
		Batches: [][]model.Order{{{ID: "o1"}}, nil, {{ID: "o2"}}},
	}
	r := NewReclaimer(facade, 5*time.Millisecond, 5, 1, testLogger())

	r.Start(context.Background())
	waitFor(t, time.Second, func() bool {
		facade.Lock()
		defer facade.Unlock()
		return len(facade.Expired) == 2
	})
	r.Stop()

	if facade.StaleCalls() < 3 {
		t.Fatalf("expected at least three passes, got %d", facade.StaleCalls())
	}
}

func TestReclaimerSurvivesErrors(t *testing.T) {
	var calls int
	facade := &testhelpers.WorkerFacadeStub{
		StaleFn: func(context.Context, int) ([]model.Order, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("db down")
			}
			return []model.Order{{ID: "o1"}}, nil
		},
		ExpireFn: func(context.Context, model.Order) (bool, error) {
			return false, errors.New("conflict")
		},
	}
	r := NewReclaimer(facade, 5*time.Millisecond, 1, 1, testLogger())

	r.Start(context.Background())
	waitFor(t, time.Second, func() bool { return facade.StaleCalls() >= 3 })
	r.Stop()
}

func TestReclaimerStopWithoutStart(t *testing.T) {
	r := NewReclaimer(&testhelpers.WorkerFacadeStub{}, time.Second, 1, 1, testLogger())
	r.Stop()
}
