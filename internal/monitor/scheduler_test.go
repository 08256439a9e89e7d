package monitor

import (
	"context"
	"testing"
	"time"

	"cbrates/internal/calc"
	"cbrates/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func idlePoller() *Poller {
	feed := new(MockRateFeed)
	store := new(MockRateStore)
	pending := new(MockPendingStore)
	registry := emptyRegistry()
	pending.On("ListAll", mock.Anything).Return([]domain.PendingCalculation(nil), nil).Maybe()
	return NewPoller(feed, store, pending, registry, NewMockNotifier(), calc.New(), 2)
}

func TestNewScheduler_Constructs(t *testing.T) {
	s := NewScheduler(idlePoller(), 10*time.Second)
	require.NotNil(t, s)
	require.Nil(t, s.sched)
}

func TestScheduler_Shutdown_NoScheduler_ReturnsNil(t *testing.T) {
	s := NewScheduler(idlePoller(), 10*time.Second)
	require.NoError(t, s.Shutdown())
	require.Nil(t, s.sched)
}

func TestScheduler_Start_And_ContextCancel_ShutsDown(t *testing.T) {
	s := NewScheduler(idlePoller(), 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	require.NotNil(t, s.sched)

	cancel()

	// Shutdown runs from the watcher goroutine and clears the handle
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if stopped(s) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, stopped(s), "expected scheduler to be shut down after ctx cancel")
}

func stopped(s *Scheduler) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched == nil
}

func TestScheduler_Wake_ConcurrentWithShutdown_IsSafe(t *testing.T) {
	s := NewScheduler(idlePoller(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))

	// hammer Wake from a request-style goroutine while the ctx watcher and
	// an explicit Shutdown race to clear the handle
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			s.Wake()
		}
	}()

	cancel()
	require.NoError(t, s.Shutdown())
	<-done

	// after shutdown Wake is a plain no-op
	require.NotPanics(t, s.Wake)
	require.NoError(t, s.Shutdown())
}

func TestScheduler_Wake_BeforeStart_IsNoop(t *testing.T) {
	s := NewScheduler(idlePoller(), 10*time.Second)
	require.NotPanics(t, s.Wake)
}

func TestScheduler_Wake_TriggersImmediateRun(t *testing.T) {
	feed := new(MockRateFeed)
	store := new(MockRateStore)
	pending := new(MockPendingStore)
	registry := emptyRegistry()

	listed := make(chan struct{}, 8)
	pending.On("ListAll", mock.Anything).
		Return([]domain.PendingCalculation(nil), nil).
		Run(func(mock.Arguments) { listed <- struct{}{} })

	p := NewPoller(feed, store, pending, registry, NewMockNotifier(), calc.New(), 2)
	s := NewScheduler(p, time.Hour) // far beyond the test's patience
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	defer func() { _ = s.Shutdown() }()

	s.Wake()

	select {
	case <-listed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected Wake to trigger a poll cycle")
	}
}
