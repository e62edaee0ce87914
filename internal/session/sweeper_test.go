package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bennettsh/authkit/internal/database/fake"
)

type stubLock struct {
	held     bool
	acquires int
	releases int
	err      error
}

func (l *stubLock) Acquire(context.Context) (bool, error) {
	l.acquires++
	if l.err != nil {
		return false, l.err
	}
	return !l.held, nil
}

func (l *stubLock) Release(context.Context) error {
	l.releases++
	return nil
}

func TestSweeperDeletesExpiredOnStartup(t *testing.T) {
	t.Parallel()
	store := fake.New()
	m := NewManager(store.Sessions(), zap.NewNop())

	created, err := m.Create(context.Background(), nil, uuid.New())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	store.SetSessionExpiry(created.Session.ID, time.Now().UTC().Add(-time.Hour))

	lock := &stubLock{}
	sweeper := NewSweeper(m, lock, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for store.SessionCount() > 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not delete expired session")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() = %v, want context.Canceled", err)
	}
	if lock.acquires == 0 || lock.releases != lock.acquires {
		t.Errorf("lock acquire/release mismatch: %d/%d", lock.acquires, lock.releases)
	}
}

func TestSweeperSkipsWhenLockHeld(t *testing.T) {
	t.Parallel()
	store := fake.New()
	m := NewManager(store.Sessions(), zap.NewNop())

	created, err := m.Create(context.Background(), nil, uuid.New())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	store.SetSessionExpiry(created.Session.ID, time.Now().UTC().Add(-time.Hour))

	lock := &stubLock{held: true}
	sweeper := NewSweeper(m, lock, time.Hour, zap.NewNop())
	sweeper.sweep(context.Background())

	if store.SessionCount() != 1 {
		t.Error("sweep ran despite the lock being held elsewhere")
	}
	if lock.releases != 0 {
		t.Error("released a lock it never acquired")
	}
}

func TestSweeperContinuesAfterStoreError(t *testing.T) {
	t.Parallel()
	store := fake.New()
	m := NewManager(store.Sessions(), zap.NewNop())
	sweeper := NewSweeper(m, nil, time.Hour, zap.NewNop())

	store.Err = errors.New("connection refused")
	sweeper.sweep(context.Background())

	// Store recovers; the next run succeeds.
	store.Err = nil
	created, err := m.Create(context.Background(), nil, uuid.New())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	store.SetSessionExpiry(created.Session.ID, time.Now().UTC().Add(-time.Hour))
	sweeper.sweep(context.Background())

	if store.SessionCount() != 0 {
		t.Error("sweep after recovery did not delete expired session")
	}
}
