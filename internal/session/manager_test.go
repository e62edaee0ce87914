package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bennettsh/authkit/internal/database/fake"
	"github.com/bennettsh/authkit/internal/models"
	"github.com/bennettsh/authkit/internal/secrets"
)

func newTestManager(t *testing.T) (*Manager, *fake.Store) {
	t.Helper()
	store := fake.New()
	return NewManager(store.Sessions(), zap.NewNop()), store
}

func TestCreateReturnsPlaintextOnce(t *testing.T) {
	t.Parallel()
	m, store := newTestManager(t)
	userID := uuid.New()

	created, err := m.Create(context.Background(), nil, userID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Token == "" {
		t.Fatal("Create() returned empty token")
	}

	stored := store.SessionByID(created.Session.ID)
	if stored == nil {
		t.Fatal("session not persisted")
	}
	if stored.TokenHash == created.Token {
		t.Error("plaintext token was persisted")
	}
	if stored.TokenHash != secrets.HashToken(created.Token) {
		t.Error("persisted hash does not match token digest")
	}

	wantExpiry := time.Now().UTC().Add(Duration)
	if d := stored.ExpiresAt.Sub(wantExpiry); d < -time.Minute || d > time.Minute {
		t.Errorf("expiry = %v, want ~%v", stored.ExpiresAt, wantExpiry)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)

	got, err := m.Validate(context.Background(), "no-such-token")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != nil {
		t.Errorf("Validate() = %+v, want nil", got)
	}
}

func TestValidateExpiredSessionIsDeleted(t *testing.T) {
	t.Parallel()
	m, store := newTestManager(t)
	userID := uuid.New()

	created, err := m.Create(context.Background(), nil, userID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	store.SetSessionExpiry(created.Session.ID, time.Now().UTC().Add(-time.Second))

	got, err := m.Validate(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != nil {
		t.Errorf("expired session validated: %+v", got)
	}
	if store.SessionByID(created.Session.ID) != nil {
		t.Error("expired session was not deleted on validation")
	}
}

func TestValidateSlidingRenewal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		remaining time.Duration
		wantRenew bool
	}{
		{"inside renewal window", 14 * 24 * time.Hour, true},
		{"outside renewal window", 20 * 24 * time.Hour, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, store := newTestManager(t)

			created, err := m.Create(context.Background(), nil, uuid.New())
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			forced := time.Now().UTC().Add(tt.remaining)
			store.SetSessionExpiry(created.Session.ID, forced)

			got, err := m.Validate(context.Background(), created.Token)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if got == nil {
				t.Fatal("Validate() = nil, want session")
			}

			stored := store.SessionByID(created.Session.ID)
			if tt.wantRenew {
				wantExpiry := time.Now().UTC().Add(Duration)
				if d := stored.ExpiresAt.Sub(wantExpiry); d < -time.Minute || d > time.Minute {
					t.Errorf("renewed expiry = %v, want ~%v", stored.ExpiresAt, wantExpiry)
				}
				if !got.ExpiresAt.Equal(stored.ExpiresAt) {
					t.Error("returned session does not carry the renewed expiry")
				}
			} else {
				if !stored.ExpiresAt.Equal(forced) {
					t.Errorf("expiry changed outside renewal window: %v", stored.ExpiresAt)
				}
			}
		})
	}
}

func TestValidateJoinsOwningUser(t *testing.T) {
	t.Parallel()
	store := fake.New()
	m := NewManager(store.Sessions(), zap.NewNop())

	user := &models.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"}
	if err := store.Users().Create(context.Background(), nil, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	created, err := m.Create(context.Background(), nil, user.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := m.Validate(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got == nil || got.User == nil {
		t.Fatal("Validate() did not join the owning user")
	}
	if got.User.Email != "ada@example.com" {
		t.Errorf("joined user email = %q", got.User.Email)
	}
}

func TestDeleteByUserScopedToOwner(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)
	userA := uuid.New()
	userB := uuid.New()

	var tokens []string
	for i := 0; i < 2; i++ {
		created, err := m.Create(context.Background(), nil, userA)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		tokens = append(tokens, created.Token)
	}
	createdB, err := m.Create(context.Background(), nil, userB)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	count, err := m.DeleteByUser(context.Background(), userA)
	if err != nil {
		t.Fatalf("DeleteByUser() error = %v", err)
	}
	if count != 2 {
		t.Errorf("DeleteByUser() = %d, want 2", count)
	}

	for _, token := range tokens {
		if got, _ := m.Validate(context.Background(), token); got != nil {
			t.Error("user A session still validates after logout-all")
		}
	}
	if got, _ := m.Validate(context.Background(), createdB.Token); got == nil {
		t.Error("user B session was deleted by user A logout-all")
	}

	// Idempotent: deleting again is not an error.
	if _, err := m.DeleteByUser(context.Background(), userA); err != nil {
		t.Errorf("second DeleteByUser() error = %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	t.Parallel()
	m, store := newTestManager(t)

	live, err := m.Create(context.Background(), nil, uuid.New())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		dead, err := m.Create(context.Background(), nil, uuid.New())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		store.SetSessionExpiry(dead.Session.ID, time.Now().UTC().Add(-time.Hour))
	}

	count, err := m.DeleteExpired(context.Background())
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if count != 3 {
		t.Errorf("DeleteExpired() = %d, want 3", count)
	}
	if store.SessionByID(live.Session.ID) == nil {
		t.Error("live session was swept")
	}
}

func TestCreateConcurrentDistinctTokens(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)
	userID := uuid.New()

	const n = 5
	var wg sync.WaitGroup
	results := make([]*NewSession, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Create(context.Background(), nil, userID)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("concurrent Create() error = %v", errs[i])
		}
		if seen[results[i].Token] {
			t.Fatal("duplicate token from concurrent creates")
		}
		seen[results[i].Token] = true

		got, err := m.Validate(context.Background(), results[i].Token)
		if err != nil || got == nil {
			t.Fatalf("concurrent session %d does not validate: %v", i, err)
		}
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	t.Parallel()
	m, store := newTestManager(t)
	store.Err = errors.New("connection refused")

	if _, err := m.Create(context.Background(), nil, uuid.New()); err == nil {
		t.Error("Create() swallowed store failure")
	}
	if _, err := m.Validate(context.Background(), "token"); err == nil {
		t.Error("Validate() swallowed store failure")
	}
}
