package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"finflow/internal/log"
	"finflow/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(storage.NewMemoryRepository(), log.New(log.DefaultConfig()))
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "Alice@Example.COM", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.PasswordHash == "correct horse" {
		t.Error("password stored in plaintext")
	}

	got, err := svc.Authenticate(ctx, "ALICE@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Authenticate ID = %d, want %d", got.ID, user.ID)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"empty name", "", "a@example.com", "long enough"},
		{"empty email", "Alice", "", "long enough"},
		{"malformed email", "Alice", "not-an-email", "long enough"},
		{"short password", "Alice", "a@example.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.userName, tt.email, tt.password); err == nil {
				t.Error("Register succeeded, want error")
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "alice@example.com", "long enough"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, "Other", "ALICE@example.com", "long enough")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register duplicate error = %v, want ErrEmailTaken", err)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "alice@example.com", "long enough"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "alice@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "long enough"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSessionManager(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	defer sm.Stop()

	token := sm.Create(42)
	if token == "" {
		t.Fatal("Create returned empty token")
	}

	userID, err := sm.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if userID != 42 {
		t.Errorf("Resolve = %d, want 42", userID)
	}

	if _, err := sm.Resolve("bogus"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Resolve(bogus) error = %v, want ErrSessionNotFound", err)
	}

	sm.Revoke(token)
	if _, err := sm.Resolve(token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Resolve after Revoke error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	sm := NewSessionManager(10 * time.Millisecond)
	defer sm.Stop()

	token := sm.Create(1)
	time.Sleep(20 * time.Millisecond)

	if _, err := sm.Resolve(token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Resolve after expiry error = %v, want ErrSessionNotFound", err)
	}

	sm.cleanExpired()
	if sm.Count() != 0 {
		t.Errorf("Count after cleanup = %d, want 0", sm.Count())
	}
}
