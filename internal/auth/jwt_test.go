package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

const testSecret = "test-secret-at-least-32-chars-long-for-security"

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager(testSecret, "loklernen-test", 15*time.Minute)
	learnerID := uuid.New()

	token, err := manager.GenerateAccessToken(learnerID)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	got, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if got != learnerID {
		t.Errorf("learner id = %s, want %s", got, learnerID)
	}
}

func TestJWTManager_Validate_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewJWTManager(testSecret, "loklernen-test", 15*time.Minute)
	verifier := NewJWTManager("another-secret-also-32-chars-long-aaaa", "loklernen-test", 15*time.Minute)

	token, err := issuer.GenerateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := verifier.ValidateAccessToken(token); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestJWTManager_Validate_WrongIssuer(t *testing.T) {
	t.Parallel()

	issuer := NewJWTManager(testSecret, "someone-else", 15*time.Minute)
	verifier := NewJWTManager(testSecret, "loklernen-test", 15*time.Minute)

	token, err := issuer.GenerateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	_, err = verifier.ValidateAccessToken(token)
	if err == nil || !strings.Contains(err.Error(), "issuer") {
		t.Fatalf("ValidateAccessToken() error = %v, want issuer mismatch", err)
	}
}

func TestJWTManager_Validate_Expired(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager(testSecret, "loklernen-test", -time.Minute)

	token, err := manager.GenerateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := manager.ValidateAccessToken(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestJWTManager_Validate_Garbage(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager(testSecret, "loklernen-test", 15*time.Minute)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := manager.ValidateAccessToken(token); err == nil {
			t.Errorf("ValidateAccessToken(%q) expected error", token)
		}
	}
}

func TestEntitlement_CanAccess(t *testing.T) {
	t.Parallel()

	e := NewEntitlement(nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		learnerID uuid.UUID
		category  domain.Category
		want      bool
	}{
		{"guest can study signals", uuid.Nil, domain.CategorySignal, true},
		{"guest cannot study operations", uuid.Nil, domain.CategoryOperations, false},
		{"learner can study signals", uuid.New(), domain.CategorySignal, true},
		{"learner can study operations", uuid.New(), domain.CategoryOperations, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := e.CanAccess(ctx, tt.learnerID, tt.category)
			if err != nil {
				t.Fatalf("CanAccess() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanAccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntitlement_ConfiguredOpenCategories(t *testing.T) {
	t.Parallel()

	e := NewEntitlement([]string{"SIGNAL", "OPERATIONS"})

	got, err := e.CanAccess(context.Background(), uuid.Nil, domain.CategoryOperations)
	if err != nil {
		t.Fatalf("CanAccess() error = %v", err)
	}
	if !got {
		t.Error("configured open category denied to guests")
	}
}

func TestEntitlement_BlankEntriesFallBackToSignal(t *testing.T) {
	t.Parallel()

	// Splitting an unset env value produces a single empty segment;
	// it must not shadow the SIGNAL fallback.
	tests := []struct {
		name string
		open []string
	}{
		{"single empty segment", []string{""}},
		{"whitespace only", []string{"  ", ""}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := NewEntitlement(tt.open)

			got, err := e.CanAccess(context.Background(), uuid.Nil, domain.CategorySignal)
			if err != nil {
				t.Fatalf("CanAccess() error = %v", err)
			}
			if !got {
				t.Error("guest locked out of signals")
			}

			got, err = e.CanAccess(context.Background(), uuid.Nil, domain.Category(""))
			if err != nil {
				t.Fatalf("CanAccess() error = %v", err)
			}
			if got {
				t.Error("empty category treated as open")
			}
		})
	}
}

func TestEntitlement_TrimsConfiguredEntries(t *testing.T) {
	t.Parallel()

	e := NewEntitlement([]string{" SIGNAL ", " OPERATIONS"})

	got, err := e.CanAccess(context.Background(), uuid.Nil, domain.CategoryOperations)
	if err != nil {
		t.Fatalf("CanAccess() error = %v", err)
	}
	if !got {
		t.Error("padded open category denied to guests")
	}
}
