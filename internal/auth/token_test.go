package auth

import (
	"errors"
	"testing"
	"time"

	apierrors "github.com/doghouse/doghouse/internal/errors"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)

	token, err := issuer.Issue(1234567890)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("Expected a non-empty token")
	}

	userID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != 1234567890 {
		t.Errorf("Expected user id 1234567890, got %d", userID)
	}
}

func TestVerifyFailures(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)

	expired, err := NewIssuer([]byte("secret"), -time.Minute).Issue(1)
	if err != nil {
		t.Fatal(err)
	}
	forged, err := NewIssuer([]byte("other-secret"), time.Hour).Issue(1)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"expired", expired},
		{"wrong signature", forged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			if err == nil {
				t.Fatal("Expected verification to fail")
			}
			var ews apierrors.ErrorWithStatus
			if !errors.As(err, &ews) || ews.StatusCode() != 401 {
				t.Errorf("Expected a 401 error, got %v", err)
			}
		})
	}
}

func TestCanMutate(t *testing.T) {
	if !CanMutate(1, 1) {
		t.Error("Owner must be allowed to mutate")
	}
	if CanMutate(1, 2) {
		t.Error("Non-owner must not be allowed to mutate")
	}
}
