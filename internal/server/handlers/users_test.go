package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/doghouse/doghouse/internal/auth"
	apierrors "github.com/doghouse/doghouse/internal/errors"
	"github.com/doghouse/doghouse/internal/jsondb"
	"github.com/doghouse/doghouse/internal/models"
	"github.com/doghouse/doghouse/internal/storage"
)

func newTestServices(t *testing.T) (*storage.UserService, *storage.DogService, *auth.Issuer) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "doghouse-handlers-test-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })

	db, err := jsondb.Open(filepath.Join(tempDir, "db.json"), jsondb.Seed)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	return storage.NewUserService(db), storage.NewDogService(db), auth.NewIssuer([]byte("secret"), time.Hour)
}

func asUser(user *models.User) context.Context {
	return context.WithValue(context.Background(), models.UserKey, user)
}

func expectStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a %d error, got nil", status)
	}
	var ews apierrors.ErrorWithStatus
	if !errors.As(err, &ews) || ews.StatusCode() != status {
		t.Errorf("expected a %d error, got %v", status, err)
	}
}

func TestSignup(t *testing.T) {
	users, _, issuer := newTestServices(t)
	h := NewUserHandler(users, issuer)
	ctx := context.Background()

	resp, err := h.Signup(ctx, SignupRequest{Email: "joe@example.com", Password: "password", Name: "Joe"})
	if err != nil {
		t.Fatalf("Failed to sign up Joe: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("Expected a non-empty token")
	}

	// The token resolves back to the new user
	userID, err := issuer.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("Failed to verify token: %v", err)
	}
	if userID != resp.ID {
		t.Errorf("Token names user %d, expected %d", userID, resp.ID)
	}

	// Missing fields
	_, err = h.Signup(ctx, SignupRequest{Email: "", Password: "x"})
	expectStatus(t, err, 400)

	// Duplicate email
	_, err = h.Signup(ctx, SignupRequest{Email: "joe@example.com", Password: "y", Name: "Other"})
	expectStatus(t, err, 409)
}

func TestLogin(t *testing.T) {
	users, _, issuer := newTestServices(t)
	h := NewUserHandler(users, issuer)
	ctx := context.Background()

	if _, err := h.Signup(ctx, SignupRequest{Email: "joe@example.com", Password: "password", Name: "Joe"}); err != nil {
		t.Fatal(err)
	}

	resp, err := h.Login(ctx, LoginRequest{Email: "joe@example.com", Password: "password"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("Expected a non-empty token")
	}

	_, err = h.Login(ctx, LoginRequest{Email: "joe@example.com", Password: "wrong"})
	expectStatus(t, err, 401)

	_, err = h.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password"})
	expectStatus(t, err, 401)
}

func TestUpdateUserOwnership(t *testing.T) {
	users, _, issuer := newTestServices(t)
	h := NewUserHandler(users, issuer)
	ctx := context.Background()

	joe, err := h.Signup(ctx, SignupRequest{Email: "joe@example.com", Password: "p", Name: "Joe"})
	if err != nil {
		t.Fatal(err)
	}
	alice, err := h.Signup(ctx, SignupRequest{Email: "alice@example.com", Password: "p", Name: "Alice"})
	if err != nil {
		t.Fatal(err)
	}

	joeUser, err := users.GetByID(joe.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Joe cannot touch Alice
	name := "Hacked"
	_, err = h.UpdateUser(asUser(joeUser), UpdateUserRequest{ID: formatID(alice.ID), Name: &name})
	expectStatus(t, err, 401)
	_, err = h.DeleteUser(asUser(joeUser), DeleteUserRequest{ID: formatID(alice.ID)})
	expectStatus(t, err, 401)

	// Joe can rename himself
	name = "Joseph"
	updated, err := h.UpdateUser(asUser(joeUser), UpdateUserRequest{ID: formatID(joe.ID), Name: &name})
	if err != nil {
		t.Fatalf("Self update failed: %v", err)
	}
	if updated.Name != "Joseph" {
		t.Errorf("Expected name Joseph, got %s", updated.Name)
	}

	// Unauthenticated context
	_, err = h.UpdateUser(ctx, UpdateUserRequest{ID: formatID(joe.ID), Name: &name})
	expectStatus(t, err, 401)
}
