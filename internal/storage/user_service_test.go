package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apierrors "github.com/doghouse/doghouse/internal/errors"
	"github.com/doghouse/doghouse/internal/jsondb"
)

func openTestDB(t *testing.T) *jsondb.DB {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "doghouse-storage-test-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })

	db, err := jsondb.Open(filepath.Join(tempDir, "db.json"), jsondb.Seed)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	return db
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var ews apierrors.ErrorWithStatus
	if !errors.As(err, &ews) {
		t.Fatalf("expected an API error, got %v", err)
	}
	return ews.StatusCode()
}

func TestUserService(t *testing.T) {
	service := NewUserService(openTestDB(t))

	user, err := service.Create("test@example.com", "password123", "Test User")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if user.Email != "test@example.com" {
		t.Errorf("Expected email test@example.com, got %s", user.Email)
	}
	if user.ID == 0 {
		t.Error("Expected a non-zero id")
	}

	// Lookups
	byID, err := service.GetByID(user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Name != "Test User" {
		t.Errorf("Expected name Test User, got %s", byID.Name)
	}
	byEmail, err := service.GetByEmail("test@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("Expected user ID %d, got %d", user.ID, byEmail.ID)
	}

	// Authenticate
	authenticated, err := service.Authenticate("test@example.com", "password123")
	if err != nil {
		t.Fatalf("Authentication failed: %v", err)
	}
	if authenticated.ID != user.ID {
		t.Errorf("Expected user ID %d, got %d", user.ID, authenticated.ID)
	}

	// Authenticate with wrong password
	if _, err := service.Authenticate("test@example.com", "wrongpassword"); err == nil {
		t.Error("Expected authentication to fail with wrong password")
	} else if statusOf(t, err) != 401 {
		t.Errorf("Expected 401, got %d", statusOf(t, err))
	}

	// Duplicate email
	if _, err := service.Create("test@example.com", "other", "Other"); err == nil {
		t.Error("Expected duplicate email to be rejected")
	} else if statusOf(t, err) != 409 {
		t.Errorf("Expected 409, got %d", statusOf(t, err))
	}
}

func TestUserServiceUpdate(t *testing.T) {
	service := NewUserService(openTestDB(t))

	user, err := service.Create("joe@example.com", "password", "Joe")
	if err != nil {
		t.Fatal(err)
	}

	name := "Joseph"
	updated, err := service.Update(user.ID, UserPatch{Name: &name})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Joseph" {
		t.Errorf("Expected name Joseph, got %s", updated.Name)
	}
	if updated.Email != "joe@example.com" {
		t.Errorf("Unpatched email changed: %s", updated.Email)
	}

	// Password change takes effect
	password := "newpassword"
	if _, err := service.Update(user.ID, UserPatch{Password: &password}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := service.Authenticate("joe@example.com", "newpassword"); err != nil {
		t.Errorf("Expected new password to authenticate: %v", err)
	}
	if _, err := service.Authenticate("joe@example.com", "password"); err == nil {
		t.Error("Expected old password to be rejected")
	}

	// Email change to a taken address
	if _, err := service.Create("alice@example.com", "password", "Alice"); err != nil {
		t.Fatal(err)
	}
	taken := "alice@example.com"
	if _, err := service.Update(user.ID, UserPatch{Email: &taken}); err == nil {
		t.Error("Expected email collision to be rejected")
	}

	// Update of a missing user
	if _, err := service.Update(999, UserPatch{Name: &name}); err == nil {
		t.Error("Expected update of missing user to fail")
	} else if statusOf(t, err) != 404 {
		t.Errorf("Expected 404, got %d", statusOf(t, err))
	}
}

func TestUserServiceDelete(t *testing.T) {
	service := NewUserService(openTestDB(t))

	user, err := service.Create("joe@example.com", "password", "Joe")
	if err != nil {
		t.Fatal(err)
	}
	if err := service.Delete(user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := service.GetByID(user.ID); err == nil {
		t.Error("Expected deleted user to be gone")
	}
	if err := service.Delete(user.ID); err == nil {
		t.Error("Expected second delete to fail")
	}
}
