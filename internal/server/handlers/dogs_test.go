package handlers

import (
	"context"
	"strconv"
	"testing"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestDogOwnership(t *testing.T) {
	users, dogs, _ := newTestServices(t)
	h := NewDogHandler(dogs)

	owner, err := users.Create("owner@example.com", "p", "Owner")
	if err != nil {
		t.Fatal(err)
	}
	intruder, err := users.Create("intruder@example.com", "p", "Intruder")
	if err != nil {
		t.Fatal(err)
	}

	dog, err := h.CreateDog(asUser(owner), CreateDogRequest{Fields: map[string]any{"name": "Rex"}})
	if err != nil {
		t.Fatalf("CreateDog failed: %v", err)
	}
	if dog.Owner != owner.ID {
		t.Errorf("Expected owner %d, got %d", owner.ID, dog.Owner)
	}

	// Non-owner mutations fail and leave the dog unchanged
	_, err = h.UpdateDog(asUser(intruder), UpdateDogRequest{ID: formatID(dog.ID), Fields: map[string]any{"name": "Stolen"}})
	expectStatus(t, err, 401)
	_, err = h.DeleteDog(asUser(intruder), DeleteDogRequest{ID: formatID(dog.ID)})
	expectStatus(t, err, 401)

	got, err := h.GetDog(context.Background(), GetDogRequest{ID: formatID(dog.ID)})
	if err != nil {
		t.Fatalf("GetDog failed: %v", err)
	}
	if got.Fields["name"] != "Rex" {
		t.Errorf("Dog changed by unauthorized mutation: %+v", got.Fields)
	}

	// Owner mutations succeed
	updated, err := h.UpdateDog(asUser(owner), UpdateDogRequest{ID: formatID(dog.ID), Fields: map[string]any{"name": "Rexy"}})
	if err != nil {
		t.Fatalf("UpdateDog failed: %v", err)
	}
	if updated.Fields["name"] != "Rexy" || updated.ID != dog.ID || updated.Owner != owner.ID {
		t.Errorf("Unexpected update result: %+v", updated)
	}

	if _, err := h.DeleteDog(asUser(owner), DeleteDogRequest{ID: formatID(dog.ID)}); err != nil {
		t.Fatalf("DeleteDog failed: %v", err)
	}
	_, err = h.GetDog(context.Background(), GetDogRequest{ID: formatID(dog.ID)})
	expectStatus(t, err, 404)
}

func TestGetDogBadID(t *testing.T) {
	_, dogs, _ := newTestServices(t)
	h := NewDogHandler(dogs)

	_, err := h.GetDog(context.Background(), GetDogRequest{ID: "not-a-number"})
	expectStatus(t, err, 400)
}

func TestGetDogMissing(t *testing.T) {
	_, dogs, _ := newTestServices(t)
	h := NewDogHandler(dogs)

	_, err := h.GetDog(context.Background(), GetDogRequest{ID: "12345"})
	expectStatus(t, err, 404)
}
