package handlers

import (
	"context"
	"encoding/json"

	"github.com/doghouse/doghouse/internal/auth"
	apierrors "github.com/doghouse/doghouse/internal/errors"
	"github.com/doghouse/doghouse/internal/models"
	"github.com/doghouse/doghouse/internal/storage"
)

// DogHandler handles dog CRUD with owner-only mutation.
type DogHandler struct {
	dogs *storage.DogService
}

// NewDogHandler creates a new dog handler.
func NewDogHandler(dogs *storage.DogService) *DogHandler {
	return &DogHandler{dogs: dogs}
}

// ListDogsRequest is a request to list all dogs (empty).
type ListDogsRequest struct{}

// ListDogs returns all dogs in insertion order.
func (h *DogHandler) ListDogs(ctx context.Context, req ListDogsRequest) (*[]*models.Dog, error) {
	dogs, err := h.dogs.List()
	if err != nil {
		return nil, err
	}
	return &dogs, nil
}

// GetDogRequest is a request to fetch one dog.
type GetDogRequest struct {
	ID string `path:"id"`
}

// GetDog returns one dog by id.
func (h *DogHandler) GetDog(ctx context.Context, req GetDogRequest) (*models.Dog, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	return h.dogs.Get(id)
}

// CreateDogRequest carries the arbitrary fields of a new dog.
type CreateDogRequest struct {
	Fields map[string]any
}

// UnmarshalJSON accepts any JSON object; the field set is caller-defined.
func (r *CreateDogRequest) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Fields)
}

// CreateDog inserts a dog owned by the requester.
func (h *DogHandler) CreateDog(ctx context.Context, req CreateDogRequest) (*models.Dog, error) {
	requester, err := requesterFrom(ctx)
	if err != nil {
		return nil, err
	}
	return h.dogs.Create(requester.ID, req.Fields)
}

// UpdateDogRequest carries a partial dog next to its path id.
type UpdateDogRequest struct {
	ID     string `path:"id"`
	Fields map[string]any
}

// UnmarshalJSON accepts any JSON object; the field set is caller-defined.
func (r *UpdateDogRequest) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Fields)
}

// UpdateDog merges the supplied fields into a dog. Owner only.
func (h *DogHandler) UpdateDog(ctx context.Context, req UpdateDogRequest) (*models.Dog, error) {
	requester, err := requesterFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	dog, err := h.dogs.Get(id)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutate(requester.ID, dog.Owner) {
		return nil, apierrors.Unauthorized()
	}
	return h.dogs.Update(id, req.Fields)
}

// DeleteDogRequest is a request to delete one dog.
type DeleteDogRequest struct {
	ID string `path:"id"`
}

// DeleteDog removes a dog. Owner only.
func (h *DogHandler) DeleteDog(ctx context.Context, req DeleteDogRequest) (*struct{}, error) {
	requester, err := requesterFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	dog, err := h.dogs.Get(id)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutate(requester.ID, dog.Owner) {
		return nil, apierrors.Unauthorized()
	}
	if err := h.dogs.Delete(id); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
