package storage

import (
	"errors"

	apierrors "github.com/doghouse/doghouse/internal/errors"
	"github.com/doghouse/doghouse/internal/jsondb"
	"github.com/doghouse/doghouse/internal/models"
)

const dogTable = "dogs"

// DogService handles CRUD over the dogs table.
type DogService struct {
	db *jsondb.DB
}

// NewDogService creates a new dog service.
func NewDogService(db *jsondb.DB) *DogService {
	return &DogService{db: db}
}

func dogFromRow(row jsondb.Row) *models.Dog {
	id, _ := jsondb.Int64(row, "id")
	owner, _ := jsondb.Int64(row, "owner")
	fields := make(map[string]any, len(row))
	for k, v := range row {
		if k == "id" || k == "owner" {
			continue
		}
		fields[k] = v
	}
	return &models.Dog{ID: id, Owner: owner, Fields: fields}
}

// stripReserved drops server-managed keys from caller-supplied fields.
func stripReserved(fields map[string]any) jsondb.Row {
	row := make(jsondb.Row, len(fields))
	for k, v := range fields {
		if k == "id" || k == "owner" {
			continue
		}
		row[k] = v
	}
	return row
}

// List returns all dogs in insertion order.
func (s *DogService) List() ([]*models.Dog, error) {
	rows, err := s.db.Select(dogTable, nil)
	if err != nil {
		return nil, apierrors.InternalWithError("failed to select dogs", err)
	}
	dogs := make([]*models.Dog, 0, len(rows))
	for _, row := range rows {
		dogs = append(dogs, dogFromRow(row))
	}
	return dogs, nil
}

// Get retrieves a dog by id.
func (s *DogService) Get(id int64) (*models.Dog, error) {
	rows, err := s.db.Select(dogTable, jsondb.ByID(id))
	if err != nil {
		return nil, apierrors.InternalWithError("failed to select dog", err)
	}
	if len(rows) == 0 {
		return nil, apierrors.NotFound("dog", id)
	}
	return dogFromRow(rows[0]), nil
}

// Create inserts a new dog owned by owner, carrying the caller-supplied
// fields. id and owner in fields are ignored.
func (s *DogService) Create(owner int64, fields map[string]any) (*models.Dog, error) {
	row := stripReserved(fields)
	row["id"] = NewID()
	row["owner"] = owner
	inserted, err := s.db.Insert(dogTable, row)
	if err != nil {
		return nil, apierrors.InternalWithError("failed to insert dog", err)
	}
	return dogFromRow(inserted), nil
}

// Update merges the caller-supplied fields into the dog with the given id.
// id and owner are immutable; they are stripped from the patch.
func (s *DogService) Update(id int64, fields map[string]any) (*models.Dog, error) {
	merged, err := s.db.Update(dogTable, stripReserved(fields), jsondb.ByID(id))
	if errors.Is(err, jsondb.ErrNoRows) {
		return nil, apierrors.NotFound("dog", id)
	}
	if err != nil {
		return nil, apierrors.InternalWithError("failed to update dog", err)
	}
	return dogFromRow(merged), nil
}

// Delete removes the dog with the given id.
func (s *DogService) Delete(id int64) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.db.Delete(dogTable, jsondb.ByID(id)); err != nil {
		return apierrors.InternalWithError("failed to delete dog", err)
	}
	return nil
}
