package storage

import (
	"errors"
	"fmt"
	"sync"

	apierrors "github.com/doghouse/doghouse/internal/errors"
	"github.com/doghouse/doghouse/internal/jsondb"
	"github.com/doghouse/doghouse/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const userTable = "users"

// UserService handles user management and authentication on top of the
// document store.
type UserService struct {
	db *jsondb.DB

	// Serializes the existence-check-then-insert sequence in Create so two
	// concurrent signups cannot both claim the same email.
	mu sync.Mutex
}

// NewUserService creates a new user service.
func NewUserService(db *jsondb.DB) *UserService {
	return &UserService{db: db}
}

func byEmail(email string) jsondb.Predicate {
	return func(row jsondb.Row) bool {
		return row["email"] == email
	}
}

func userFromRow(row jsondb.Row) *models.User {
	id, _ := jsondb.Int64(row, "id")
	email, _ := row["email"].(string)
	name, _ := row["name"].(string)
	return &models.User{ID: id, Email: email, Name: name}
}

// Create registers a new user. The email must not be in use yet.
func (s *UserService) Create(email, password, name string) (*models.User, error) {
	if email == "" {
		return nil, apierrors.MissingField("email")
	}
	if password == "" {
		return nil, apierrors.MissingField("password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.db.Select(userTable, byEmail(email))
	if err != nil {
		return nil, apierrors.InternalWithError("failed to check for existing user", err)
	}
	if len(existing) > 0 {
		return nil, apierrors.Conflict(fmt.Sprintf("a user with email '%s' already exists", email))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierrors.InternalWithError("failed to hash password", err)
	}

	row := jsondb.Row{
		"id":            NewID(),
		"email":         email,
		"name":          name,
		"password_hash": string(hash),
	}
	inserted, err := s.db.Insert(userTable, row)
	if err != nil {
		return nil, apierrors.InternalWithError("failed to insert user", err)
	}
	return userFromRow(inserted), nil
}

// GetByID retrieves a user by id.
func (s *UserService) GetByID(id int64) (*models.User, error) {
	rows, err := s.db.Select(userTable, jsondb.ByID(id))
	if err != nil {
		return nil, apierrors.InternalWithError("failed to select user", err)
	}
	if len(rows) == 0 {
		return nil, apierrors.NotFound("user", id)
	}
	return userFromRow(rows[0]), nil
}

// GetByEmail retrieves a user by email. When multiple rows share an email
// (possible only in documents predating uniqueness enforcement), the first
// one wins.
func (s *UserService) GetByEmail(email string) (*models.User, error) {
	rows, err := s.db.Select(userTable, byEmail(email))
	if err != nil {
		return nil, apierrors.InternalWithError("failed to select user", err)
	}
	if len(rows) == 0 {
		return nil, apierrors.NotFound("user", email)
	}
	return userFromRow(rows[0]), nil
}

// Authenticate verifies user credentials.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	rows, err := s.db.Select(userTable, byEmail(email))
	if err != nil {
		return nil, apierrors.InternalWithError("failed to select user", err)
	}
	if len(rows) == 0 {
		return nil, apierrors.Unauthenticated("Invalid credentials")
	}
	hash, _ := rows[0]["password_hash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, apierrors.Unauthenticated("Invalid credentials")
	}
	return userFromRow(rows[0]), nil
}

// UserPatch describes a partial user update. Nil fields are left unchanged.
type UserPatch struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
}

// Update applies patch to the user with the given id.
func (s *UserService) Update(id int64, patch UserPatch) (*models.User, error) {
	row := jsondb.Row{}
	if patch.Email != nil {
		if *patch.Email == "" {
			return nil, apierrors.MissingField("email")
		}
		s.mu.Lock()
		taken, err := s.db.Select(userTable, func(r jsondb.Row) bool {
			other, _ := jsondb.Int64(r, "id")
			return r["email"] == *patch.Email && other != id
		})
		s.mu.Unlock()
		if err != nil {
			return nil, apierrors.InternalWithError("failed to check for existing user", err)
		}
		if len(taken) > 0 {
			return nil, apierrors.Conflict(fmt.Sprintf("a user with email '%s' already exists", *patch.Email))
		}
		row["email"] = *patch.Email
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, apierrors.MissingField("password")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apierrors.InternalWithError("failed to hash password", err)
		}
		row["password_hash"] = string(hash)
	}
	if patch.Name != nil {
		row["name"] = *patch.Name
	}

	merged, err := s.db.Update(userTable, row, jsondb.ByID(id))
	if errors.Is(err, jsondb.ErrNoRows) {
		return nil, apierrors.NotFound("user", id)
	}
	if err != nil {
		return nil, apierrors.InternalWithError("failed to update user", err)
	}
	return userFromRow(merged), nil
}

// Delete removes the user with the given id.
func (s *UserService) Delete(id int64) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.db.Delete(userTable, jsondb.ByID(id)); err != nil {
		return apierrors.InternalWithError("failed to delete user", err)
	}
	return nil
}
