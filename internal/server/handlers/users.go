package handlers

import (
	"context"

	"github.com/doghouse/doghouse/internal/auth"
	apierrors "github.com/doghouse/doghouse/internal/errors"
	"github.com/doghouse/doghouse/internal/models"
	"github.com/doghouse/doghouse/internal/storage"
)

// UserHandler handles signup, login and user CRUD.
type UserHandler struct {
	users  *storage.UserService
	issuer *auth.Issuer
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *storage.UserService, issuer *auth.Issuer) *UserHandler {
	return &UserHandler{users: users, issuer: issuer}
}

// SignupRequest is a request to create an account.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ID          int64  `json:"id"`
}

// Signup creates a user and returns an access token for it.
func (h *UserHandler) Signup(ctx context.Context, req SignupRequest) (*TokenResponse, error) {
	user, err := h.users.Create(req.Email, req.Password, req.Name)
	if err != nil {
		return nil, err
	}
	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		return nil, apierrors.InternalWithError("Failed to issue token", err)
	}
	return &TokenResponse{AccessToken: token, ID: user.ID}, nil
}

// LoginRequest is a request to log in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns an access token.
func (h *UserHandler) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apierrors.MissingField("email or password")
	}
	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		return nil, apierrors.InternalWithError("Failed to issue token", err)
	}
	return &TokenResponse{AccessToken: token, ID: user.ID}, nil
}

// GetUserRequest is a request to fetch a user by id.
type GetUserRequest struct {
	ID string `path:"id"`
}

// GetUser returns the public profile of a user.
func (h *UserHandler) GetUser(ctx context.Context, req GetUserRequest) (*models.User, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	return h.users.GetByID(id)
}

// UpdateUserRequest is a request to patch the requester's own account.
type UpdateUserRequest struct {
	ID       string  `path:"id"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
}

// UpdateUser patches a user. Only the account owner may do this.
func (h *UserHandler) UpdateUser(ctx context.Context, req UpdateUserRequest) (*models.User, error) {
	requester, err := requesterFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutate(requester.ID, id) {
		return nil, apierrors.Unauthorized()
	}
	return h.users.Update(id, storage.UserPatch{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
}

// DeleteUserRequest is a request to delete the requester's own account.
type DeleteUserRequest struct {
	ID string `path:"id"`
}

// DeleteUser removes a user. Only the account owner may do this.
func (h *UserHandler) DeleteUser(ctx context.Context, req DeleteUserRequest) (*struct{}, error) {
	requester, err := requesterFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutate(requester.ID, id) {
		return nil, apierrors.Unauthorized()
	}
	if err := h.users.Delete(id); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
