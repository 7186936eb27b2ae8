// Package handlers contains the typed request handlers behind the router.
package handlers

import (
	"context"
	"strconv"

	apierrors "github.com/doghouse/doghouse/internal/errors"
	"github.com/doghouse/doghouse/internal/models"
)

// requesterFrom returns the authenticated user placed in the context by the
// auth middleware.
func requesterFrom(ctx context.Context) (*models.User, error) {
	user, ok := ctx.Value(models.UserKey).(*models.User)
	if !ok {
		return nil, apierrors.Unauthenticated("Not authenticated")
	}
	return user, nil
}

// parseID parses a path id. Ids compare numerically, never lexically.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apierrors.BadRequest("Invalid id: " + raw)
	}
	return id, nil
}
