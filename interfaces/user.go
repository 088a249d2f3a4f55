package interfaces

import (
	"context"

	"github.com/byteshifted/mailpanel/internal/models"
)

type UserService interface {
	// UpsertCurrentUser creates or refreshes the user record from the
	// verified identity carried in the request context.
	UpsertCurrentUser(ctx context.Context) (*models.User, error)
	GetUserStats(ctx context.Context) (*models.UserStats, error)
}
