package repository

import (
	"context"

	"github.com/sante-qc/chatsante/pkg/model"
)

// Repository defines the interface for per-user conversation persistence.
// The unit of storage is the full conversation list of one user.
type Repository interface {
	// Load retrieves all conversations of a user. An unknown user yields an
	// empty list, not an error.
	Load(ctx context.Context, userID string) ([]*model.Conversation, error)

	// Save persists all conversations of a user, replacing the previous
	// state.
	Save(ctx context.Context, userID string, conversations []*model.Conversation) error
}
