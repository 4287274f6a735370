package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const historyCollection = "histories"

// firestoreRepo implements Repository using Firestore: one document per user
// holding the full conversation list, mirroring the local JSON file layout.
type firestoreRepo struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (Repository, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("project", projectID))
	}

	return &firestoreRepo{client: client}, nil
}

type userHistory struct {
	Conversations []*model.Conversation `firestore:"conversations"`
}

func (r *firestoreRepo) Load(ctx context.Context, userID string) ([]*model.Conversation, error) {
	snap, err := r.client.Collection(historyCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get history document", goerr.V("user_id", userID))
	}

	var history userHistory
	if err := snap.DataTo(&history); err != nil {
		return nil, goerr.Wrap(err, "failed to decode history document", goerr.V("user_id", userID))
	}
	return history.Conversations, nil
}

func (r *firestoreRepo) Save(ctx context.Context, userID string, conversations []*model.Conversation) error {
	doc := r.client.Collection(historyCollection).Doc(userID)
	if _, err := doc.Set(ctx, userHistory{Conversations: conversations}); err != nil {
		return goerr.Wrap(err, "failed to save history document", goerr.V("user_id", userID))
	}
	return nil
}
