package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/model"
)

// localRepo stores one JSON file per user: an array of conversation objects.
type localRepo struct {
	dir string
}

// NewLocal creates a file-based repository rooted at dir.
func NewLocal(dir string) (Repository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create history directory", goerr.V("dir", dir))
	}
	return &localRepo{dir: dir}, nil
}

func (r *localRepo) path(userID string) string {
	return filepath.Join(r.dir, userID+".json")
}

func (r *localRepo) Load(ctx context.Context, userID string) ([]*model.Conversation, error) {
	data, err := os.ReadFile(r.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read history file", goerr.V("user_id", userID))
	}

	var conversations []*model.Conversation
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal history", goerr.V("user_id", userID))
	}
	return conversations, nil
}

func (r *localRepo) Save(ctx context.Context, userID string, conversations []*model.Conversation) error {
	data, err := json.MarshalIndent(conversations, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal history", goerr.V("user_id", userID))
	}

	if err := os.WriteFile(r.path(userID), data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write history file", goerr.V("user_id", userID))
	}
	return nil
}
