package repository_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/sante-qc/chatsante/pkg/model"
	"github.com/sante-qc/chatsante/pkg/repository"
)

func TestLocalRoundTrip(t *testing.T) {
	repo, err := repository.NewLocal(t.TempDir())
	gt.NoError(t, err)

	ctx := context.Background()
	conv := model.NewConversation()
	conv.AppendUser("Quel est le taux d'asthme à Montréal?")
	conv.AppendBot("22% en 2020.", model.KindText)

	gt.NoError(t, repo.Save(ctx, "alice", []*model.Conversation{conv}))

	loaded, err := repo.Load(ctx, "alice")
	gt.NoError(t, err)
	gt.Equal(t, len(loaded), 1)
	gt.Equal(t, loaded[0].ID, conv.ID)
	gt.Equal(t, loaded[0].Title, conv.Title)
	gt.Equal(t, len(loaded[0].Messages), 2)
	gt.Equal(t, loaded[0].Messages[0].Role, model.RoleUser)
	gt.Equal(t, loaded[0].Messages[1].Content, "22% en 2020.")
}

func TestLocalUnknownUser(t *testing.T) {
	repo, err := repository.NewLocal(t.TempDir())
	gt.NoError(t, err)

	loaded, err := repo.Load(context.Background(), "nobody")
	gt.NoError(t, err)
	gt.Equal(t, len(loaded), 0)
}

func TestLocalFileFormat(t *testing.T) {
	dir := t.TempDir()
	repo, err := repository.NewLocal(dir)
	gt.NoError(t, err)

	ctx := context.Background()
	conv := model.NewConversation()
	conv.AppendUser("Montre-moi l'évolution de l'asthme")
	msg := conv.AppendBot("Graphique généré", model.KindGraph)
	msg.ImageBase64 = "cG5n"
	msg.OriginalQuery = "Montre-moi l'évolution de l'asthme"

	gt.NoError(t, repo.Save(ctx, "alice", []*model.Conversation{conv}))

	data, err := os.ReadFile(filepath.Join(dir, "alice.json"))
	gt.NoError(t, err)

	var raw []map[string]any
	gt.NoError(t, json.Unmarshal(data, &raw))
	gt.Equal(t, len(raw), 1)

	messages := raw[0]["messages"].([]any)
	graphTurn := messages[1].(map[string]any)
	gt.Equal(t, graphTurn["type"], "graph")
	gt.Equal(t, graphTurn["image_base64"], "cG5n")
	gt.Equal(t, graphTurn["original_query"], "Montre-moi l'évolution de l'asthme")
}

func TestLocalCorruptFile(t *testing.T) {
	dir := t.TempDir()
	repo, err := repository.NewLocal(dir)
	gt.NoError(t, err)

	gt.NoError(t, os.WriteFile(filepath.Join(dir, "alice.json"), []byte("pas du json"), 0o644))

	_, err = repo.Load(context.Background(), "alice")
	gt.Error(t, err)
}
