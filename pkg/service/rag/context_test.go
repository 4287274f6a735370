package rag_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/sante-qc/chatsante/pkg/model"
	"github.com/sante-qc/chatsante/pkg/service/rag"
)

func userTurn(content string) *model.Message {
	return &model.Message{Role: model.RoleUser, Content: content}
}

func botTurn(content string) *model.Message {
	return &model.Message{Role: model.RoleBot, Content: content, Kind: model.KindText}
}

func seededStore(t *testing.T, embedder *stubEmbedder) *rag.DocumentStore {
	t.Helper()
	store := rag.NewStore(embedder)
	gt.NoError(t, store.Index(context.Background(), []model.Document{
		{ID: "1", Content: "asthme Montréal 2020 22%"},
		{ID: "2", Content: "urgences Québec 2023 88%"},
	}))
	return store
}

func lastCall(e *stubEmbedder) string {
	if len(e.calls) == 0 {
		return ""
	}
	return e.calls[len(e.calls)-1]
}

func TestBuildContextSingleTurn(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"asthme":                   {1, 0},
		"asthme Montréal 2020 22%": {1, 0},
		"urgences Québec 2023 88%": {0, 1},
	}}
	store := seededStore(t, embedder)

	ctx, err := rag.BuildContext(context.Background(), []*model.Message{userTurn("asthme")},
		embedder, store, rag.DefaultThreshold, 1)
	gt.NoError(t, err)
	gt.S(t, ctx).Contains("asthme")
	// The single question is the query, verbatim
	gt.Equal(t, lastCall(embedder), "asthme")
}

func TestBuildContextContinuityMerge(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"asthme Montréal": {1, 0},
		"et en 2023?":     {1, 0}, // identical: similarity 1.0
	}}
	store := seededStore(t, embedder)

	turns := []*model.Message{
		userTurn("asthme Montréal"),
		botTurn("Les cas d'asthme..."),
		userTurn("et en 2023?"),
	}

	_, err := rag.BuildContext(context.Background(), turns, embedder, store, rag.DefaultThreshold, 2)
	gt.NoError(t, err)
	gt.Equal(t, lastCall(embedder), "asthme Montréal et en 2023?")
}

func TestBuildContextTopicSwitch(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"asthme Montréal": {1, 0},
		"et en 2023?":     {0, 1}, // orthogonal: similarity 0.0
	}}
	store := seededStore(t, embedder)

	turns := []*model.Message{
		userTurn("asthme Montréal"),
		botTurn("Les cas d'asthme..."),
		userTurn("et en 2023?"),
	}

	_, err := rag.BuildContext(context.Background(), turns, embedder, store, rag.DefaultThreshold, 2)
	gt.NoError(t, err)
	gt.Equal(t, lastCall(embedder), "et en 2023?")
}

func TestBuildContextThresholdBoundary(t *testing.T) {
	// Similarity exactly equal to the threshold must merge
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"asthme Montréal": {1, 0},
		"et en 2023?":     {1, 0}, // similarity exactly 1.0
	}}
	store := seededStore(t, embedder)

	turns := []*model.Message{
		userTurn("asthme Montréal"),
		userTurn("et en 2023?"),
	}

	_, err := rag.BuildContext(context.Background(), turns, embedder, store, 1.0, 2)
	gt.NoError(t, err)
	gt.Equal(t, lastCall(embedder), "asthme Montréal et en 2023?")
}

func TestBuildContextNoUserTurns(t *testing.T) {
	embedder := &stubEmbedder{}
	store := rag.NewStore(embedder) // empty on purpose: it must not be touched

	ctx, err := rag.BuildContext(context.Background(), []*model.Message{botTurn("Bonjour !")},
		embedder, store, rag.DefaultThreshold, 2)
	gt.NoError(t, err)
	gt.Equal(t, ctx, "")
	gt.Equal(t, len(embedder.calls), 0)
}

func TestBuildContextEmbeddingFallback(t *testing.T) {
	// The continuity check embeds two texts at once; when that fails the
	// builder degrades to current-question-only retrieval.
	embedder := &stubEmbedder{failBatch: true}
	store := rag.NewStore(embedder)
	gt.NoError(t, store.Index(context.Background(), []model.Document{
		{ID: "1", Content: "asthme Montréal 2020 22%"},
	}))

	turns := []*model.Message{
		userTurn("asthme Montréal"),
		userTurn("et en 2023?"),
	}

	ctx, err := rag.BuildContext(context.Background(), turns, embedder, store, rag.DefaultThreshold, 2)
	gt.NoError(t, err)
	gt.S(t, ctx).Contains("asthme")
	gt.Equal(t, lastCall(embedder), "et en 2023?")
}

func TestContextAllDocs(t *testing.T) {
	embedder := &stubEmbedder{}
	store := seededStore(t, embedder)

	ctx, err := rag.Context(context.Background(), store, "", true, 0)
	gt.NoError(t, err)
	gt.Equal(t, ctx, "asthme Montréal 2020 22%\nurgences Québec 2023 88%")
}

func TestContextSingleQuery(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"asthme":                   {1, 0},
		"asthme Montréal 2020 22%": {1, 0},
		"urgences Québec 2023 88%": {0, 1},
	}}
	store := seededStore(t, embedder)

	ctx, err := rag.Context(context.Background(), store, "asthme", false, 1)
	gt.NoError(t, err)
	gt.Equal(t, ctx, "asthme Montréal 2020 22%")
}
