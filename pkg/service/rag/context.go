package rag

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/model"
	"github.com/sante-qc/chatsante/pkg/utils/logging"
)

// DefaultThreshold is the similarity cutoff above which two successive user
// questions are considered the same line of inquiry.
const DefaultThreshold = 0.7

// DefaultTopK is the number of documents retrieved per turn.
const DefaultTopK = 2

// BuildContext computes the effective retrieval query for the current turn
// and returns the newline-joined content of the matching documents.
//
// With a single user turn the query is that turn verbatim. With two or more,
// the cosine similarity between the last two user questions decides whether
// the previous question is merged into the query (similarity >= threshold)
// or discarded as a topic switch. A follow-up like "et en 2023 ?" carries
// almost no retrieval signal on its own, so merging widens recall; merging
// across a topic switch would pollute retrieval with stale terms.
func BuildContext(ctx context.Context, turns []*model.Message, embedder Embedder, store *DocumentStore, threshold float64, k int) (string, error) {
	var questions []string
	for _, m := range turns {
		if m.Role == model.RoleUser {
			questions = append(questions, m.Content)
		}
	}
	if len(questions) == 0 {
		return "", nil
	}

	query := questions[len(questions)-1]
	if len(questions) >= 2 {
		prev := questions[len(questions)-2]
		vectors, err := embedder.Embed(ctx, []string{prev, query})
		if err != nil {
			// Degrade to current-turn-only retrieval instead of failing the
			// whole turn; the query embedding below still gets its chance.
			logging.From(ctx).Warn("continuity check failed, using current question only",
				"error", err)
		} else if Cosine(vectors[0], vectors[1]) >= threshold {
			query = prev + " " + query
		}
	}

	docs, err := store.Query(ctx, query, k)
	if err != nil {
		return "", goerr.Wrap(err, "failed to retrieve context", goerr.V("query", query))
	}

	return joinContents(docs), nil
}

// Context is the simple retrieval mode: either every document in store order
// (allDocs, used for whole-corpus reports) or the top-k match for a single
// query with no history folding.
func Context(ctx context.Context, store *DocumentStore, query string, allDocs bool, k int) (string, error) {
	if allDocs {
		docs, err := store.All()
		if err != nil {
			return "", err
		}
		return joinContents(docs), nil
	}

	docs, err := store.Query(ctx, query, k)
	if err != nil {
		return "", err
	}
	return joinContents(docs), nil
}

func joinContents(docs []model.Document) string {
	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	return strings.Join(contents, "\n")
}
