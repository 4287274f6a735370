package rag

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/model"
)

// Embedder converts texts into fixed-dimension vectors, one per input,
// order-preserving.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// DocumentStore is an in-memory vector store over the fixed corpus.
// Documents are embedded once at index time; queries are brute-force cosine
// similarity, which is plenty for a corpus of a few dozen snippets.
//
// Indexing happens once before any retrieval; the RWMutex only guards
// against a store shared across user sessions.
type DocumentStore struct {
	mu       sync.RWMutex
	embedder Embedder
	docs     []model.Document
	vectors  [][]float64
	ids      map[string]struct{}
}

func NewStore(embedder Embedder) *DocumentStore {
	return &DocumentStore{
		embedder: embedder,
		ids:      make(map[string]struct{}),
	}
}

// Index inserts a batch of documents. The batch is all-or-nothing: a
// duplicate ID, within the batch or against already indexed documents,
// rejects the whole batch without mutating the store.
func (s *DocumentStore) Index(ctx context.Context, docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if _, ok := s.ids[doc.ID]; ok {
			return goerr.Wrap(model.ErrDuplicateID, "document already indexed", goerr.V("id", doc.ID))
		}
		if _, ok := seen[doc.ID]; ok {
			return goerr.Wrap(model.ErrDuplicateID, "duplicate id within batch", goerr.V("id", doc.ID))
		}
		seen[doc.ID] = struct{}{}
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return goerr.Wrap(err, "failed to embed documents")
	}
	if len(vectors) != len(docs) {
		return goerr.Wrap(model.ErrEmbedding, "vector count mismatch",
			goerr.V("docs", len(docs)), goerr.V("vectors", len(vectors)))
	}

	s.docs = append(s.docs, docs...)
	s.vectors = append(s.vectors, vectors...)
	for id := range seen {
		s.ids[id] = struct{}{}
	}
	return nil
}

// Query returns the k documents nearest to text by cosine similarity,
// descending. Ties keep insertion order. A store holding fewer than k
// documents returns all of them.
func (s *DocumentStore) Query(ctx context.Context, text string, k int) ([]model.Document, error) {
	if k <= 0 {
		return nil, goerr.New("k must be a positive integer", goerr.V("k", k))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.docs) == 0 {
		return nil, goerr.Wrap(model.ErrEmptyStore, "query before index")
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}
	query := vectors[0]

	scores := make([]float64, len(s.vectors))
	for i, vec := range s.vectors {
		scores[i] = Cosine(query, vec)
	}

	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	// Stable keeps insertion order among equal scores
	sort.SliceStable(idxs, func(a, b int) bool {
		return scores[idxs[a]] > scores[idxs[b]]
	})

	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]model.Document, 0, k)
	for _, idx := range idxs[:k] {
		results = append(results, s.docs[idx])
	}
	return results, nil
}

// All returns every document in insertion order.
func (s *DocumentStore) All() ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.docs) == 0 {
		return nil, goerr.Wrap(model.ErrEmptyStore, "listing before index")
	}

	docs := make([]model.Document, len(s.docs))
	copy(docs, s.docs)
	return docs, nil
}

// Size returns the number of indexed documents.
func (s *DocumentStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Cosine returns the cosine similarity of two vectors, 0 when either has
// zero norm.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
