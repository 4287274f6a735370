package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrEmptyStore is returned when the document store is queried before
	// any document has been indexed.
	ErrEmptyStore = goerr.New("document store is empty")

	// ErrDuplicateID is returned when an index batch contains a document ID
	// that already exists, either in the batch itself or in the store.
	ErrDuplicateID = goerr.New("duplicate document id")

	// ErrEmbedding indicates the embedding service could not produce vectors.
	ErrEmbedding = goerr.New("embedding service failed")

	// ErrRateLimited indicates the LLM rejected the request due to rate
	// limiting. Callers substitute a user-visible busy message.
	ErrRateLimited = goerr.New("llm service rate limited")

	// ErrUpstream indicates a hard LLM failure.
	ErrUpstream = goerr.New("llm service failed")

	// ErrNotFound is returned when a conversation does not exist.
	ErrNotFound = goerr.New("not found")
)
