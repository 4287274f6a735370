package rag

import (
	"context"
	_ "embed"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/model"
	"gopkg.in/yaml.v3"
)

//go:embed corpus.yml
var defaultCorpusRaw []byte

type corpusFile struct {
	Documents []model.Document `yaml:"documents"`
}

func parseCorpus(data []byte) ([]model.Document, error) {
	var corpus corpusFile
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal corpus")
	}
	if len(corpus.Documents) == 0 {
		return nil, goerr.New("corpus has no documents")
	}
	for _, doc := range corpus.Documents {
		if doc.ID == "" || doc.Content == "" {
			return nil, goerr.New("corpus document missing id or content", goerr.V("id", doc.ID))
		}
	}
	return corpus.Documents, nil
}

// DefaultCorpus returns the built-in health statistics documents.
func DefaultCorpus() ([]model.Document, error) {
	return parseCorpus(defaultCorpusRaw)
}

// LoadCorpus reads a replacement corpus from a YAML file.
func LoadCorpus(path string) ([]model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read corpus file", goerr.V("path", path))
	}
	return parseCorpus(data)
}

// IndexDefaults seeds the store with the built-in corpus.
func IndexDefaults(ctx context.Context, store *DocumentStore) error {
	docs, err := DefaultCorpus()
	if err != nil {
		return err
	}
	return store.Index(ctx, docs)
}
