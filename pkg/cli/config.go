package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/adapter"
	"github.com/sante-qc/chatsante/pkg/repository"
	"github.com/sante-qc/chatsante/pkg/service/rag"
	"github.com/sante-qc/chatsante/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Persistence
	historyDir        string
	firestoreProject  string
	firestoreDatabase string

	// Exports
	storageBucket string
	exportDir     string

	// LLM / embeddings
	mistralAPIKey  string
	mistralModel   string
	geminiProject  string
	geminiLocation string
	embeddingModel string

	// Retrieval
	corpusPath   string
	ragThreshold float64
	ragTopK      int64

	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "history-dir",
			Usage:       "Directory for per-user conversation history files",
			Value:       "histories",
			Sources:     cli.EnvVars("CHATSANTE_HISTORY_DIR"),
			Destination: &cfg.historyDir,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID (switches history storage to Firestore)",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.firestoreDatabase,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("CHATSANTE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for LLM and embedding configuration
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mistral-api-key",
			Usage:       "Mistral API key",
			Sources:     cli.EnvVars("MISTRAL_API_KEY"),
			Destination: &cfg.mistralAPIKey,
		},
		&cli.StringFlag{
			Name:        "mistral-model",
			Usage:       "Mistral model for answers",
			Value:       "mistral-medium",
			Sources:     cli.EnvVars("CHATSANTE_MISTRAL_MODEL"),
			Destination: &cfg.mistralModel,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini embeddings",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("CHATSANTE_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
	}
}

// ragFlags returns flags for the adaptive retrieval configuration
func ragFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "corpus",
			Usage:       "Path to a YAML corpus file (default: built-in corpus)",
			Sources:     cli.EnvVars("CHATSANTE_CORPUS"),
			Destination: &cfg.corpusPath,
		},
		&cli.FloatFlag{
			Name:        "rag-threshold",
			Usage:       "Similarity cutoff for merging successive questions (0.0-1.0)",
			Value:       rag.DefaultThreshold,
			Sources:     cli.EnvVars("CHATSANTE_RAG_THRESHOLD"),
			Destination: &cfg.ragThreshold,
		},
		&cli.IntFlag{
			Name:        "rag-top-k",
			Usage:       "Number of documents retrieved per turn",
			Value:       rag.DefaultTopK,
			Sources:     cli.EnvVars("CHATSANTE_RAG_TOP_K"),
			Destination: &cfg.ragTopK,
		},
	}
}

func (c *config) setupLogger() {
	logging.SetDefault(logging.New(c.logLevel, os.Stderr))
}

func (c *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if c.firestoreProject != "" {
		return repository.NewFirestore(ctx, c.firestoreProject, c.firestoreDatabase)
	}
	return repository.NewLocal(c.historyDir)
}

func (c *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	if c.geminiProject == "" {
		return nil, goerr.New("gemini project is required for embeddings (set GEMINI_PROJECT_ID)")
	}
	return adapter.NewGemini(ctx, c.geminiProject, c.geminiLocation,
		adapter.WithEmbeddingModel(c.embeddingModel))
}

// newLLM prefers Mistral when a key is configured, otherwise answers through
// Gemini.
func (c *config) newLLM(gemini *adapter.GeminiClient) (adapter.LLM, error) {
	if c.mistralAPIKey != "" {
		return adapter.NewMistral(c.mistralAPIKey, adapter.WithMistralModel(c.mistralModel))
	}
	if gemini != nil {
		return gemini, nil
	}
	return nil, goerr.New("no LLM configured (set MISTRAL_API_KEY or GEMINI_PROJECT_ID)")
}

// newStore builds the document store and seeds it with the corpus.
func (c *config) newStore(ctx context.Context, embedder rag.Embedder) (*rag.DocumentStore, error) {
	store := rag.NewStore(embedder)

	if c.corpusPath != "" {
		docs, err := rag.LoadCorpus(c.corpusPath)
		if err != nil {
			return nil, err
		}
		if err := store.Index(ctx, docs); err != nil {
			return nil, err
		}
		return store, nil
	}

	if err := rag.IndexDefaults(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

func (c *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if c.storageBucket != "" {
		return adapter.NewStorage(ctx, c.storageBucket)
	}
	return adapter.NewLocalStorage(c.exportDir)
}
