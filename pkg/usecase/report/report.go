package report

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/adapter"
	"github.com/sante-qc/chatsante/pkg/service/rag"
)

//go:embed prompt/report.md
var reportPromptRaw string

var reportPromptTmpl = template.Must(template.New("report").Parse(reportPromptRaw))

// Generate produces a whole-corpus report: every document is handed to the
// model, bypassing similarity search, since a report is not tied to a single
// conversational query.
func Generate(ctx context.Context, store *rag.DocumentStore, llm adapter.LLM, reportType string) (string, error) {
	corpus, err := rag.Context(ctx, store, "", true, 0)
	if err != nil {
		return "", goerr.Wrap(err, "failed to collect corpus")
	}

	var buf bytes.Buffer
	if err := reportPromptTmpl.Execute(&buf, map[string]any{
		"Type":    reportType,
		"Context": corpus,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render report prompt")
	}

	text, err := llm.Complete(ctx, buf.String())
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate report")
	}
	return text, nil
}

// Export writes a generated report through the configured storage.
func Export(ctx context.Context, storage adapter.Storage, key, text string) error {
	writer, err := storage.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open report writer", goerr.V("key", key))
	}

	if _, err := writer.Write([]byte(text)); err != nil {
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write report", goerr.V("key", key))
	}
	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close report writer", goerr.V("key", key))
	}
	return nil
}
