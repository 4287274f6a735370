package chat

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/sante-qc/chatsante/pkg/adapter"
	"github.com/sante-qc/chatsante/pkg/model"
	"github.com/sante-qc/chatsante/pkg/utils/logging"
)

//go:embed prompt/classify.md
var classifyPromptRaw string

var classifyPromptTmpl = template.Must(template.New("classify").Parse(classifyPromptRaw))

// analysisSchema validates the classification object the model returns.
var analysisSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"data_available":      {Type: "boolean"},
		"needs_visualization": {Type: "boolean"},
		"response_type":       {Type: "string", Enum: []any{"graph", "text"}},
		"explanation":         {Type: "string"},
	},
	Required: []string{"data_available", "needs_visualization", "response_type", "explanation"},
}

var resolvedAnalysisSchema = func() *jsonschema.Resolved {
	resolved, err := analysisSchema.Resolve(nil)
	if err != nil {
		panic(err)
	}
	return resolved
}()

type analysisPayload struct {
	DataAvailable      bool   `json:"data_available"`
	NeedsVisualization bool   `json:"needs_visualization"`
	ResponseType       string `json:"response_type"`
	Explanation        string `json:"explanation"`
}

// visualization trigger words for the fallback heuristic
var vizKeywords = []string{"montre", "trace", "affiche", "compare"}

const fallbackExplanation = "Analyse automatique par défaut."

// Classify decides whether domain data is available for the question and
// whether the expected answer is a chart or text. Judgment is delegated to
// the LLM through a structured-output prompt; any upstream failure or
// malformed reply degrades to a deterministic keyword heuristic. Classify
// never fails: it is the last line of defense against an uncooperative
// model, and the upstream call is not retried.
func Classify(ctx context.Context, llm adapter.LLM, question, ragContext string) *model.Analysis {
	logger := logging.From(ctx)

	var buf bytes.Buffer
	if err := classifyPromptTmpl.Execute(&buf, map[string]any{
		"Question": question,
		"Context":  ragContext,
	}); err != nil {
		logger.Warn("failed to render classify prompt", "error", err)
		return fallbackAnalysis(question)
	}

	raw, err := llm.Complete(ctx, buf.String())
	if err != nil {
		logger.Warn("classification call failed, using fallback", "error", err)
		return fallbackAnalysis(question)
	}

	span, ok := extractJSONObject(raw)
	if !ok {
		logger.Warn("no JSON object in classification reply")
		return fallbackAnalysis(question)
	}

	var generic map[string]any
	if err := json.Unmarshal([]byte(span), &generic); err != nil {
		logger.Warn("failed to decode classification reply", "error", err)
		return fallbackAnalysis(question)
	}
	if err := resolvedAnalysisSchema.Validate(generic); err != nil {
		logger.Warn("classification reply failed schema validation", "error", err)
		return fallbackAnalysis(question)
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		logger.Warn("failed to decode classification payload", "error", err)
		return fallbackAnalysis(question)
	}

	kind := model.ResponseKind(payload.ResponseType)
	if err := kind.Validate(); err != nil {
		return fallbackAnalysis(question)
	}

	return &model.Analysis{
		DataAvailable:      payload.DataAvailable,
		NeedsVisualization: payload.NeedsVisualization,
		ResponseKind:       kind,
		Explanation:        payload.Explanation,
		Source:             model.AnalysisParsed,
	}
}

func fallbackAnalysis(question string) *model.Analysis {
	q := strings.ToLower(question)

	needsViz := false
	for _, keyword := range vizKeywords {
		if strings.Contains(q, keyword) {
			needsViz = true
			break
		}
	}

	kind := model.ResponseText
	if strings.Contains(q, "montre") {
		kind = model.ResponseGraph
	}

	return &model.Analysis{
		DataAvailable:      true,
		NeedsVisualization: needsViz,
		ResponseKind:       kind,
		Explanation:        fallbackExplanation,
		Source:             model.AnalysisFallback,
	}
}
