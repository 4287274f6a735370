package model

import "github.com/m-mizutani/goerr/v2"

var ErrInvalidResponseKind = goerr.New("invalid response kind")

// ResponseKind is the expected shape of the answer to a question.
type ResponseKind string

const (
	ResponseGraph ResponseKind = "graph"
	ResponseText  ResponseKind = "text"
)

// Validate checks if the response kind is valid
func (k ResponseKind) Validate() error {
	switch k {
	case ResponseGraph, ResponseText:
		return nil
	default:
		return goerr.Wrap(ErrInvalidResponseKind, "unknown kind", goerr.V("kind", k))
	}
}

// AnalysisSource records how a classification was obtained: parsed from the
// model's structured reply, or synthesized by the keyword fallback.
type AnalysisSource string

const (
	AnalysisParsed   AnalysisSource = "parsed"
	AnalysisFallback AnalysisSource = "fallback"
)

// Analysis is the per-turn intent/response-shape classification. It gates
// whether retrieval context is used downstream and whether the answer is
// rendered as a chart.
type Analysis struct {
	DataAvailable      bool
	NeedsVisualization bool
	ResponseKind       ResponseKind
	Explanation        string
	Source             AnalysisSource
}
