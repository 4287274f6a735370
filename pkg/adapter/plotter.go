package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/model"
)

// Plotter executes model-authored plotting code and returns the rendered
// figure as PNG bytes along with its extracted numeric series.
//
// Trust boundary: the code argument comes from an LLM and must be treated as
// untrusted. Implementations must run it in an isolated renderer (separate
// process or service), never in this process. The retrieval core only
// consumes the result.
type Plotter interface {
	Render(ctx context.Context, code string) (*model.GraphData, []byte, error)
}

// noPlotter refuses every render request. It is the default so the core
// never executes untrusted code by accident; the chat pipeline records a
// text error turn instead of a chart.
type noPlotter struct{}

func NewNoPlotter() Plotter {
	return &noPlotter{}
}

func (p *noPlotter) Render(ctx context.Context, code string) (*model.GraphData, []byte, error) {
	return nil, nil, goerr.New("no plot renderer configured")
}
