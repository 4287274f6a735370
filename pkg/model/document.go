package model

// Document is the unit of retrieval: a short self-contained text snippet
// with a stable identifier. Documents are created once when the corpus is
// seeded and are immutable afterwards.
type Document struct {
	ID      string `json:"id" yaml:"id"`
	Content string `json:"content" yaml:"content"`
}

// GraphData holds the numeric series extracted from a rendered figure. It is
// cached together with the retrieval context that produced it, so a
// follow-up question referencing "this chart" can be answered without
// re-retrieving or re-plotting.
type GraphData struct {
	Title  string    `json:"title"`
	XLabel string    `json:"xlabel"`
	YLabel string    `json:"ylabel"`
	XData  []float64 `json:"xdata"`
	YData  []float64 `json:"ydata"`
}
