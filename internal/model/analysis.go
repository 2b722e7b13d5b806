package model

import "strings"

// Label is the categorical classification returned by the Analysis Service.
// The set is open: the service may introduce labels not listed here.
type Label string

const (
	LabelLow    Label = "LOW"
	LabelMedium Label = "MEDIUM"
	LabelHigh   Label = "HIGH"
)

// Known reports whether l is one of the labels this client knows how to describe.
func (l Label) Known() bool {
	switch l {
	case LabelLow, LabelMedium, LabelHigh:
		return true
	}
	return false
}

// AnalysisRequest is the unvalidated text an operator typed in.
type AnalysisRequest struct {
	RawInput string
}

// TrimmedURL is RawInput without surrounding whitespace. An empty result
// means the request must not reach the network.
func (r AnalysisRequest) TrimmedURL() string {
	return strings.TrimSpace(r.RawInput)
}

// AnalyzePayload is the body sent to POST <base>/analyze.
type AnalyzePayload struct {
	URL string `json:"url"`
}

// AnalysisResult is the classification produced by a successful analysis.
type AnalysisResult struct {
	// URL is the analyzed URL as echoed by the service.
	URL     string `json:"url"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	// Score is a confidence/risk value in [0, 1].
	Score float64 `json:"score"`
	Label Label   `json:"label"`
}
