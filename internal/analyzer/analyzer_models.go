package analyzer

import (
	"encoding/json"
	"fmt"

	"github.com/raysh454/centinela/internal/model"
)

// wireResult mirrors the service's success body. Pointers distinguish a
// missing (or null) field from a zero value.
type wireResult struct {
	URL     *string  `json:"url"`
	Title   *string  `json:"title"`
	Summary *string  `json:"summary"`
	Score   *float64 `json:"score"`
	Label   *string  `json:"label"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// decodeResult parses body into an AnalysisResult. Every field is required and
// score must lie in [0, 1]; unknown fields are ignored.
func decodeResult(body []byte) (*model.AnalysisResult, error) {
	var w wireResult
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, err
	}

	missing := func(name string) error { return fmt.Errorf("missing field %q", name) }
	switch {
	case w.URL == nil:
		return nil, missing("url")
	case w.Title == nil:
		return nil, missing("title")
	case w.Summary == nil:
		return nil, missing("summary")
	case w.Score == nil:
		return nil, missing("score")
	case w.Label == nil:
		return nil, missing("label")
	}
	if *w.Score < 0 || *w.Score > 1 {
		return nil, fmt.Errorf("score %v outside [0, 1]", *w.Score)
	}

	return &model.AnalysisResult{
		URL:     *w.URL,
		Title:   *w.Title,
		Summary: *w.Summary,
		Score:   *w.Score,
		Label:   model.Label(*w.Label),
	}, nil
}
