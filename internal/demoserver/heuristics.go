package demoserver

import (
	"math"
	"net/url"
	"strings"

	"github.com/raysh454/centinela/internal/model"
)

var suspiciousWords = []string{"free", "promo", "win", "prize", "click"}

// RiskScore is a URL-only heuristic in [0,1]; 0 is safe, 1 very risky.
func RiskScore(u *url.URL) float64 {
	score := 0.0
	if u.Scheme != "https" {
		score += 0.4
	}
	if strings.Count(u.Hostname(), ".") > 2 {
		score += 0.2
	}
	lower := strings.ToLower(u.String())
	for _, w := range suspiciousWords {
		if strings.Contains(lower, w) {
			score += 0.2
			break
		}
	}
	return math.Min(score, 1.0)
}

// LabelFor buckets a score.
func LabelFor(score float64) model.Label {
	switch {
	case score < 0.34:
		return model.LabelLow
	case score < 0.67:
		return model.LabelMedium
	default:
		return model.LabelHigh
	}
}
