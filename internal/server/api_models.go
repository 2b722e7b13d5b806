package server

import "github.com/raysh454/centinela/internal/monitor"

// SubmitRequest is the raw user input for a new analysis. It is validated
// (trimmed, non-empty) by the session, not by the API.
type SubmitRequest struct {
	URL string `json:"url" example:"https://example.com"`
}

// HealthResponse reports the API itself and the last Analysis Service probe.
type HealthResponse struct {
	Status   string               `json:"status" example:"ok"`
	Analysis monitor.HealthStatus `json:"analysis"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid JSON"`
}
