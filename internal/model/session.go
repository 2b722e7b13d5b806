package model

import "time"

// Phase is the state of a session's request lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// SessionState is a read-only snapshot of the orchestrator's state.
//
// ErrorMessage is non-empty only in PhaseError and Result is non-nil only in
// PhaseSuccess; the two are never set together.
type SessionState struct {
	Phase        Phase           `json:"phase"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Result       *AnalysisResult `json:"result,omitempty"`

	// AttemptID identifies the request that produced the current phase.
	// Empty for Idle and for validation failures, which never reach the network.
	AttemptID string    `json:"attempt_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InFlight reports whether a request is outstanding.
func (s SessionState) InFlight() bool {
	return s.Phase == PhaseSubmitting
}

// Clone returns a copy that shares no memory with s.
func (s SessionState) Clone() SessionState {
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}
