package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/centinela/internal/analyzer"
	"github.com/raysh454/centinela/internal/logging"
	"github.com/raysh454/centinela/internal/metrics"
	"github.com/raysh454/centinela/internal/model"
)

const (
	// ValidationMessage is shown when the input is empty after trimming.
	ValidationMessage = "Por favor ingresa una URL."

	// FallbackNetworkMessage is used when a failure carries no description.
	FallbackNetworkMessage = "Error al conectar con la API."
)

// Outcome tells the caller what a submission did.
type Outcome int

const (
	// OutcomeDispatched means a request was sent to the Analysis Service.
	OutcomeDispatched Outcome = iota
	// OutcomeInvalid means the input failed validation; nothing was sent.
	OutcomeInvalid
	// OutcomeBusy means a request was already in flight; the call was a no-op.
	OutcomeBusy
	// OutcomeClosed means the orchestrator was closed; the call was a no-op.
	OutcomeClosed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeBusy:
		return "busy"
	case OutcomeClosed:
		return "closed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

var ErrIllegalTransition = errors.New("illegal session transition")

type eventKind int

const (
	evValidationFailed eventKind = iota
	evDispatched
	evSucceeded
	evFailed
)

func (k eventKind) String() string {
	switch k {
	case evValidationFailed:
		return "validation_failed"
	case evDispatched:
		return "dispatched"
	case evSucceeded:
		return "succeeded"
	case evFailed:
		return "failed"
	}
	return "unknown"
}

type event struct {
	kind      eventKind
	attemptID string
	result    *model.AnalysisResult
	message   string
	at        time.Time
}

// transition is the session state machine. It never mutates s.
func transition(s model.SessionState, ev event) (model.SessionState, error) {
	switch ev.kind {
	case evValidationFailed:
		if s.InFlight() {
			break
		}
		return model.SessionState{Phase: model.PhaseError, ErrorMessage: ev.message, UpdatedAt: ev.at}, nil

	case evDispatched:
		if s.InFlight() {
			break
		}
		return model.SessionState{Phase: model.PhaseSubmitting, AttemptID: ev.attemptID, UpdatedAt: ev.at}, nil

	case evSucceeded:
		if !s.InFlight() || s.AttemptID != ev.attemptID || ev.result == nil {
			break
		}
		r := *ev.result
		return model.SessionState{Phase: model.PhaseSuccess, Result: &r, AttemptID: ev.attemptID, UpdatedAt: ev.at}, nil

	case evFailed:
		if !s.InFlight() || s.AttemptID != ev.attemptID {
			break
		}
		return model.SessionState{Phase: model.PhaseError, ErrorMessage: ev.message, AttemptID: ev.attemptID, UpdatedAt: ev.at}, nil
	}
	return s, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, ev.kind, s.Phase)
}

// Orchestrator owns one session's state and serializes its analysis requests.
// At most one request is in flight; submissions made meanwhile are dropped.
type Orchestrator struct {
	analyzer analyzer.Analyzer
	logger   logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu      sync.Mutex
	state   model.SessionState
	subs    map[int]chan model.SessionState
	nextSub int
	closed  bool

	inflight sync.WaitGroup
}

// NewOrchestrator starts a session in the Idle phase.
func NewOrchestrator(a analyzer.Analyzer, logger logging.Logger) *Orchestrator {
	now := time.Now
	return &Orchestrator{
		analyzer: a,
		logger:   logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		now:      now,
		state:    model.SessionState{Phase: model.PhaseIdle, UpdatedAt: now()},
		subs:     make(map[int]chan model.SessionState),
	}
}

// WithMetrics records request resolution times in m. Call it before the first
// submission.
func (o *Orchestrator) WithMetrics(m *metrics.Metrics) *Orchestrator {
	o.metrics = m
	return o
}

// State returns a snapshot of the current session state.
func (o *Orchestrator) State() model.SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Submit validates rawInput and, when valid and nothing is in flight, sends
// it to the Analysis Service and waits for the outcome. The returned state is
// the one this call produced, or the untouched current state for OutcomeBusy.
func (o *Orchestrator) Submit(ctx context.Context, rawInput string) (model.SessionState, Outcome) {
	target, attempt, state, outcome := o.begin(rawInput)
	if outcome != OutcomeDispatched {
		return state, outcome
	}
	defer o.inflight.Done()
	return o.resolve(ctx, target, attempt), outcome
}

// Dispatch is Submit without waiting: validation and the move to Submitting
// happen before it returns, the request resolves in the background.
func (o *Orchestrator) Dispatch(ctx context.Context, rawInput string) (model.SessionState, Outcome) {
	target, attempt, state, outcome := o.begin(rawInput)
	if outcome != OutcomeDispatched {
		return state, outcome
	}
	go func() {
		defer o.inflight.Done()
		o.resolve(ctx, target, attempt)
	}()
	return state, outcome
}

// Wait blocks until no background request is outstanding.
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

// Subscribe returns a channel receiving a snapshot after every transition and
// a func that unsubscribes. A slow subscriber loses its oldest buffered
// snapshots rather than block the session; the newest is always delivered.
func (o *Orchestrator) Subscribe(buffer int) (<-chan model.SessionState, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan model.SessionState, buffer)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		close(ch)
		return ch, func() {}
	}
	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if c, ok := o.subs[id]; ok {
				delete(o.subs, id)
				close(c)
			}
		})
	}
}

// Close refuses new submissions, waits for an outstanding request to finish
// and ends all subscriptions.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	o.inflight.Wait()

	o.mu.Lock()
	defer o.mu.Unlock()
	for id, ch := range o.subs {
		delete(o.subs, id)
		close(ch)
	}
	return nil
}

func (o *Orchestrator) begin(rawInput string) (target, attempt string, state model.SessionState, outcome Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		o.logger.Debug("dropping submission after close")
		return "", "", o.state.Clone(), OutcomeClosed
	}
	if o.state.InFlight() {
		o.logger.Debug("dropping submission while a request is in flight",
			logging.Field{Key: "attempt_id", Value: o.state.AttemptID})
		return "", "", o.state.Clone(), OutcomeBusy
	}

	target = model.AnalysisRequest{RawInput: rawInput}.TrimmedURL()
	if target == "" {
		state, _ = o.applyLocked(event{kind: evValidationFailed, message: ValidationMessage, at: o.now()})
		return "", "", state, OutcomeInvalid
	}

	attempt = uuid.NewString()
	state, err := o.applyLocked(event{kind: evDispatched, attemptID: attempt, at: o.now()})
	if err != nil {
		return "", "", state, OutcomeBusy
	}
	// Added under the lock after the closed check, so Close waits for it.
	o.inflight.Add(1)
	return target, attempt, state, OutcomeDispatched
}

// resolve performs the request and records its outcome. Every path, a panic
// in the analyzer included, leaves the session out of Submitting.
func (o *Orchestrator) resolve(ctx context.Context, target, attempt string) (state model.SessionState) {
	start := time.Now()
	outcome := "panic"
	defer func() { o.metrics.ObserveAnalysis(outcome, time.Since(start)) }()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("analysis panicked",
				logging.Field{Key: "attempt_id", Value: attempt},
				logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			state = o.apply(event{kind: evFailed, attemptID: attempt, message: failureMessage(fmt.Errorf("%v", r)), at: o.now()})
		}
	}()

	res, err := o.analyzer.Analyze(analyzer.WithAttemptID(ctx, attempt), target)
	switch {
	case err != nil:
		outcome = failureKind(err)
		o.logger.Warn("analysis failed",
			logging.Field{Key: "attempt_id", Value: attempt},
			logging.Field{Key: "kind", Value: outcome},
			logging.Field{Key: "error", Value: err.Error()})
		return o.apply(event{kind: evFailed, attemptID: attempt, message: failureMessage(err), at: o.now()})
	case res == nil:
		outcome = "parse"
		err = &analyzer.ParseError{Err: errors.New("empty analysis result")}
		return o.apply(event{kind: evFailed, attemptID: attempt, message: err.Error(), at: o.now()})
	}

	outcome = "success"
	o.logger.Info("analysis succeeded",
		logging.Field{Key: "attempt_id", Value: attempt},
		logging.Field{Key: "label", Value: string(res.Label)})
	return o.apply(event{kind: evSucceeded, attemptID: attempt, result: res, at: o.now()})
}

func (o *Orchestrator) apply(ev event) model.SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	state, _ := o.applyLocked(ev)
	return state
}

// applyLocked runs the transition and fans the new state out. Callers hold o.mu.
func (o *Orchestrator) applyLocked(ev event) (model.SessionState, error) {
	next, err := transition(o.state, ev)
	if err != nil {
		o.logger.Error("rejected transition",
			logging.Field{Key: "event", Value: ev.kind.String()},
			logging.Field{Key: "phase", Value: string(o.state.Phase)},
			logging.Field{Key: "error", Value: err.Error()})
		return o.state.Clone(), err
	}

	o.logger.Debug("session transition",
		logging.Field{Key: "from", Value: string(o.state.Phase)},
		logging.Field{Key: "to", Value: string(next.Phase)},
		logging.Field{Key: "attempt_id", Value: next.AttemptID})
	o.state = next

	for _, ch := range o.subs {
		select {
		case ch <- next.Clone():
		default:
			// Full: evict the oldest. Only this goroutine sends while o.mu is
			// held, so the retry finds room.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next.Clone():
			default:
			}
		}
	}
	return next.Clone(), nil
}

func failureMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackNetworkMessage
}

func failureKind(err error) string {
	var (
		ne *analyzer.NetworkError
		be *analyzer.BackendError
		pe *analyzer.ParseError
	)
	switch {
	case errors.As(err, &ne):
		return "network"
	case errors.As(err, &be):
		return "backend"
	case errors.As(err, &pe):
		return "parse"
	}
	return "unknown"
}
