package workflow

import (
	"procurement-agent/internal/core"
)

// Stage is the top-level automation stage.
type Stage string

const (
	StageIdle               Stage = "idle"
	StageStarting           Stage = "starting"
	StageProcessingDocument Stage = "processing_document"
	StageAnalyzing          Stage = "analyzing"
	StageProcessing         Stage = "processing"
	StageCompleted          Stage = "completed"
	StageError              Stage = "error"
)

// Step is the sub-stage within StageProcessing, derived from the current
// group contents rather than advanced positionally.
type Step string

const (
	StepNone           Step = ""
	StepAddingProducts Step = "adding_products"
	StepReviewingStock Step = "reviewing_stock"
	StepFinalReview    Step = "final_review"
)

// transitions is the complete legal-transition table. A requested stage not
// in the source's set is rejected without mutating state.
var transitions = map[Stage][]Stage{
	StageIdle:               {StageStarting, StageProcessingDocument},
	StageStarting:           {StageProcessingDocument},
	StageProcessingDocument: {StageAnalyzing, StageError},
	StageAnalyzing:          {StageProcessing, StageError},
	StageProcessing:         {StageCompleted, StageError},
	StageCompleted:          {StageIdle},
	StageError:              {StageIdle, StageStarting},
}

// CanTransition reports whether the table allows moving from one stage to
// another.
func CanTransition(from, to Stage) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// State is the full workflow state for one document cycle. The machine is
// restarted per document: Completed must return to Idle before the next one.
type State struct {
	Stage     Stage                `json:"stage"`
	Step      Step                 `json:"currentStep,omitempty"`
	Result    *core.AnalysisResult `json:"-"`
	OrderID   string               `json:"orderId,omitempty"`
	LastError string               `json:"error,omitempty"`
}

// NewState returns the initial idle state.
func NewState() State {
	return State{Stage: StageIdle}
}

// Event is a workflow input handled by Reduce.
type Event interface{ isEvent() }

// StartRequested begins a new cycle: Idle → Starting.
type StartRequested struct{}

// DocumentReceived acknowledges an uploaded document: Idle/Starting →
// ProcessingDocument.
type DocumentReceived struct{}

// ExtractionSucceeded carries the validated, not-yet-classified analysis:
// ProcessingDocument → Analyzing.
type ExtractionSucceeded struct {
	Result *core.AnalysisResult
}

// ClassificationCompleted moves into human review once the groups are known:
// Analyzing → Processing. The sub-step is derived from the groups.
type ClassificationCompleted struct{}

// GroupsUpdated re-derives the sub-step after a remediation step changed
// group membership. Valid only within StageProcessing.
type GroupsUpdated struct{}

// MutationFailed records a recoverable remote failure without leaving the
// current sub-stage. Valid only within StageProcessing.
type MutationFailed struct {
	Reason string
}

// OrderCreated completes the cycle: Processing → Completed.
type OrderCreated struct {
	OrderID string
}

// OperationFailed escalates a stage failure: current stage → Error. When
// Critical is set the whole workflow is aborted to a fresh Idle state.
type OperationFailed struct {
	Reason   string
	Critical bool
}

// Cancelled discards the cycle and restarts the machine at Idle.
type Cancelled struct{}

// RetryRequested restarts a failed cycle: Error → Starting.
type RetryRequested struct{}

func (StartRequested) isEvent()          {}
func (DocumentReceived) isEvent()        {}
func (ExtractionSucceeded) isEvent()     {}
func (ClassificationCompleted) isEvent() {}
func (GroupsUpdated) isEvent()           {}
func (MutationFailed) isEvent()          {}
func (OrderCreated) isEvent()            {}
func (OperationFailed) isEvent()         {}
func (Cancelled) isEvent()               {}
func (RetryRequested) isEvent()          {}

// Reduce is the pure transition function: it returns the next state and
// whether the event was applied. An illegal transition returns the input
// state unchanged with applied=false; callers log and move on, they do not
// treat it as a failure.
func Reduce(s State, ev Event) (State, bool) {
	switch e := ev.(type) {
	case StartRequested:
		return moveTo(s, StageStarting)

	case DocumentReceived:
		return moveTo(s, StageProcessingDocument)

	case ExtractionSucceeded:
		next, ok := moveTo(s, StageAnalyzing)
		if !ok {
			return s, false
		}
		next.Result = e.Result
		return next, true

	case ClassificationCompleted:
		if s.Result == nil {
			return s, false
		}
		next, ok := moveTo(s, StageProcessing)
		if !ok {
			return s, false
		}
		next.Step = NextStep(s.Result.Items)
		return next, true

	case GroupsUpdated:
		if s.Stage != StageProcessing || s.Result == nil {
			return s, false
		}
		s.Step = NextStep(s.Result.Items)
		s.LastError = ""
		return s, true

	case MutationFailed:
		if s.Stage != StageProcessing {
			return s, false
		}
		s.LastError = e.Reason
		return s, true

	case OrderCreated:
		next, ok := moveTo(s, StageCompleted)
		if !ok {
			return s, false
		}
		next.Step = StepNone
		next.OrderID = e.OrderID
		next.LastError = ""
		return next, true

	case OperationFailed:
		if e.Critical {
			// Critical failures abort the cycle entirely.
			next := NewState()
			next.LastError = e.Reason
			return next, true
		}
		next, ok := moveTo(s, StageError)
		if !ok {
			return s, false
		}
		next.Step = StepNone
		next.LastError = e.Reason
		return next, true

	case Cancelled:
		// Explicit cancel destroys the cycle; the machine restarts at Idle.
		return NewState(), true

	case RetryRequested:
		next, ok := moveTo(s, StageStarting)
		if !ok {
			return s, false
		}
		next.LastError = ""
		return next, true
	}

	return s, false
}

// moveTo applies the transition table, carrying the working data forward.
func moveTo(s State, to Stage) (State, bool) {
	if !CanTransition(s.Stage, to) {
		return s, false
	}
	s.Stage = to
	return s, true
}

// NextStep selects the active sub-stage from the current groups, evaluated
// as a priority chain. It is re-run after every successful remediation step,
// so a document needing only stock review never sees the product-creation
// step, and vice versa.
func NextStep(g core.GroupedItems) Step {
	switch {
	case g.CountNew() > 0:
		return StepAddingProducts
	case g.CountInsufficient() > 0:
		return StepReviewingStock
	default:
		return StepFinalReview
	}
}
