// Package gate holds the process-wide review status and the generated
// artifact it refers to.
package gate

import (
	"fmt"
	"sync"

	"github.com/faitholopade/codegate/internal/codegen"
)

// PassThreshold is the minimum session score that approves code.
const PassThreshold = 70

// Passed reports whether score clears PassThreshold.
func Passed(score int) bool {
	return score >= PassThreshold
}

// Status is the review lifecycle position.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
	StatusActive     Status = "active"
	// StatusEvaluating is reserved for a post-session grading step. No
	// transition reaches it.
	StatusEvaluating Status = "evaluating"
	StatusPassed     Status = "passed"
	StatusFailed     Status = "failed"
)

// Label is the human-readable status shown in the status line.
func (s Status) Label() string {
	switch s {
	case StatusIdle:
		return "Awaiting Code"
	case StatusGenerating:
		return "Generating..."
	case StatusReady:
		return "Ready for Quiz"
	case StatusActive:
		return "Quiz in Progress"
	case StatusEvaluating:
		return "Evaluating..."
	case StatusPassed:
		return "Approved"
	case StatusFailed:
		return "Blocked"
	}
	return string(s)
}

// Terminal reports whether s is a verdict.
func (s Status) Terminal() bool {
	return s == StatusPassed || s == StatusFailed
}

// Busy reports whether s is a transient in-flight state.
func (s Status) Busy() bool {
	return s == StatusGenerating || s == StatusEvaluating
}

// Transition records one status change.
type Transition struct {
	From    Status
	To      Status
	Trigger string // "generate", "generated", "generate-failed", "connected", "disconnected", "reset"
}

// TransitionError is returned for an event the current status does not
// accept.
type TransitionError struct {
	From  Status
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("gate: cannot %s while %s", e.Event, e.From)
}

// Machine is the review state. It is safe for concurrent use.
type Machine struct {
	mu       sync.Mutex
	status   Status
	artifact *codegen.Artifact
	prompt   string
	score    int
	observer func(Transition)
}

// NewMachine returns a machine in StatusIdle.
func NewMachine() *Machine {
	return &Machine{status: StatusIdle}
}

// Observe registers fn to be called after every transition. fn runs with
// the machine unlocked.
func (m *Machine) Observe(fn func(Transition)) {
	m.mu.Lock()
	m.observer = fn
	m.mu.Unlock()
}

// Status returns the current status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Artifact returns the current artifact, or nil.
func (m *Machine) Artifact() *codegen.Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.artifact
}

// Prompt returns the feature description that produced the artifact.
func (m *Machine) Prompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompt
}

// Score returns the score recorded by Conclude.
func (m *Machine) Score() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

// BeginGeneration moves idle or ready to generating. The previous artifact
// stays visible until Complete or Fail.
func (m *Machine) BeginGeneration(prompt string) error {
	return m.transition("generate", StatusGenerating, func() {
		m.prompt = prompt
	}, StatusIdle, StatusReady)
}

// Complete installs a fresh artifact and moves generating to ready.
func (m *Machine) Complete(a *codegen.Artifact) error {
	if a == nil {
		return fmt.Errorf("gate: complete with nil artifact")
	}
	return m.transition("generated", StatusReady, func() {
		m.artifact = a
		m.score = 0
	}, StatusGenerating)
}

// Fail reverts generating to idle and drops any artifact.
func (m *Machine) Fail() error {
	return m.transition("generate-failed", StatusIdle, func() {
		m.artifact = nil
	}, StatusGenerating)
}

// Activate moves ready to active when a quiz session connects.
func (m *Machine) Activate() error {
	return m.transition("connected", StatusActive, nil, StatusReady)
}

// Conclude settles an active session by score. It is a no-op returning
// false when the machine is not active, which covers disconnects after a
// verdict was already reached or before the session connected.
func (m *Machine) Conclude(score int) (Status, bool) {
	m.mu.Lock()
	if m.status != StatusActive {
		s := m.status
		m.mu.Unlock()
		return s, false
	}
	to := StatusFailed
	if Passed(score) {
		to = StatusPassed
	}
	t := Transition{From: m.status, To: to, Trigger: "disconnected"}
	m.status = to
	m.score = score
	obs := m.observer
	m.mu.Unlock()

	if obs != nil {
		obs(t)
	}
	return to, true
}

// Reset returns to idle and forgets the artifact. It is refused while a
// generation or session is in flight.
func (m *Machine) Reset() error {
	return m.transition("reset", StatusIdle, func() {
		m.artifact = nil
		m.prompt = ""
		m.score = 0
	}, StatusIdle, StatusReady, StatusPassed, StatusFailed)
}

func (m *Machine) transition(event string, to Status, apply func(), from ...Status) error {
	m.mu.Lock()
	ok := false
	for _, f := range from {
		if m.status == f {
			ok = true
			break
		}
	}
	if !ok {
		err := &TransitionError{From: m.status, Event: event}
		m.mu.Unlock()
		return err
	}
	t := Transition{From: m.status, To: to, Trigger: event}
	m.status = to
	if apply != nil {
		apply()
	}
	obs := m.observer
	m.mu.Unlock()

	if obs != nil {
		obs(t)
	}
	return nil
}
