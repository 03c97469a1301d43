package pipeline

import (
	"errors"
	"fmt"
)

// Phase is the lifecycle phase of a run.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// State is the position of a run: its phase and the index of the step it refers to.
// Err is only set in the failed phase.
type State struct {
	Phase Phase
	Step  int
	Err   error
}

func Pending(step int) State { return State{Phase: PhasePending, Step: step} }

func Running(step int) State { return State{Phase: PhaseRunning, Step: step} }

func Completed(step int) State { return State{Phase: PhaseCompleted, Step: step} }

func Failed(step int, err error) State { return State{Phase: PhaseFailed, Step: step, Err: err} }

func (s State) String() string {
	return fmt.Sprintf("%s(%d)", s.Phase, s.Step)
}

// IsTerminal reports whether the run has finished.
func (s State) IsTerminal() bool {
	return s.Phase == PhaseCompleted || s.Phase == PhaseFailed
}

var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError describes a rejected transition.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Transition validates a move from one state to the next. Allowed moves are
//
//	Pending(i) -> Running(i) | Failed(i)
//	Running(i) -> Pending(i+1) | Completed(i) | Failed(i)
//
// Pending(i) -> Failed(i) covers cancellation observed before dispatch.
func Transition(from, to State) error {
	if !isAllowedTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}

	return nil
}

func isAllowedTransition(from, to State) bool {
	switch from.Phase {
	case PhasePending:
		return to.Step == from.Step && (to.Phase == PhaseRunning || to.Phase == PhaseFailed)
	case PhaseRunning:
		switch to.Phase {
		case PhasePending:
			return to.Step == from.Step+1
		case PhaseCompleted, PhaseFailed:
			return to.Step == from.Step
		default:
			return false
		}
	default:
		return false
	}
}

// Observer is notified of every state transition of a run.
type Observer func(runID string, from, to State)
