package session

import "fmt"

// Step is the screen the visitor is currently on.
type Step int

const (
	StepHistoryInput Step = iota
	StepContextInput
	StepAnalyzing
	StepResults
	StepFindingRestaurants
	StepLogin
	StepProfile
)

var stepNames = [...]string{
	StepHistoryInput:       "HISTORY_INPUT",
	StepContextInput:       "CONTEXT_INPUT",
	StepAnalyzing:          "ANALYZING",
	StepResults:            "RESULTS",
	StepFindingRestaurants: "FINDING_RESTAURANTS",
	StepLogin:              "LOGIN",
	StepProfile:            "PROFILE",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// MarshalText renders the step by name in JSON payloads.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Detached reports whether the step is a side screen that returns to a
// remembered step.
func (s Step) Detached() bool {
	return s == StepLogin || s == StepProfile
}

// transitions lists, per source step, the steps reachable by a user action
// or a network completion. LOGIN, PROFILE and HISTORY_INPUT (header logo)
// are reachable from every step and are checked separately; LOGIN and
// PROFILE exits go to the remembered step.
var transitions = map[Step][]Step{
	StepHistoryInput:       {StepContextInput},
	StepContextInput:       {StepAnalyzing},
	StepAnalyzing:          {StepResults, StepContextInput},
	StepResults:            {StepFindingRestaurants, StepHistoryInput},
	StepFindingRestaurants: {StepResults},
}

// CanTransition reports whether the machine allows from -> to.
func CanTransition(from, to Step) bool {
	switch to {
	case StepLogin, StepProfile, StepHistoryInput:
		return true
	}
	if from.Detached() {
		// Exits from detached screens restore the remembered step.
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
