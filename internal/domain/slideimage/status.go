package slideimage

import "errors"

// SlideStatus represents the lifecycle status of one slide's image.
type SlideStatus string

const (
	// Non-terminal states
	StatusUnseen     SlideStatus = "unseen"     // No evaluation yet, or reset after a content change
	StatusChecking   SlideStatus = "checking"   // Cache/store lookup in flight
	StatusQueued     SlideStatus = "queued"     // Waiting for its slot in the generation queue
	StatusGenerating SlideStatus = "generating" // Provider call in flight

	// Terminal states (until the slide's content changes again)
	StatusReady  SlideStatus = "ready"  // Image resolved
	StatusFailed SlideStatus = "failed" // Generation failed, manual retry allowed
)

// ErrInvalidTransition is returned when a status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid slide status transition")

// IsTerminal returns true once the slide has settled.
func (s SlideStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed
}

// IsActive returns true while work for the slide is outstanding.
func (s SlideStatus) IsActive() bool {
	return s == StatusChecking || s == StatusQueued || s == StatusGenerating
}

// String returns the string representation of the status.
func (s SlideStatus) String() string {
	return string(s)
}

// ValidTransitions defines allowed status transitions. Every state may reset
// to Unseen when the slide's content or the session changes.
var ValidTransitions = map[SlideStatus][]SlideStatus{
	StatusUnseen:     {StatusChecking},
	StatusChecking:   {StatusReady, StatusQueued, StatusFailed, StatusUnseen},
	StatusQueued:     {StatusGenerating, StatusReady, StatusFailed, StatusUnseen},
	StatusGenerating: {StatusReady, StatusFailed, StatusUnseen},
	StatusReady:      {StatusUnseen},
	StatusFailed:     {StatusGenerating, StatusUnseen}, // Manual retry bypasses the queue
}

// CanTransitionTo checks if a transition from the current status is valid.
func (s SlideStatus) CanTransitionTo(target SlideStatus) bool {
	validTargets, ok := ValidTransitions[s]
	if !ok {
		return false
	}
	for _, t := range validTargets {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo attempts the transition and returns an error if invalid.
func (s SlideStatus) TransitionTo(target SlideStatus) (SlideStatus, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}
