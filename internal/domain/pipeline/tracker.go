package pipeline

import "sync"

// Tracker records which slide identifiers and which literal prompts have a
// generation in flight. Both sets are consulted before scheduling: a match on
// either blocks a new attempt. The double key defends against two slides
// momentarily carrying the same prompt, and against a slide being re-rendered
// while its own prior generation is still running.
type Tracker struct {
	mu       sync.Mutex
	bySlide  map[string]struct{}
	byPrompt map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		bySlide:  make(map[string]struct{}),
		byPrompt: make(map[string]struct{}),
	}
}

// Busy reports whether the slide or the prompt already has work in flight.
func (t *Tracker) Busy(slideID, prompt string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.bySlide[slideID]; ok {
		return true
	}
	_, ok := t.byPrompt[prompt]
	return ok
}

// Begin claims the slide and prompt atomically. It returns false without
// claiming anything if either is already busy.
func (t *Tracker) Begin(slideID, prompt string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.bySlide[slideID]; ok {
		return false
	}
	if _, ok := t.byPrompt[prompt]; ok {
		return false
	}
	t.bySlide[slideID] = struct{}{}
	t.byPrompt[prompt] = struct{}{}
	return true
}

// End releases the slide and prompt. Callers must invoke it from a deferred
// path so a failed generation cannot leave a permanently stuck slide.
func (t *Tracker) End(slideID, prompt string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.bySlide, slideID)
	delete(t.byPrompt, prompt)
}

// Reset discards all in-flight records; used on session change.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bySlide = make(map[string]struct{})
	t.byPrompt = make(map[string]struct{})
}
