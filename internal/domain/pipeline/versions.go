package pipeline

import "sync"

// VersionSet is the ordered list of distinct prompts ever rendered for one
// slide, plus the index of the currently selected version.
type VersionSet struct {
	Prompts  []string `json:"prompts"`
	Selected int      `json:"selected"`
}

// VersionManager tracks prompt versions per slide. Entries are unique by
// prompt text; a regenerated slide with an edited prompt always appends a new
// version, never overwrites an existing one.
type VersionManager struct {
	mu      sync.Mutex
	bySlide map[string]*VersionSet
}

func NewVersionManager() *VersionManager {
	return &VersionManager{bySlide: make(map[string]*VersionSet)}
}

// Record appends the prompt to the slide's version list if not already
// present and returns its index. It is idempotent by prompt text.
func (m *VersionManager) Record(slideID, prompt string) (index int, added bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.bySlide[slideID]
	if !ok {
		set = &VersionSet{}
		m.bySlide[slideID] = set
	}
	for i, p := range set.Prompts {
		if p == prompt {
			return i, false
		}
	}
	set.Prompts = append(set.Prompts, prompt)
	return len(set.Prompts) - 1, true
}

// Select sets the slide's selected index and returns the prompt at it.
func (m *VersionManager) Select(slideID string, index int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.bySlide[slideID]
	if !ok || index < 0 || index >= len(set.Prompts) {
		return "", false
	}
	set.Selected = index
	return set.Prompts[index], true
}

// SelectLatest selects the newest version and returns its prompt.
func (m *VersionManager) SelectLatest(slideID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.bySlide[slideID]
	if !ok || len(set.Prompts) == 0 {
		return "", false
	}
	set.Selected = len(set.Prompts) - 1
	return set.Prompts[set.Selected], true
}

// Next advances the selected index, clamped to the last version.
func (m *VersionManager) Next(slideID string) (string, int, bool) {
	return m.step(slideID, 1)
}

// Previous moves the selected index back, clamped to zero.
func (m *VersionManager) Previous(slideID string) (string, int, bool) {
	return m.step(slideID, -1)
}

func (m *VersionManager) step(slideID string, delta int) (string, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.bySlide[slideID]
	if !ok || len(set.Prompts) == 0 {
		return "", 0, false
	}
	index := set.Selected + delta
	if index < 0 {
		index = 0
	}
	if index >= len(set.Prompts) {
		index = len(set.Prompts) - 1
	}
	set.Selected = index
	return set.Prompts[index], index, true
}

// Versions returns a copy of the slide's version set.
func (m *VersionManager) Versions(slideID string) (VersionSet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.bySlide[slideID]
	if !ok {
		return VersionSet{}, false
	}
	out := VersionSet{
		Prompts:  append([]string(nil), set.Prompts...),
		Selected: set.Selected,
	}
	return out, true
}

// Reset discards all version state; used on session change.
func (m *VersionManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySlide = make(map[string]*VersionSet)
}
