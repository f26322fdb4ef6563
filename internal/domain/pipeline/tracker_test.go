package pipeline

import "testing"

func TestTrackerBeginClaimsBothKeys(t *testing.T) {
	tracker := NewTracker()

	if !tracker.Begin("slide-1", "a castle") {
		t.Fatal("first claim should succeed")
	}

	tests := []struct {
		name    string
		slideID string
		prompt  string
	}{
		{"same slide, different prompt", "slide-1", "a dragon"},
		{"different slide, same prompt", "slide-2", "a castle"},
		{"both identical", "slide-1", "a castle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tracker.Begin(tt.slideID, tt.prompt) {
				t.Errorf("Begin(%q, %q) should be blocked", tt.slideID, tt.prompt)
			}
		})
	}

	if !tracker.Begin("slide-2", "a dragon") {
		t.Error("unrelated slide and prompt should not be blocked")
	}
}

func TestTrackerFailedBeginClaimsNothing(t *testing.T) {
	tracker := NewTracker()
	tracker.Begin("slide-1", "a castle")

	// Blocked by the prompt, so the slide key must stay unclaimed.
	if tracker.Begin("slide-2", "a castle") {
		t.Fatal("claim should be blocked")
	}
	if tracker.Busy("slide-2", "a dragon") {
		t.Error("failed Begin must not leave a partial claim on the slide")
	}
}

func TestTrackerEndReleasesBothKeys(t *testing.T) {
	tracker := NewTracker()
	tracker.Begin("slide-1", "a castle")
	tracker.End("slide-1", "a castle")

	if tracker.Busy("slide-1", "anything") {
		t.Error("slide key should be free after End")
	}
	if tracker.Busy("other", "a castle") {
		t.Error("prompt key should be free after End")
	}
}

func TestTrackerReset(t *testing.T) {
	tracker := NewTracker()
	tracker.Begin("slide-1", "a castle")
	tracker.Begin("slide-2", "a dragon")

	tracker.Reset()
	if tracker.Busy("slide-1", "a castle") || tracker.Busy("slide-2", "a dragon") {
		t.Error("reset must release every claim")
	}
}
