package imageid_test

import (
	"strings"
	"testing"

	"presentation-server/utils/imageid"
)

func TestNew(t *testing.T) {
	id := imageid.New()
	if !strings.HasPrefix(id, "img_") {
		t.Errorf("New() = %q, want img_ prefix", id)
	}
	if !imageid.IsValid(id) {
		t.Errorf("IsValid(%q) = false, want true", id)
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := imageid.New()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected bool
	}{
		{"generated id is valid", imageid.New(), true},
		{"missing prefix", "01hq3ka9v9zjq6t1w2x3y4z5a6", false},
		{"wrong prefix", "jan_01hq3ka9v9zjq6t1w2x3y4z5a6", false},
		{"uppercase prefix", "IMG_01HQ3KA9V9ZJQ6T1W2X3Y4Z5A6", false},
		{"empty string", "", false},
		{"prefix only", "img_", false},
		{"garbage after prefix", "img_not-a-ulid", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := imageid.IsValid(tt.value); got != tt.expected {
				t.Errorf("IsValid(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}
