package pipeline

import (
	"testing"

	"presentation-server/internal/domain/slideimage"
)

func TestDedupCacheLookupStates(t *testing.T) {
	cache := NewDedupCache()

	if _, outcome := cache.Lookup("s1", "a castle"); outcome != Unknown {
		t.Errorf("expected Unknown for unseen pair, got %v", outcome)
	}

	img := &slideimage.GeneratedImage{ID: "img_1", Prompt: "a castle"}
	cache.Record("s1", "a castle", img)

	got, outcome := cache.Lookup("s1", "a castle")
	if outcome != Found {
		t.Fatalf("expected Found, got %v", outcome)
	}
	if got.ID != "img_1" {
		t.Errorf("expected img_1, got %s", got.ID)
	}

	// A nil record memoizes a confirmed absence.
	cache.Record("s1", "a dragon", nil)
	if _, outcome := cache.Lookup("s1", "a dragon"); outcome != NotFound {
		t.Errorf("expected NotFound for negative entry, got %v", outcome)
	}
}

func TestDedupCacheSessionScoping(t *testing.T) {
	cache := NewDedupCache()
	cache.Record("s1", "a castle", &slideimage.GeneratedImage{ID: "img_1"})

	if _, outcome := cache.Lookup("s2", "a castle"); outcome != Unknown {
		t.Errorf("entry from another session must not be visible, got %v", outcome)
	}
}

func TestDedupCacheEmptySessionSentinel(t *testing.T) {
	cache := NewDedupCache()
	cache.Record("", "a castle", &slideimage.GeneratedImage{ID: "img_1"})

	if _, outcome := cache.Lookup("", "a castle"); outcome != Found {
		t.Errorf("empty session must map onto a stable sentinel key, got %v", outcome)
	}
}

func TestDedupCacheInvalidate(t *testing.T) {
	cache := NewDedupCache()
	cache.Record("s1", "a castle", &slideimage.GeneratedImage{ID: "img_1"})
	cache.Record("s1", "a dragon", nil)

	cache.Invalidate("s1", "a castle")
	if _, outcome := cache.Lookup("s1", "a castle"); outcome != Unknown {
		t.Errorf("invalidated entry must be Unknown, got %v", outcome)
	}
	if _, outcome := cache.Lookup("s1", "a dragon"); outcome != NotFound {
		t.Errorf("other entries must survive an invalidate, got %v", outcome)
	}
}

func TestDedupCacheReset(t *testing.T) {
	cache := NewDedupCache()
	cache.Record("s1", "a castle", &slideimage.GeneratedImage{ID: "img_1"})
	cache.Record("s1", "a dragon", nil)

	cache.Reset()
	if cache.Len() != 0 {
		t.Errorf("expected empty cache after reset, got %d entries", cache.Len())
	}
	if _, outcome := cache.Lookup("s1", "a castle"); outcome != Unknown {
		t.Errorf("expected Unknown after reset, got %v", outcome)
	}
}
