package pipeline

import "testing"

func TestVersionManagerRecordIsIdempotent(t *testing.T) {
	m := NewVersionManager()

	index, added := m.Record("slide-1", "a castle")
	if index != 0 || !added {
		t.Fatalf("first record: got index=%d added=%v", index, added)
	}
	index, added = m.Record("slide-1", "a castle")
	if index != 0 || added {
		t.Errorf("duplicate prompt must return the existing index, got index=%d added=%v", index, added)
	}
	index, added = m.Record("slide-1", "a dragon")
	if index != 1 || !added {
		t.Errorf("new prompt must append, got index=%d added=%v", index, added)
	}
}

func TestVersionManagerSelect(t *testing.T) {
	m := NewVersionManager()
	m.Record("slide-1", "a castle")
	m.Record("slide-1", "a dragon")

	prompt, ok := m.Select("slide-1", 0)
	if !ok || prompt != "a castle" {
		t.Errorf("Select(0) = %q, %v", prompt, ok)
	}
	if _, ok := m.Select("slide-1", 2); ok {
		t.Error("out-of-range index must fail")
	}
	if _, ok := m.Select("slide-1", -1); ok {
		t.Error("negative index must fail")
	}
	if _, ok := m.Select("unknown", 0); ok {
		t.Error("unknown slide must fail")
	}
}

func TestVersionManagerNavigationClamps(t *testing.T) {
	m := NewVersionManager()
	m.Record("slide-1", "v0")
	m.Record("slide-1", "v1")
	m.Record("slide-1", "v2")
	m.SelectLatest("slide-1")

	// Already at the newest version; Next stays put.
	prompt, index, ok := m.Next("slide-1")
	if !ok || index != 2 || prompt != "v2" {
		t.Errorf("Next at end = %q, %d, %v", prompt, index, ok)
	}

	prompt, index, ok = m.Previous("slide-1")
	if !ok || index != 1 || prompt != "v1" {
		t.Errorf("Previous = %q, %d, %v", prompt, index, ok)
	}
	m.Previous("slide-1")
	prompt, index, ok = m.Previous("slide-1")
	if !ok || index != 0 || prompt != "v0" {
		t.Errorf("Previous at start must clamp to zero, got %q, %d, %v", prompt, index, ok)
	}
}

func TestVersionManagerNavigationWithoutVersions(t *testing.T) {
	m := NewVersionManager()
	if _, _, ok := m.Next("slide-1"); ok {
		t.Error("Next on an empty slide must fail")
	}
	if _, _, ok := m.Previous("slide-1"); ok {
		t.Error("Previous on an empty slide must fail")
	}
}

func TestVersionManagerVersionsReturnsCopy(t *testing.T) {
	m := NewVersionManager()
	m.Record("slide-1", "a castle")

	set, ok := m.Versions("slide-1")
	if !ok || len(set.Prompts) != 1 {
		t.Fatalf("Versions = %+v, %v", set, ok)
	}
	set.Prompts[0] = "mutated"

	again, _ := m.Versions("slide-1")
	if again.Prompts[0] != "a castle" {
		t.Error("Versions must return a copy, internal state was mutated")
	}
}

func TestVersionManagerReset(t *testing.T) {
	m := NewVersionManager()
	m.Record("slide-1", "a castle")
	m.Reset()

	if _, ok := m.Versions("slide-1"); ok {
		t.Error("reset must discard all version state")
	}
}
