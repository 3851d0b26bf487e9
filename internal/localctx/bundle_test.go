package localctx

import (
	"testing"
	"time"
)

func TestDefaultBundleHasCoreDictionaries(t *testing.T) {
	b := DefaultBundle()

	if len(b.SlangPatterns["pidgin"]) == 0 {
		t.Fatal("expected default pidgin slang patterns")
	}
	if len(b.PoliticalFigures) == 0 {
		t.Fatal("expected default political figures")
	}
	if len(b.ThreatMultipliers) == 0 {
		t.Fatal("expected default threat multipliers")
	}
	if _, ok := b.RegionalContexts["Northwest"]; !ok {
		t.Fatal("expected Northwest regional context")
	}
}

func TestMergeAppendsWithoutMutatingOriginal(t *testing.T) {
	base := DefaultBundle()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	patch := Patch{
		Figures: []DetectedFigure{{Name: "New Candidate", Confidence: 0.7}},
		Slang:   []SlangPatch{{Language: "pidgin", Bucket: "emotions.joy", Phrase: "e too sweet"}},
	}
	merged, err := base.Merge(patch, now)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if len(merged.DetectedFigures) != 1 {
		t.Fatalf("expected 1 detected figure, got %d", len(merged.DetectedFigures))
	}
	if merged.DetectedFigures[0].Name != "new candidate" {
		t.Errorf("expected normalized figure name, got %q", merged.DetectedFigures[0].Name)
	}
	if merged.DetectedFigures[0].FirstDetected != now {
		t.Errorf("expected FirstDetected stamped with merge time")
	}
	if merged.Version != base.Version+1 {
		t.Errorf("expected version bump, got %d", merged.Version)
	}
	if merged.LastEvolution != now {
		t.Errorf("expected LastEvolution updated")
	}

	joy := merged.SlangPatterns["pidgin"]["emotions.joy"]
	if !containsString(joy, "e too sweet") {
		t.Errorf("expected new slang phrase in merged bundle, got %v", joy)
	}

	if len(base.DetectedFigures) != 0 {
		t.Error("original bundle mutated: detected figures grew")
	}
	if containsString(base.SlangPatterns["pidgin"]["emotions.joy"], "e too sweet") {
		t.Error("original bundle mutated: slang grew")
	}
}

func TestMergeSkipsKnownFiguresAndDuplicateSlang(t *testing.T) {
	base := DefaultBundle()

	patch := Patch{
		Figures: []DetectedFigure{{Name: "Paul Biya", Confidence: 0.9}},
		Slang:   []SlangPatch{{Language: "pidgin", Bucket: "greetings", Phrase: "how far"}},
	}
	merged, err := base.Merge(patch, time.Now())
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if len(merged.DetectedFigures) != 0 {
		t.Errorf("known figure should not be re-added, got %v", merged.DetectedFigures)
	}
	before := len(base.SlangPatterns["pidgin"]["greetings"])
	after := len(merged.SlangPatterns["pidgin"]["greetings"])
	if after != before {
		t.Errorf("duplicate slang should be skipped: %d -> %d", before, after)
	}
}

func TestMergeRejectsMalformedPatches(t *testing.T) {
	base := DefaultBundle()

	cases := []struct {
		name  string
		patch Patch
	}{
		{"empty figure name", Patch{Figures: []DetectedFigure{{Name: "  "}}}},
		{"confidence out of range", Patch{Figures: []DetectedFigure{{Name: "x", Confidence: 1.5}}}},
		{"empty phrase", Patch{Slang: []SlangPatch{{Language: "pidgin", Bucket: "greetings", Phrase: ""}}}},
		{"missing language", Patch{Slang: []SlangPatch{{Bucket: "greetings", Phrase: "how now"}}}},
		{"missing bucket", Patch{Slang: []SlangPatch{{Language: "pidgin", Phrase: "how now"}}}},
	}
	for _, tc := range cases {
		if _, err := base.Merge(tc.patch, time.Now()); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
