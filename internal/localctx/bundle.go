package localctx

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RegionalContext associates a crisis region with the keywords that flag it
// and the emotions typically carried by discourse about it.
type RegionalContext struct {
	Keywords []string `json:"keywords"`
	Emotions []string `json:"emotions"`
}

// DetectedFigure is a political figure learned at runtime rather than
// configured by hand.
type DetectedFigure struct {
	Name          string    `json:"name"`
	FirstDetected time.Time `json:"first_detected"`
	Confidence    float64   `json:"confidence"`
}

// Bundle is the dynamic knowledge base backing the heuristic classifier:
// slang dictionaries per language, political figures and aliases, regional
// crisis keyword sets, threat-keyword multipliers and sarcasm markers.
// Bundles are treated as immutable; mutation happens by building a merged
// copy and swapping it into the cache.
type Bundle struct {
	Version int `json:"version"`

	// SlangPatterns maps language code -> semantic bucket -> phrases.
	// Buckets follow a dotted convention, e.g. "greetings", "agreement",
	// "emotions.anger".
	SlangPatterns map[string]map[string][]string `json:"slang_patterns"`

	// PoliticalFigures maps role (president, prime_minister, ...) to known
	// names and aliases.
	PoliticalFigures map[string][]string `json:"political_figures"`
	DetectedFigures  []DetectedFigure    `json:"detected_figures"`

	PoliticalParties []string `json:"political_parties"`

	// RegionalContexts maps region name to its crisis context.
	RegionalContexts map[string]RegionalContext `json:"regional_contexts"`

	// ThreatMultipliers maps keyword -> additive threat weight.
	ThreatMultipliers map[string]float64 `json:"threat_multipliers"`

	SarcasmMarkers []string `json:"sarcasm_markers"`

	LastEvolution time.Time `json:"last_evolution"`
}

// DefaultBundle returns the hard-coded fallback knowledge base used whenever
// no persisted bundle exists or loading fails. Classification must never
// block on the knowledge base being empty.
func DefaultBundle() *Bundle {
	return &Bundle{
		Version: 1,
		SlangPatterns: map[string]map[string][]string{
			"pidgin": {
				"greetings":      {"how far", "how you dey", "wetin dey happen", "you don chop"},
				"agreement":      {"na so", "na true", "i dey tell you", "no be small"},
				"emotions.joy":   {"e sweet me", "belle sweet", "we don win"},
				"emotions.anger": {"e don spoil", "dem don tire us", "wahala too much", "i vex"},
			},
			"fr": {
				"greetings":      {"on est ensemble", "c'est comment"},
				"emotions.joy":   {"c'est bon", "on est content"},
				"emotions.anger": {"c'est la galère", "on en a marre", "trop c'est trop"},
			},
		},
		PoliticalFigures: map[string][]string{
			"president":      {"paul biya", "biya"},
			"prime_minister": {"joseph dion ngute", "dion ngute"},
			"opposition":     {"maurice kamto", "kamto", "cabral libii"},
		},
		PoliticalParties: []string{"cpdm", "rdpc", "sdf", "mrc", "pcrn", "undp"},
		RegionalContexts: map[string]RegionalContext{
			"Northwest": {
				Keywords: []string{"anglophone", "ambazonia", "separatist", "ghost town", "amba"},
				Emotions: []string{"fear", "anger"},
			},
			"Southwest": {
				Keywords: []string{"anglophone crisis", "lockdown", "amba boys"},
				Emotions: []string{"fear", "anger"},
			},
			"Far North": {
				Keywords: []string{"boko haram", "kidnapping", "insurgent"},
				Emotions: []string{"fear"},
			},
		},
		ThreatMultipliers: map[string]float64{
			"kill":     3,
			"bomb":     3,
			"attack":   3,
			"war":      3,
			"burn":     2,
			"gun":      2,
			"riot":     2,
			"violence": 2,
			"fight":    1,
			"protest":  1,
			"strike":   1,
		},
		SarcasmMarkers: []string{
			"yeah right",
			"as if",
			"nice one oh",
			"we hear you",
			"bravo hein",
		},
	}
}

// SlangPatch is one learned slang phrase to fold into the bundle.
type SlangPatch struct {
	Language   string  `json:"language"`
	Bucket     string  `json:"bucket"`
	Phrase     string  `json:"phrase"`
	Confidence float64 `json:"confidence"`
}

// Patch is a structured, append-only mutation of the bundle produced by the
// learning feedback loop.
type Patch struct {
	Figures []DetectedFigure `json:"figures,omitempty"`
	Slang   []SlangPatch     `json:"slang,omitempty"`
}

// Empty reports whether the patch carries no mutations.
func (p Patch) Empty() bool {
	return len(p.Figures) == 0 && len(p.Slang) == 0
}

// Validate rejects malformed patch entries before they reach the bundle.
func (p Patch) Validate() error {
	for _, f := range p.Figures {
		if strings.TrimSpace(f.Name) == "" {
			return errors.New("figure patch: name is required")
		}
		if f.Confidence < 0 || f.Confidence > 1 {
			return fmt.Errorf("figure patch %q: confidence %v out of range", f.Name, f.Confidence)
		}
	}
	for _, s := range p.Slang {
		if strings.TrimSpace(s.Phrase) == "" {
			return errors.New("slang patch: phrase is required")
		}
		if strings.TrimSpace(s.Language) == "" {
			return fmt.Errorf("slang patch %q: language is required", s.Phrase)
		}
		if strings.TrimSpace(s.Bucket) == "" {
			return fmt.Errorf("slang patch %q: bucket is required", s.Phrase)
		}
	}
	return nil
}

// Merge returns a new bundle with the patch folded in. Merging is append-only:
// existing entries are never overwritten or removed, and duplicates are
// skipped. The receiver is left untouched.
func (b *Bundle) Merge(patch Patch, now time.Time) (*Bundle, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	merged := b.clone()

	for _, f := range patch.Figures {
		name := strings.ToLower(strings.TrimSpace(f.Name))
		if merged.knowsFigure(name) {
			continue
		}
		detected := f
		detected.Name = name
		if detected.FirstDetected.IsZero() {
			detected.FirstDetected = now
		}
		merged.DetectedFigures = append(merged.DetectedFigures, detected)
	}

	for _, s := range patch.Slang {
		lang := strings.ToLower(strings.TrimSpace(s.Language))
		phrase := strings.ToLower(strings.TrimSpace(s.Phrase))
		if merged.SlangPatterns[lang] == nil {
			merged.SlangPatterns[lang] = make(map[string][]string)
		}
		if containsString(merged.SlangPatterns[lang][s.Bucket], phrase) {
			continue
		}
		merged.SlangPatterns[lang][s.Bucket] = append(merged.SlangPatterns[lang][s.Bucket], phrase)
	}

	merged.Version = b.Version + 1
	merged.LastEvolution = now
	return merged, nil
}

func (b *Bundle) knowsFigure(name string) bool {
	for _, aliases := range b.PoliticalFigures {
		if containsString(aliases, name) {
			return true
		}
	}
	for _, f := range b.DetectedFigures {
		if f.Name == name {
			return true
		}
	}
	return false
}

// AllFigures returns every configured and runtime-detected figure name.
func (b *Bundle) AllFigures() []string {
	var out []string
	for _, aliases := range b.PoliticalFigures {
		out = append(out, aliases...)
	}
	for _, f := range b.DetectedFigures {
		out = append(out, f.Name)
	}
	return out
}

func (b *Bundle) clone() *Bundle {
	out := &Bundle{
		Version:           b.Version,
		SlangPatterns:     make(map[string]map[string][]string, len(b.SlangPatterns)),
		PoliticalFigures:  make(map[string][]string, len(b.PoliticalFigures)),
		DetectedFigures:   append([]DetectedFigure(nil), b.DetectedFigures...),
		PoliticalParties:  append([]string(nil), b.PoliticalParties...),
		RegionalContexts:  make(map[string]RegionalContext, len(b.RegionalContexts)),
		ThreatMultipliers: make(map[string]float64, len(b.ThreatMultipliers)),
		SarcasmMarkers:    append([]string(nil), b.SarcasmMarkers...),
		LastEvolution:     b.LastEvolution,
	}
	for lang, buckets := range b.SlangPatterns {
		out.SlangPatterns[lang] = make(map[string][]string, len(buckets))
		for bucket, phrases := range buckets {
			out.SlangPatterns[lang][bucket] = append([]string(nil), phrases...)
		}
	}
	for role, aliases := range b.PoliticalFigures {
		out.PoliticalFigures[role] = append([]string(nil), aliases...)
	}
	for region, rc := range b.RegionalContexts {
		out.RegionalContexts[region] = RegionalContext{
			Keywords: append([]string(nil), rc.Keywords...),
			Emotions: append([]string(nil), rc.Emotions...),
		}
	}
	for keyword, weight := range b.ThreatMultipliers {
		out.ThreatMultipliers[keyword] = weight
	}
	return out
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
