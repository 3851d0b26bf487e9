package classifier

import (
	"regexp"
	"sort"
	"strings"

	"github.com/camerpulse/sentinel/internal/localctx"
	"github.com/camerpulse/sentinel/internal/signal"
)

// HeuristicConfidence is the fixed confidence assigned to rule-based results.
// It reflects the reliability floor of the dictionary approach rather than
// per-item evidence strength.
const HeuristicConfidence = 0.85

var (
	hashtagRe = regexp.MustCompile(`#(\w+)`)
	mentionRe = regexp.MustCompile(`@(\w+)`)
)

// Base sentiment vocabulary, extended at classification time by the bundle's
// joy/anger slang buckets for the detected language.
var (
	basePositiveWords = []string{
		"good", "great", "love", "happy", "wonderful", "excellent", "win",
		"hope", "progress", "peace", "success", "support", "bravo",
		"bon", "bien", "merci", "super", "victoire",
	}
	baseNegativeWords = []string{
		"bad", "terrible", "hate", "angry", "corrupt", "fail", "crisis",
		"suffer", "violence", "kill", "steal", "poverty", "shame",
		"mauvais", "grave", "voleur", "souffrance", "honte",
	}
)

// Default emotion phrase table, merged with any "emotions.*" slang buckets
// carried by the bundle for the detected language.
var baseEmotionPhrases = map[string][]string{
	"anger": {"angry", "furious", "outrage", "vex", "fed up", "en colère"},
	"joy":   {"happy", "joy", "celebrate", "excited", "proud", "content"},
	"fear":  {"afraid", "scared", "fear", "worried", "danger", "peur"},
	"hope":  {"hope", "hopeful", "better future", "change", "espoir"},
}

// Common French function words used by the language cascade. Pidgin is tested
// first because code-mixed text usually carries both.
var frenchFunctionWords = []string{
	" le ", " la ", " les ", " des ", " une ", " est ", " sont ",
	" nous ", " vous ", " avec ", " pour ", " dans ", " que ",
}

// Fixed topical keyword table covering the taxonomy entries not derivable
// from the bundle's figures, parties and regional contexts.
var baseCategoryKeywords = map[string][]string{
	"election":       {"election", "vote", "ballot", "campaign", "elecam"},
	"governance":     {"government", "minister", "policy", "decree", "gouvernement"},
	"security":       {"security", "military", "police", "soldier", "gendarme"},
	"economy":        {"economy", "price", "market", "fuel", "salary", "cfa", "tax"},
	"youth":          {"youth", "student", "unemployment", "jeune", "graduate"},
	"infrastructure": {"road", "electricity", "water", "hospital", "bridge", "eneo"},
	"corruption":     {"corruption", "bribe", "embezzle", "scandal", "detournement"},
	"education":      {"school", "teacher", "university", "exam", "education"},
}

// Cameroon administrative regions, scanned in fixed order before the city
// lookup so region detection is deterministic. Compound names come first so
// "northwest" is not claimed by "north".
var regionNames = []string{
	"Far North", "Northwest", "Southwest",
	"Adamawa", "Centre", "Littoral",
	"North", "South", "East", "West",
}

var cityRegions = []struct {
	city   string
	region string
}{
	{"douala", "Littoral"},
	{"yaounde", "Centre"},
	{"yaoundé", "Centre"},
	{"bamenda", "Northwest"},
	{"buea", "Southwest"},
	{"kumba", "Southwest"},
	{"garoua", "North"},
	{"maroua", "Far North"},
	{"bafoussam", "West"},
	{"ngaoundere", "Adamawa"},
	{"bertoua", "East"},
	{"ebolowa", "South"},
	{"limbe", "Southwest"},
	{"kribi", "South"},
}

// Heuristic is the rule-based classifier. It is a pure function of the text
// and the bundle it is handed; identical inputs produce identical results.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Classify runs the full rule cascade: language detection, sentiment scoring,
// emotion and category detection, threat scoring, token extraction and region
// detection.
func (h *Heuristic) Classify(text string, bundle *localctx.Bundle) signal.Result {
	lower := strings.ToLower(text)

	language := detectLanguage(lower, bundle)
	score := scoreSentiment(lower, language, bundle)
	emotions := detectEmotions(lower, language, bundle)
	categories := detectCategories(lower, bundle, emotions)
	threat := scoreThreat(lower, bundle)
	region := detectRegion(lower)

	keywords := dedupeSorted(append(append([]string{}, categories...), setToSlice(emotions)...))

	return signal.Result{
		Polarity:    signal.PolarityFromScore(score),
		Score:       score,
		Emotions:    setToSortedSlice(emotions),
		Confidence:  HeuristicConfidence,
		Language:    language,
		Categories:  dedupeSorted(categories),
		Keywords:    keywords,
		Hashtags:    extractTokens(text, hashtagRe),
		Mentions:    extractTokens(text, mentionRe),
		Region:      region,
		ThreatLevel: signal.ThreatLevelFromScore(threat),
	}
}

// detectLanguage is a three-way priority cascade, not a statistical model:
// pidgin phrases win over French markers, French wins over the English
// default.
func detectLanguage(lower string, bundle *localctx.Bundle) string {
	for _, bucket := range []string{"greetings", "agreement"} {
		for _, phrase := range bundle.SlangPatterns["pidgin"][bucket] {
			if strings.Contains(lower, phrase) {
				return "pidgin"
			}
		}
	}
	padded := " " + lower + " "
	for _, w := range frenchFunctionWords {
		if strings.Contains(padded, w) {
			return "fr"
		}
	}
	for _, phrases := range bundle.SlangPatterns["fr"] {
		for _, phrase := range phrases {
			if strings.Contains(lower, phrase) {
				return "fr"
			}
		}
	}
	return "en"
}

func scoreSentiment(lower, language string, bundle *localctx.Bundle) float64 {
	positive := append(append([]string{}, basePositiveWords...),
		bundle.SlangPatterns[language]["emotions.joy"]...)
	negative := append(append([]string{}, baseNegativeWords...),
		bundle.SlangPatterns[language]["emotions.anger"]...)

	var score float64
	for _, w := range positive {
		score += 0.5 * float64(strings.Count(lower, w))
	}
	for _, w := range negative {
		score -= 0.5 * float64(strings.Count(lower, w))
	}

	for _, marker := range bundle.SarcasmMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			score = -score
			break
		}
	}

	score /= 3
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score
}

func detectEmotions(lower, language string, bundle *localctx.Bundle) map[string]bool {
	table := make(map[string][]string, len(baseEmotionPhrases))
	for emotion, phrases := range baseEmotionPhrases {
		table[emotion] = phrases
	}
	for bucket, phrases := range bundle.SlangPatterns[language] {
		if emotion, ok := strings.CutPrefix(bucket, "emotions."); ok {
			table[emotion] = append(append([]string{}, table[emotion]...), phrases...)
		}
	}

	found := make(map[string]bool)
	for emotion, phrases := range table {
		for _, phrase := range phrases {
			if strings.Contains(lower, strings.ToLower(phrase)) {
				found[emotion] = true
				break
			}
		}
	}
	return found
}

func detectCategories(lower string, bundle *localctx.Bundle, emotions map[string]bool) []string {
	var categories []string

	for _, figure := range bundle.AllFigures() {
		if strings.Contains(lower, strings.ToLower(figure)) {
			categories = append(categories, "governance")
			break
		}
	}
	for _, party := range bundle.PoliticalParties {
		if strings.Contains(lower, strings.ToLower(party)) {
			categories = append(categories, "election")
			break
		}
	}
	for _, rc := range bundle.RegionalContexts {
		matched := false
		for _, kw := range rc.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
		if matched {
			categories = append(categories, "security")
			for _, emotion := range rc.Emotions {
				emotions[emotion] = true
			}
		}
	}
	for category, kws := range baseCategoryKeywords {
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				categories = append(categories, category)
				break
			}
		}
	}
	return categories
}

// scoreThreat is a simple additive risk model: each configured keyword
// contributes its weight once regardless of how many times it occurs.
func scoreThreat(lower string, bundle *localctx.Bundle) float64 {
	var score float64
	for keyword, weight := range bundle.ThreatMultipliers {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			score += weight
		}
	}
	return score
}

func detectRegion(lower string) string {
	for _, region := range regionNames {
		if strings.Contains(lower, strings.ToLower(region)) {
			return region
		}
	}
	for _, cr := range cityRegions {
		if strings.Contains(lower, cr.city) {
			return cr.region
		}
	}
	return ""
}

func extractTokens(text string, re *regexp.Regexp) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func setToSortedSlice(set map[string]bool) []string {
	out := setToSlice(set)
	sort.Strings(out)
	return out
}

func dedupeSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
