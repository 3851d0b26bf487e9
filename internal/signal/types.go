package signal

// Polarity is the coarse sentiment direction of a piece of content.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// ThreatLevel is the discrete escalation level derived from the additive
// threat score.
type ThreatLevel string

const (
	ThreatNone     ThreatLevel = "none"
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// Source identifies which classifier produced a result.
type Source string

const (
	SourceAI        Source = "ai"
	SourceHeuristic Source = "heuristic"
)

// AnalyzeRequest is one unit of social text to classify. Content is the only
// required field.
type AnalyzeRequest struct {
	Content      string             `json:"content"`
	Platform     string             `json:"platform,omitempty"`
	ContentID    string             `json:"content_id,omitempty"`
	AuthorHandle string             `json:"author_handle,omitempty"`
	Engagement   map[string]float64 `json:"engagement,omitempty"`
}

// Result is the fully-populated signal derived from one piece of content.
// Results are immutable once produced.
type Result struct {
	Polarity    Polarity    `json:"polarity"`
	Score       float64     `json:"score"`
	Emotions    []string    `json:"emotions"`
	Confidence  float64     `json:"confidence"`
	Language    string      `json:"language"`
	Categories  []string    `json:"categories"`
	Keywords    []string    `json:"keywords"`
	Hashtags    []string    `json:"hashtags"`
	Mentions    []string    `json:"mentions"`
	Region      string      `json:"region,omitempty"`
	ThreatLevel ThreatLevel `json:"threat_level"`
}

// Outcome wraps a Result with provenance so a silent classifier fallback
// stays observable in logs and metrics without surfacing to callers.
type Outcome struct {
	Result   Result
	Source   Source
	Degraded bool
	Reason   string
}

// Score within this band maps to neutral polarity regardless of sign.
const NeutralDeadband = 0.1

// PolarityFromScore maps a normalized score to a polarity, applying the
// neutral deadband.
func PolarityFromScore(score float64) Polarity {
	switch {
	case score > NeutralDeadband:
		return PolarityPositive
	case score < -NeutralDeadband:
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}

// ThreatLevelFromScore maps the additive threat score to a discrete level.
// The score is a simple additive risk sum over weighted keyword hits, not a
// normalized probability.
func ThreatLevelFromScore(score float64) ThreatLevel {
	switch {
	case score >= 6:
		return ThreatCritical
	case score >= 4:
		return ThreatHigh
	case score >= 2:
		return ThreatMedium
	case score > 0:
		return ThreatLow
	default:
		return ThreatNone
	}
}

// Severe reports whether a threat level warrants alerting.
func (t ThreatLevel) Severe() bool {
	return t == ThreatHigh || t == ThreatCritical
}
