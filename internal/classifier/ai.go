package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camerpulse/sentinel/internal/localctx"
	"github.com/camerpulse/sentinel/internal/signal"
	"github.com/camerpulse/sentinel/pkg/llm"
	"github.com/camerpulse/sentinel/pkg/logging"
)

const systemPrompt = `You are a civic sentiment analyst for Cameroonian social media.
Analyze the given text and respond with a single JSON object using exactly these fields:
{"polarity": "positive|negative|neutral", "score": -1.0 to 1.0, "emotions": ["anger","joy","fear","hope",...], "confidence": 0.0 to 1.0, "language": "en|fr|pidgin", "categories": ["election","governance","security","economy","youth","infrastructure","corruption","education"], "keywords": [...], "hashtags": [...], "mentions": [...], "region": "Cameroon region or empty", "threat_level": "none|low|medium|high|critical"}
Understand Cameroonian Pidgin English and French slang. Respond with JSON only, no prose.`

// AI delegates classification to an external language model and falls back to
// the heuristic classifier on any failure. Callers never see the failure; the
// outcome records the degradation instead.
type AI struct {
	provider  llm.Provider
	heuristic *Heuristic
	logger    logging.Logger
}

// NewAI builds the two-tier classifier. A nil provider is valid and means the
// heuristic tier serves every request without being counted as degraded.
func NewAI(provider llm.Provider, heuristic *Heuristic, logger logging.Logger) *AI {
	return &AI{provider: provider, heuristic: heuristic, logger: logger}
}

// Classify attempts one external call and silently falls back to the
// heuristic classifier on network failure, non-2xx responses or unparseable
// output. No retries.
func (a *AI) Classify(ctx context.Context, text string, bundle *localctx.Bundle) signal.Outcome {
	if a.provider == nil {
		return signal.Outcome{
			Result: a.heuristic.Classify(text, bundle),
			Source: signal.SourceHeuristic,
		}
	}

	raw, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System:   systemPrompt,
		User:     text,
		JSONOnly: true,
	})
	if err != nil {
		return a.fallback(text, bundle, fmt.Sprintf("completion failed: %v", err))
	}

	result, err := parseAIResult(raw, text)
	if err != nil {
		return a.fallback(text, bundle, fmt.Sprintf("unparseable response: %v", err))
	}
	return signal.Outcome{Result: result, Source: signal.SourceAI}
}

func (a *AI) fallback(text string, bundle *localctx.Bundle, reason string) signal.Outcome {
	a.logger.WithField("reason", reason).Warn("AI classification failed, using heuristic fallback")
	return signal.Outcome{
		Result:   a.heuristic.Classify(text, bundle),
		Source:   signal.SourceHeuristic,
		Degraded: true,
		Reason:   reason,
	}
}

type aiResponse struct {
	Polarity    string   `json:"polarity"`
	Score       float64  `json:"score"`
	Emotions    []string `json:"emotions"`
	Confidence  float64  `json:"confidence"`
	Language    string   `json:"language"`
	Categories  []string `json:"categories"`
	Keywords    []string `json:"keywords"`
	Hashtags    []string `json:"hashtags"`
	Mentions    []string `json:"mentions"`
	Region      string   `json:"region"`
	ThreatLevel string   `json:"threat_level"`
}

// parseAIResult decodes the model's JSON and normalizes it into a consistent
// result: score clamped, polarity recomputed from the score, unknown threat
// levels rejected. Token extraction is recomputed locally when the model
// omits it, since it is deterministic on the input text.
func parseAIResult(raw, text string) (signal.Result, error) {
	// Some providers wrap JSON in markdown fences despite instructions.
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var resp aiResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &resp); err != nil {
		return signal.Result{}, err
	}

	score := resp.Score
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	threat := signal.ThreatLevel(strings.ToLower(resp.ThreatLevel))
	switch threat {
	case signal.ThreatNone, signal.ThreatLow, signal.ThreatMedium, signal.ThreatHigh, signal.ThreatCritical:
	default:
		return signal.Result{}, fmt.Errorf("unknown threat level %q", resp.ThreatLevel)
	}

	hashtags := resp.Hashtags
	if hashtags == nil {
		hashtags = extractTokens(text, hashtagRe)
	}
	mentions := resp.Mentions
	if mentions == nil {
		mentions = extractTokens(text, mentionRe)
	}

	return signal.Result{
		Polarity:    signal.PolarityFromScore(score),
		Score:       score,
		Emotions:    resp.Emotions,
		Confidence:  confidence,
		Language:    resp.Language,
		Categories:  resp.Categories,
		Keywords:    resp.Keywords,
		Hashtags:    hashtags,
		Mentions:    mentions,
		Region:      resp.Region,
		ThreatLevel: threat,
	}, nil
}
