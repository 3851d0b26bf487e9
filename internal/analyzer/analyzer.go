package analyzer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/camerpulse/sentinel/internal/learning"
	"github.com/camerpulse/sentinel/internal/localctx"
	"github.com/camerpulse/sentinel/internal/signal"
	"github.com/camerpulse/sentinel/pkg/logging"
)

// ErrEmptyContent is the only error analysis surfaces to callers; every
// other failure degrades internally.
var ErrEmptyContent = errors.New("content is required")

// Classifier produces a classification outcome for one piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string, bundle *localctx.Bundle) signal.Outcome
}

// ContextSource serves the current knowledge bundle.
type ContextSource interface {
	Bundle(ctx context.Context) *localctx.Bundle
}

// ResultStore persists classifications and serves result aggregates.
type ResultStore interface {
	SaveResult(ctx context.Context, req signal.AnalyzeRequest, res signal.Result) error
	TotalAnalyzed(ctx context.Context) (int64, error)
	TrendingTopics(ctx context.Context, limit int) ([]string, error)
}

// AlertStore raises, counts and resolves threat alerts.
type AlertStore interface {
	MaybeAlert(ctx context.Context, req signal.AnalyzeRequest, res signal.Result) (bool, error)
	ActiveCount(ctx context.Context) (int64, error)
	Acknowledge(ctx context.Context, id string) error
}

// Recorder appends classifications to the learning log.
type Recorder interface {
	Record(ctx context.Context, observation interface{}, patternDescription string, confidenceDelta float64) error
}

// Analyzer is the classification entry point. It normalizes classifier
// output into a fully populated result and dispatches persistence, alerting
// and learning as independent side effects.
type Analyzer struct {
	classifier Classifier
	contexts   ContextSource
	results    ResultStore
	alerter    AlertStore
	recorder   Recorder
	logger     logging.Logger
	metrics    *Metrics
}

func New(classifier Classifier, contexts ContextSource, results ResultStore,
	alerter AlertStore, recorder Recorder, logger logging.Logger, metrics *Metrics) *Analyzer {
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Analyzer{
		classifier: classifier,
		contexts:   contexts,
		results:    results,
		alerter:    alerter,
		recorder:   recorder,
		logger:     logger,
		metrics:    metrics,
	}
}

// Analyze classifies one request. It fails only for empty content; side
// effect failures are logged and absorbed so callers always receive a
// result for valid input.
func (a *Analyzer) Analyze(ctx context.Context, req signal.AnalyzeRequest) (signal.Result, error) {
	if strings.TrimSpace(req.Content) == "" {
		return signal.Result{}, ErrEmptyContent
	}

	start := time.Now()
	bundle := a.contexts.Bundle(ctx)
	outcome := a.classifier.Classify(ctx, req.Content, bundle)
	result := applyDefaults(outcome.Result)
	a.metrics.observe(outcome, time.Since(start))

	if outcome.Degraded {
		a.logger.WithFields(logging.Fields{
			"platform": req.Platform,
			"reason":   outcome.Reason,
		}).Warn("Classification degraded to heuristic fallback")
	}

	a.dispatchSideEffects(ctx, req, result, outcome, bundle)
	return result, nil
}

// ItemResult is one entry of a bulk response: the request with either its
// result or the error that rejected it.
type ItemResult struct {
	Request signal.AnalyzeRequest `json:"request"`
	Result  *signal.Result        `json:"result,omitempty"`
	Error   string                `json:"error,omitempty"`
	Success bool                  `json:"success"`
}

// BulkSummary tallies a batch.
type BulkSummary struct {
	Items     []ItemResult `json:"items"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// AnalyzeBulk processes requests sequentially with per-item isolation: one
// item's failure never aborts the rest of the batch.
func (a *Analyzer) AnalyzeBulk(ctx context.Context, reqs []signal.AnalyzeRequest) BulkSummary {
	summary := BulkSummary{Items: make([]ItemResult, 0, len(reqs))}
	for _, req := range reqs {
		item := ItemResult{Request: req}
		result, err := a.Analyze(ctx, req)
		if err != nil {
			item.Error = err.Error()
			summary.Failed++
		} else {
			item.Result = &result
			item.Success = true
			summary.Succeeded++
		}
		summary.Items = append(summary.Items, item)
	}
	return summary
}

// Stats are the read-only aggregates served to callers. Aggregate queries
// that fail zero their field and degrade the status instead of erroring.
type Stats struct {
	TotalAnalyzed  int64    `json:"total_analyzed"`
	ActiveAlerts   int64    `json:"active_alerts"`
	TrendingTopics []string `json:"trending_topics"`
	Status         string   `json:"status"`
}

func (a *Analyzer) Stats(ctx context.Context) Stats {
	stats := Stats{Status: "operational", TrendingTopics: []string{}}

	total, err := a.results.TotalAnalyzed(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to count analyzed results")
		stats.Status = "degraded"
	} else {
		stats.TotalAnalyzed = total
	}

	active, err := a.alerter.ActiveCount(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to count active alerts")
		stats.Status = "degraded"
	} else {
		stats.ActiveAlerts = active
	}

	topics, err := a.results.TrendingTopics(ctx, 5)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to load trending topics")
		stats.Status = "degraded"
	} else if topics != nil {
		stats.TrendingTopics = topics
	}

	return stats
}

// AcknowledgeAlert marks one alert as handled.
func (a *Analyzer) AcknowledgeAlert(ctx context.Context, id string) error {
	return a.alerter.Acknowledge(ctx, id)
}

// dispatchSideEffects runs persistence, alerting and learning independently.
// None blocks or aborts the others.
func (a *Analyzer) dispatchSideEffects(ctx context.Context, req signal.AnalyzeRequest, result signal.Result, outcome signal.Outcome, bundle *localctx.Bundle) {
	if err := a.results.SaveResult(ctx, req, result); err != nil {
		a.logger.WithError(err).Warn("Failed to persist signal result")
		a.metrics.sideEffectFailure("persist")
	}

	created, err := a.alerter.MaybeAlert(ctx, req, result)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to raise threat alert")
		a.metrics.sideEffectFailure("alert")
	} else if created {
		a.metrics.alertRaised(result.ThreatLevel)
		a.logger.WithFields(logging.Fields{
			"threat_level": result.ThreatLevel,
			"region":       result.Region,
			"platform":     req.Platform,
		}).Warn("Threat alert raised")
	}

	observation := map[string]interface{}{
		"request": req,
		"result":  result,
		"source":  outcome.Source,
	}
	description := describePattern(result)
	var confidenceDelta float64
	if tags := noveltyTags(result, outcome, bundle); len(tags) > 0 {
		description = description + "; " + strings.Join(tags, "; ")
		confidenceDelta = result.Confidence
	}
	if err := a.recorder.Record(ctx, observation, description, confidenceDelta); err != nil {
		a.logger.WithError(err).Warn("Failed to record learning entry")
		a.metrics.sideEffectFailure("learn")
	}
}

func describePattern(result signal.Result) string {
	var parts []string
	parts = append(parts, "classified as "+string(result.Polarity))
	if result.ThreatLevel != signal.ThreatNone {
		parts = append(parts, "threat "+string(result.ThreatLevel))
	}
	if result.Region != "" {
		parts = append(parts, "region "+result.Region)
	}
	return strings.Join(parts, ", ")
}

// noveltyTags flags patterns the bundle does not know yet so the learning
// loop can fold them back in. Only clean AI results are trusted as
// discovery evidence; the heuristic tier can only see what the bundle
// already contains.
func noveltyTags(result signal.Result, outcome signal.Outcome, bundle *localctx.Bundle) []string {
	if outcome.Source != signal.SourceAI || outcome.Degraded {
		return nil
	}

	var tags []string

	if containsString(result.Categories, "governance") {
		known := make(map[string]bool)
		for _, figure := range bundle.AllFigures() {
			known[strings.ToLower(figure)] = true
		}
		for _, mention := range result.Mentions {
			name := strings.ToLower(strings.TrimSpace(mention))
			if name == "" || known[name] {
				continue
			}
			tags = append(tags, learning.TagNewFigure+name)
		}
	}

	if bucket := slangBucket(result.Polarity); bucket != "" && result.Language != "" && result.Language != "en" {
		for _, keyword := range result.Keywords {
			phrase := strings.ToLower(strings.TrimSpace(keyword))
			// Single words are lexicon material, not slang; only phrases
			// the bundle has never seen are worth learning.
			if !strings.Contains(phrase, " ") || bundleKnowsPhrase(bundle, result.Language, phrase) {
				continue
			}
			tags = append(tags, learning.TagNewSlang+result.Language+":"+bucket+":"+phrase)
		}
	}

	return tags
}

func slangBucket(polarity signal.Polarity) string {
	switch polarity {
	case signal.PolarityPositive:
		return "emotions.joy"
	case signal.PolarityNegative:
		return "emotions.anger"
	default:
		return ""
	}
}

func bundleKnowsPhrase(bundle *localctx.Bundle, language, phrase string) bool {
	for _, phrases := range bundle.SlangPatterns[language] {
		if containsString(phrases, phrase) {
			return true
		}
	}
	return false
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

// applyDefaults fills any field the classifier left unset so the result is
// always fully populated.
func applyDefaults(r signal.Result) signal.Result {
	if r.Polarity == "" {
		r.Polarity = signal.PolarityNeutral
	}
	if r.Confidence == 0 {
		r.Confidence = 0.5
	}
	if r.Language == "" {
		r.Language = "en"
	}
	if r.Emotions == nil {
		r.Emotions = []string{}
	}
	if r.Categories == nil {
		r.Categories = []string{}
	}
	// Keywords are the search index: the deduplicated union of categories
	// and emotions. Rebuild it when the classifier left it empty.
	if len(r.Keywords) == 0 {
		r.Keywords = keywordUnion(r.Categories, r.Emotions)
	}
	if r.Hashtags == nil {
		r.Hashtags = []string{}
	}
	if r.Mentions == nil {
		r.Mentions = []string{}
	}
	if r.ThreatLevel == "" {
		r.ThreatLevel = signal.ThreatNone
	}
	return r
}

func keywordUnion(categories, emotions []string) []string {
	seen := make(map[string]bool, len(categories)+len(emotions))
	union := make([]string, 0, len(categories)+len(emotions))
	for _, s := range append(append([]string{}, categories...), emotions...) {
		if !seen[s] {
			seen[s] = true
			union = append(union, s)
		}
	}
	sort.Strings(union)
	return union
}
