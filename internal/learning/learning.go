package learning

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/camerpulse/sentinel/internal/localctx"
	"github.com/camerpulse/sentinel/pkg/logging"
)

// Pattern description tags that trigger context evolution. Payload fields are
// colon separated: new_political_figure:<name> and
// new_slang:<language>:<bucket>:<phrase>.
const (
	TagNewFigure = "new_political_figure:"
	TagNewSlang  = "new_slang:"
)

// ContextMerger folds learned patterns back into the context bundle. This is
// the only mutation path into the knowledge base outside manual
// administration.
type ContextMerger interface {
	Merge(ctx context.Context, patch localctx.Patch) error
}

// Recorder appends every classification to the learning log and evolves the
// context bundle when a pattern description carries a novelty tag.
type Recorder struct {
	db     *sql.DB
	merger ContextMerger
	logger logging.Logger
}

func NewRecorder(db *sql.DB, merger ContextMerger, logger logging.Logger) *Recorder {
	return &Recorder{db: db, merger: merger, logger: logger}
}

// Record writes one learning-log entry. Failing to evolve the bundle is
// logged but does not fail the record; the audit row is the contract.
func (r *Recorder) Record(ctx context.Context, observation interface{}, patternDescription string, confidenceDelta float64) error {
	payload, err := json.Marshal(observation)
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sentinel.learning_log (id, observation, pattern_description, confidence_delta, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		uuid.New().String(), payload, patternDescription, confidenceDelta)
	if err != nil {
		return fmt.Errorf("insert learning log: %w", err)
	}

	patch := buildPatch(patternDescription, confidenceDelta)
	if patch.Empty() {
		return nil
	}
	if err := r.merger.Merge(ctx, patch); err != nil {
		r.logger.WithError(err).WithField("pattern", patternDescription).
			Warn("Failed to evolve context bundle from learned pattern")
	}
	return nil
}

func buildPatch(description string, confidence float64) localctx.Patch {
	var patch localctx.Patch
	for _, line := range strings.Split(description, ";") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, TagNewFigure):
			name := strings.TrimSpace(strings.TrimPrefix(line, TagNewFigure))
			if name == "" {
				continue
			}
			patch.Figures = append(patch.Figures, localctx.DetectedFigure{
				Name:       name,
				Confidence: clamp01(confidence),
			})
		case strings.HasPrefix(line, TagNewSlang):
			parts := strings.SplitN(strings.TrimPrefix(line, TagNewSlang), ":", 3)
			if len(parts) != 3 {
				continue
			}
			patch.Slang = append(patch.Slang, localctx.SlangPatch{
				Language:   strings.TrimSpace(parts[0]),
				Bucket:     strings.TrimSpace(parts[1]),
				Phrase:     strings.TrimSpace(parts[2]),
				Confidence: clamp01(confidence),
			})
		}
	}
	return patch
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
