package localctx

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camerpulse/sentinel/pkg/cache"
	"github.com/camerpulse/sentinel/pkg/logging"
)

const (
	cacheKey   = "local_context"
	bundleType = "local_context"

	// DefaultTTL is how long a loaded bundle stays fresh before the store
	// reloads it from Postgres.
	DefaultTTL = 30 * time.Minute
)

// Store serves the context bundle from a TTL cache backed by the
// sentinel.local_context table. Loading failures are logged and absorbed;
// callers always get a usable bundle.
type Store struct {
	db     *sql.DB
	cache  *cache.Cache
	logger logging.Logger
}

func NewStore(db *sql.DB, ttl time.Duration, logger logging.Logger, hooks cache.Hooks) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		db:     db,
		cache:  cache.New(cache.Options{TTL: ttl}, hooks),
		logger: logger,
	}
}

// Bundle returns the current context bundle. It never fails: if the database
// is unreachable or holds no rows, the hard-coded defaults are returned and
// the error is logged.
func (s *Store) Bundle(ctx context.Context) *Bundle {
	val, ok, err := s.cache.Get(ctx, cacheKey, s.load)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load context bundle, using defaults")
	}
	if !ok {
		return DefaultBundle()
	}
	return val.(*Bundle)
}

// Merge folds a learning patch into the bundle, persists the merged rows and
// swaps the fresh bundle into the cache.
func (s *Store) Merge(ctx context.Context, patch Patch) error {
	if patch.Empty() {
		return nil
	}
	merged, err := s.Bundle(ctx).Merge(patch, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("merge context patch: %w", err)
	}
	if err := s.persist(ctx, merged); err != nil {
		return fmt.Errorf("persist context bundle: %w", err)
	}
	s.cache.Set(cacheKey, merged)
	return nil
}

func (s *Store) load(ctx context.Context, _ string) (interface{}, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT config_key, config_value FROM sentinel.local_context WHERE config_type = $1`,
		bundleType)
	if err != nil {
		return nil, false, fmt.Errorf("query local context: %w", err)
	}
	defer rows.Close()

	bundle := DefaultBundle()
	found := false
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, false, fmt.Errorf("scan local context row: %w", err)
		}
		if err := applyRow(bundle, key, raw); err != nil {
			s.logger.WithError(err).WithField("config_key", key).Warn("Skipping malformed context row")
			continue
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate local context rows: %w", err)
	}
	if !found {
		// Empty table is normal on first boot; serve defaults and cache them
		// so we do not hammer the database.
		return DefaultBundle(), true, nil
	}
	return bundle, true, nil
}

func applyRow(b *Bundle, key string, raw []byte) error {
	switch key {
	case "slang_patterns":
		return json.Unmarshal(raw, &b.SlangPatterns)
	case "political_figures":
		return json.Unmarshal(raw, &b.PoliticalFigures)
	case "detected_figures":
		return json.Unmarshal(raw, &b.DetectedFigures)
	case "political_parties":
		return json.Unmarshal(raw, &b.PoliticalParties)
	case "regional_contexts":
		return json.Unmarshal(raw, &b.RegionalContexts)
	case "threat_multipliers":
		return json.Unmarshal(raw, &b.ThreatMultipliers)
	case "sarcasm_markers":
		return json.Unmarshal(raw, &b.SarcasmMarkers)
	case "last_evolution":
		return json.Unmarshal(raw, &b.LastEvolution)
	default:
		// Unknown keys are tolerated so older binaries survive newer rows.
		return nil
	}
}

func (s *Store) persist(ctx context.Context, b *Bundle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows := map[string]interface{}{
		"slang_patterns":     b.SlangPatterns,
		"political_figures":  b.PoliticalFigures,
		"detected_figures":   b.DetectedFigures,
		"political_parties":  b.PoliticalParties,
		"regional_contexts":  b.RegionalContexts,
		"threat_multipliers": b.ThreatMultipliers,
		"sarcasm_markers":    b.SarcasmMarkers,
		"last_evolution":     b.LastEvolution,
	}
	for key, val := range rows {
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sentinel.local_context (config_type, config_key, config_value, updated_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (config_type, config_key)
			 DO UPDATE SET config_value = EXCLUDED.config_value, updated_at = NOW()`,
			bundleType, key, raw); err != nil {
			return fmt.Errorf("upsert %s: %w", key, err)
		}
	}
	return tx.Commit()
}
