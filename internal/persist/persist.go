package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/camerpulse/sentinel/internal/signal"
)

// Store writes signal results to Postgres and serves the read-only
// aggregates exposed by the stats endpoint.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveResult upserts one classification keyed by content identity. A repeat
// of the same content replaces the previous row rather than duplicating it.
func (s *Store) SaveResult(ctx context.Context, req signal.AnalyzeRequest, res signal.Result) error {
	engagement, err := json.Marshal(req.Engagement)
	if err != nil {
		return fmt.Errorf("marshal engagement: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sentinel.signal_results
		   (content_key, platform, author_handle, content, polarity, score, emotions,
		    confidence, language, categories, keywords, hashtags, mentions, region,
		    threat_level, engagement, analyzed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		 ON CONFLICT (content_key) DO UPDATE SET
		   polarity = EXCLUDED.polarity,
		   score = EXCLUDED.score,
		   emotions = EXCLUDED.emotions,
		   confidence = EXCLUDED.confidence,
		   language = EXCLUDED.language,
		   categories = EXCLUDED.categories,
		   keywords = EXCLUDED.keywords,
		   hashtags = EXCLUDED.hashtags,
		   mentions = EXCLUDED.mentions,
		   region = EXCLUDED.region,
		   threat_level = EXCLUDED.threat_level,
		   engagement = EXCLUDED.engagement,
		   analyzed_at = NOW()`,
		ContentKey(req), req.Platform, req.AuthorHandle, req.Content,
		string(res.Polarity), res.Score, pq.Array(res.Emotions),
		res.Confidence, res.Language, pq.Array(res.Categories),
		pq.Array(res.Keywords), pq.Array(res.Hashtags), pq.Array(res.Mentions),
		nullableString(res.Region), string(res.ThreatLevel), engagement)
	if err != nil {
		return fmt.Errorf("upsert signal result: %w", err)
	}
	return nil
}

// ContentKey derives the row identity for a request: the platform-scoped
// content id when the source supplied one, otherwise a digest-length prefix
// of the content itself.
func ContentKey(req signal.AnalyzeRequest) string {
	if req.ContentID != "" {
		if req.Platform != "" {
			return req.Platform + ":" + req.ContentID
		}
		return req.ContentID
	}
	// Truncate on a rune boundary; byte slicing could split a UTF-8
	// sequence and Postgres rejects invalid UTF-8.
	runes := []rune(req.Content)
	if len(runes) > 64 {
		runes = runes[:64]
	}
	return string(runes)
}

// TotalAnalyzed counts stored results.
func (s *Store) TotalAnalyzed(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sentinel.signal_results`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count signal results: %w", err)
	}
	return total, nil
}

// TrendingTopics returns the most frequent categories across recent results.
func (s *Store) TrendingTopics(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT topic FROM (
		   SELECT unnest(categories) AS topic, COUNT(*) AS hits
		   FROM sentinel.signal_results
		   WHERE analyzed_at > NOW() - INTERVAL '7 days'
		   GROUP BY topic
		 ) ranked
		 ORDER BY hits DESC, topic ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trending topics: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("scan trending topic: %w", err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
