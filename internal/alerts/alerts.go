package alerts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/camerpulse/sentinel/internal/signal"
)

const excerptLength = 100

// ErrNotFound is returned when an alert id does not exist.
var ErrNotFound = errors.New("alert not found")

// Alerter turns severe classifications into threat alert records. Anything
// below high severity is ignored. There is no deduplication; repeated severe
// content produces repeated alerts.
type Alerter struct {
	db *sql.DB
}

func NewAlerter(db *sql.DB) *Alerter {
	return &Alerter{db: db}
}

// MaybeAlert stores one alert when the result's threat level is high or
// critical, and reports whether an alert was created.
func (a *Alerter) MaybeAlert(ctx context.Context, req signal.AnalyzeRequest, res signal.Result) (bool, error) {
	if !res.ThreatLevel.Severe() {
		return false, nil
	}

	var regions []string
	if res.Region != "" {
		regions = append(regions, res.Region)
	}

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO sentinel.threat_alerts
		   (id, severity, title, description, affected_regions, polarity, score, threat_level, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		uuid.New().String(),
		string(res.ThreatLevel),
		fmt.Sprintf("%s threat detected on %s", res.ThreatLevel, platformLabel(req.Platform)),
		excerpt(req.Content),
		pq.Array(regions),
		string(res.Polarity),
		res.Score,
		string(res.ThreatLevel))
	if err != nil {
		return false, fmt.Errorf("insert threat alert: %w", err)
	}
	return true, nil
}

// ActiveCount counts unacknowledged alerts.
func (a *Alerter) ActiveCount(ctx context.Context) (int64, error) {
	var count int64
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sentinel.threat_alerts WHERE acknowledged = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active alerts: %w", err)
	}
	return count, nil
}

// Acknowledge marks an alert as handled.
func (a *Alerter) Acknowledge(ctx context.Context, id string) error {
	result, err := a.db.ExecContext(ctx,
		`UPDATE sentinel.threat_alerts SET acknowledged = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("acknowledge alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return nil
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptLength {
		return content
	}
	return string(runes[:excerptLength]) + "..."
}

func platformLabel(platform string) string {
	if platform == "" {
		return "unknown platform"
	}
	return platform
}
