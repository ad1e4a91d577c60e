package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// DrainRun is one drain invocation's outcome, kept for the composer's run
// history. This is side-channel bookkeeping; losing a row never affects the
// campaign itself.
type DrainRun struct {
	RunID      string    `db:"run_id" json:"runId"`
	CampaignID string    `db:"campaign_id" json:"campaignId"`
	Attempted  int       `db:"attempted" json:"attempted"`
	Sent       int       `db:"sent" json:"sent"`
	Failed     int       `db:"failed" json:"failed"`
	Remaining  int       `db:"remaining" json:"remaining"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type RunRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Record(ctx context.Context, run DrainRun) error {
	query := `
		INSERT INTO drain_runs (run_id, campaign_id, attempted, sent, failed, remaining, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`

	if _, err := r.db.ExecContext(ctx, query,
		run.RunID, run.CampaignID, run.Attempted, run.Sent, run.Failed, run.Remaining); err != nil {
		return fmt.Errorf("failed to record drain run: %w", err)
	}

	return nil
}

func (r *RunRepository) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]DrainRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT run_id, campaign_id, attempted, sent, failed, remaining, created_at
		FROM drain_runs
		WHERE campaign_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	var runs []DrainRun
	if err := r.db.SelectContext(ctx, &runs, query, campaignID, limit); err != nil {
		return nil, fmt.Errorf("failed to list drain runs: %w", err)
	}

	return runs, nil
}
