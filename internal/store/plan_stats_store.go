package store

import "context"

type PlanStatsStore struct {
	db DB
}

type PlanStats struct {
	PlanID         string `db:"plan_id"`
	TotalViews     int64  `db:"total_views"`
	TotalInvestors int64  `db:"total_investors"`
}

func NewPlanStatsStore(db DB) *PlanStatsStore {
	return &PlanStatsStore{db: db}
}

func (s *PlanStatsStore) Get(ctx context.Context, planID string) (PlanStats, error) {
	var row PlanStats
	err := s.db.GetContext(ctx, &row, `
		SELECT plan_id, total_views, total_investors
		FROM plan_stats
		WHERE plan_id = $1
	`, planID)
	return row, err
}

// RecordView upserts the stats row and bumps the view counter. The
// increment runs inside the database so concurrent views do not lose
// updates.
func (s *PlanStatsStore) RecordView(ctx context.Context, planID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plan_stats (plan_id, total_views, total_investors)
		VALUES ($1, 1, 0)
		ON CONFLICT (plan_id) DO UPDATE SET total_views = plan_stats.total_views + 1
	`, planID)
	return err
}

func (s *PlanStatsStore) IncrementInvestors(ctx context.Context, tx Execer, planID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO plan_stats (plan_id, total_views, total_investors)
		VALUES ($1, 0, 1)
		ON CONFLICT (plan_id) DO UPDATE SET total_investors = plan_stats.total_investors + 1
	`, planID)
	return err
}

func (s *PlanStatsStore) Delete(ctx context.Context, tx Execer, planID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM plan_stats WHERE plan_id = $1`, planID)
	return err
}
