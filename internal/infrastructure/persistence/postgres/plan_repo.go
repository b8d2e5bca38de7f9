package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/plan"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLAN REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PlanRepository implements plan.Repository for PostgreSQL.
type PlanRepository struct {
	conn *Connection
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(conn *Connection) *PlanRepository {
	return &PlanRepository{conn: conn}
}

const planColumns = `id, user_id, title, description, subject, priority, status,
		   due_date, estimated_hours, actual_hours, completed_at, created_at, updated_at`

// Create inserts a new study plan.
func (r *PlanRepository) Create(ctx context.Context, p *plan.StudyPlan) error {
	query := `
		INSERT INTO study_plans (
			id, user_id, title, description, subject, priority, status,
			due_date, estimated_hours, actual_hours, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.Title,
		p.Description,
		p.Subject,
		string(p.Priority),
		string(p.Status),
		p.DueDate,
		p.EstimatedHours,
		p.ActualHours,
		p.CompletedAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrPlanAlreadyExists
		}
		return fmt.Errorf("failed to create study plan: %w", err)
	}

	return nil
}

// GetByID returns a plan by its ID.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*plan.StudyPlan, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM study_plans
		WHERE id = $1
	`, planColumns)

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanPlan(row)
}

// ListByUser returns all plans of a user, newest first.
func (r *PlanRepository) ListByUser(ctx context.Context, userID string) ([]*plan.StudyPlan, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM study_plans
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, planColumns)

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list study plans: %w", err)
	}
	defer rows.Close()

	return r.scanPlans(rows)
}

// UpdateStatus persists a status change together with completed_at and
// returns the updated plan.
func (r *PlanRepository) UpdateStatus(ctx context.Context, id string, status plan.Status, completedAt *time.Time) (*plan.StudyPlan, error) {
	query := fmt.Sprintf(`
		UPDATE study_plans
		SET status = $1, completed_at = $2, updated_at = $3
		WHERE id = $4
		RETURNING %s
	`, planColumns)

	row := r.conn.QueryRow(ctx, query,
		string(status),
		completedAt,
		time.Now().UTC(),
		id,
	)
	return r.scanPlan(row)
}

// CountByStatus returns the number of plans per status for a user.
func (r *PlanRepository) CountByStatus(ctx context.Context, userID string) (map[plan.Status]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM study_plans
		WHERE user_id = $1
		GROUP BY status
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count study plans: %w", err)
	}
	defer rows.Close()

	counts := make(map[plan.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan plan count: %w", err)
		}
		counts[plan.Status(status)] = count
	}

	return counts, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

// scanPlan scans a single plan from a row.
func (r *PlanRepository) scanPlan(row pgx.Row) (*plan.StudyPlan, error) {
	var p plan.StudyPlan
	var priority, status string

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Description,
		&p.Subject,
		&priority,
		&status,
		&p.DueDate,
		&p.EstimatedHours,
		&p.ActualHours,
		&p.CompletedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan study plan: %w", err)
	}

	p.Priority = plan.Priority(priority)
	p.Status = plan.Status(status)

	return &p, nil
}

// scanPlans scans multiple plans from rows.
func (r *PlanRepository) scanPlans(rows pgx.Rows) ([]*plan.StudyPlan, error) {
	var plans []*plan.StudyPlan

	for rows.Next() {
		var p plan.StudyPlan
		var priority, status string

		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Title,
			&p.Description,
			&p.Subject,
			&priority,
			&status,
			&p.DueDate,
			&p.EstimatedHours,
			&p.ActualHours,
			&p.CompletedAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study plan: %w", err)
		}

		p.Priority = plan.Priority(priority)
		p.Status = plan.Status(status)

		plans = append(plans, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return plans, nil
}
