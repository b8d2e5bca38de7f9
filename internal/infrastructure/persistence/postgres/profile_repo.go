package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements profile.Repository for PostgreSQL.
//
// ApplyAward uses a compare-and-set on total_xp inside a single transaction
// so two racing completions cannot both commit against the same prior state.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

const profileColumns = `user_id, username, display_name, total_xp, level,
		   current_streak, longest_streak, created_at, updated_at`

// GetByUser returns the profile for a user.
func (r *ProfileRepository) GetByUser(ctx context.Context, userID string) (*profile.Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM profiles
		WHERE user_id = $1
	`, profileColumns)

	row := r.conn.QueryRow(ctx, query, userID)
	return r.scanProfile(row)
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	query := `
		INSERT INTO profiles (
			user_id, username, display_name, total_xp, level,
			current_streak, longest_streak, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		p.UserID,
		p.Username,
		p.DisplayName,
		int(p.TotalXP),
		int(p.Level),
		p.CurrentStreak,
		p.LongestStreak,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrProfileExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// ApplyAward persists the post-award progression fields and appends the
// session record in one transaction. The update is conditioned on total_xp
// still being expectedXP; a zero-row update means either a concurrent award
// landed (shared.ErrProfileConflict) or no row exists yet, in which case the
// profile is inserted when expectedXP is 0.
func (r *ProfileRepository) ApplyAward(ctx context.Context, p *profile.Profile, expectedXP profile.XP, sess profile.SessionRecord) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		updateQuery := `
			UPDATE profiles
			SET total_xp = $1, level = $2, current_streak = $3,
				longest_streak = $4, updated_at = $5
			WHERE user_id = $6 AND total_xp = $7
		`

		result, err := tx.Exec(ctx, updateQuery,
			int(p.TotalXP),
			int(p.Level),
			p.CurrentStreak,
			p.LongestStreak,
			time.Now().UTC(),
			p.UserID,
			int(expectedXP),
		)
		if err != nil {
			return fmt.Errorf("failed to apply award: %w", err)
		}

		if result.RowsAffected() == 0 {
			var exists bool
			err := tx.QueryRow(ctx,
				"SELECT EXISTS(SELECT 1 FROM profiles WHERE user_id = $1)",
				p.UserID,
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check profile existence: %w", err)
			}

			if exists || expectedXP != 0 {
				return shared.ErrProfileConflict
			}

			// First award for this user: create the row with the awarded
			// state. A racing first award hits the primary key instead.
			insertQuery := `
				INSERT INTO profiles (
					user_id, username, display_name, total_xp, level,
					current_streak, longest_streak, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`
			_, err = tx.Exec(ctx, insertQuery,
				p.UserID,
				p.Username,
				p.DisplayName,
				int(p.TotalXP),
				int(p.Level),
				p.CurrentStreak,
				p.LongestStreak,
				p.CreatedAt,
				p.UpdatedAt,
			)
			if err != nil {
				if IsUniqueViolation(err) {
					return shared.ErrProfileConflict
				}
				return fmt.Errorf("failed to create profile on first award: %w", err)
			}
		}

		sessionQuery := `
			INSERT INTO study_sessions (id, user_id, duration_minutes, xp_earned, session_type, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.Exec(ctx, sessionQuery,
			sess.ID,
			sess.UserID,
			sess.DurationMinutes,
			sess.XPEarned,
			sess.SessionType,
			time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to record study session: %w", err)
		}

		return nil
	})
}

// UpdateIdentity persists username and display name changes only.
func (r *ProfileRepository) UpdateIdentity(ctx context.Context, p *profile.Profile) error {
	query := `
		UPDATE profiles
		SET username = $1, display_name = $2, updated_at = $3
		WHERE user_id = $4
	`

	result, err := r.conn.Exec(ctx, query,
		p.Username,
		p.DisplayName,
		time.Now().UTC(),
		p.UserID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrInvalidUsername
		}
		return fmt.Errorf("failed to update profile identity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}

	return nil
}

// ListByXP returns profiles ordered by total_xp descending.
func (r *ProfileRepository) ListByXP(ctx context.Context, limit int) ([]*profile.Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM profiles
		ORDER BY total_xp DESC, created_at ASC, user_id ASC
		LIMIT $1
	`, profileColumns)

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles by xp: %w", err)
	}
	defer rows.Close()

	return r.scanProfiles(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

// scanProfile scans a single profile from a row.
func (r *ProfileRepository) scanProfile(row pgx.Row) (*profile.Profile, error) {
	var p profile.Profile
	var totalXP, level int

	err := row.Scan(
		&p.UserID,
		&p.Username,
		&p.DisplayName,
		&totalXP,
		&level,
		&p.CurrentStreak,
		&p.LongestStreak,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	p.TotalXP = profile.XP(totalXP)
	p.Level = profile.Level(level)

	return &p, nil
}

// scanProfiles scans multiple profiles from rows.
func (r *ProfileRepository) scanProfiles(rows pgx.Rows) ([]*profile.Profile, error) {
	var profiles []*profile.Profile

	for rows.Next() {
		var p profile.Profile
		var totalXP, level int

		err := rows.Scan(
			&p.UserID,
			&p.Username,
			&p.DisplayName,
			&totalXP,
			&level,
			&p.CurrentStreak,
			&p.LongestStreak,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}

		p.TotalXP = profile.XP(totalXP)
		p.Level = profile.Level(level)

		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return profiles, nil
}
