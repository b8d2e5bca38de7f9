package profile

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the storage contract for progression profiles.
//
// The write path is deliberately narrow: progression state changes only go
// through ApplyAward, which carries an optimistic-concurrency precondition.
// Two racing completions for the same user therefore cannot silently lose
// an update - the later one fails with shared.ErrOptimisticLock and retries
// against the fresh state.
type Repository interface {
	// GetByUser returns the profile for a user.
	// Returns shared.ErrProfileNotFound when no profile exists yet;
	// callers treat that as the zero progression state.
	GetByUser(ctx context.Context, userID string) (*Profile, error)

	// Create inserts a new profile.
	// Returns shared.ErrProfileExists if one already exists for the user.
	Create(ctx context.Context, p *Profile) error

	// ApplyAward persists the post-award progression fields, conditioned on
	// the profile's total_xp still being expectedXP (the value the caller
	// read before computing). When the condition fails - another completion
	// landed in between - it returns shared.ErrOptimisticLock and writes
	// nothing. When no profile row exists and expectedXP is 0, the profile
	// is created with the awarded state (lazy creation).
	//
	// Implementations persist the profile update and the associated study
	// session record atomically (all-or-nothing).
	ApplyAward(ctx context.Context, p *Profile, expectedXP XP, session SessionRecord) error

	// UpdateIdentity persists username/display name changes only.
	UpdateIdentity(ctx context.Context, p *Profile) error

	// ListByXP returns profiles ordered by total_xp descending, limited to
	// limit entries. Ties are broken by created_at ascending, then user ID.
	ListByXP(ctx context.Context, limit int) ([]*Profile, error)
}

// SessionRecord is the audit entry appended alongside an award. Defined
// here (not in the session package) so ApplyAward can take it without an
// import cycle; the session package owns the full entity.
type SessionRecord struct {
	ID              string
	UserID          string
	DurationMinutes int
	XPEarned        int
	SessionType     string
}
