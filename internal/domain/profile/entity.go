// Package profile contains the user progression aggregate: total XP, the
// level derived from it, and the completion streak. Profile is the only
// entity in the system touched by every completion, so all progression
// rules are concentrated here.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// XP represents accumulated experience points. Monotonically non-decreasing:
// nothing in this package ever subtracts XP.
type XP int

// IsValid reports whether the XP value is non-negative.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add returns the XP increased by delta.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// Level represents a user level derived from XP.
type Level int

// XPPerLevel is the amount of XP that advances one level.
const XPPerLevel = 100

// CalculateLevel derives the level from total XP: one level per 100 XP,
// starting at level 1.
func CalculateLevel(xp XP) Level {
	if xp < 0 {
		return 1
	}
	return Level(int(xp)/XPPerLevel + 1)
}

// ProgressWithinLevel returns how far into the current level the XP is (0-99).
func ProgressWithinLevel(xp XP) int {
	if xp < 0 {
		return 0
	}
	return int(xp) % XPPerLevel
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile is the single mutable aggregate of a user's progression.
// One profile per user; created lazily on first access.
type Profile struct {
	// UserID identifies the owning user (1:1 with the identity provider).
	UserID string

	// Username is the unique handle. May be empty until the user sets it.
	Username string

	// DisplayName is the full name shown in the UI.
	DisplayName string

	// TotalXP is the accumulated experience. Never decreases.
	TotalXP XP

	// Level is derived: TotalXP/100 + 1. Stored for leaderboard reads but
	// always recomputed on write.
	Level Level

	// CurrentStreak counts consecutive completions.
	CurrentStreak int

	// LongestStreak is the best streak ever reached. Always >= CurrentStreak.
	LongestStreak int

	// CreatedAt is when the profile record was created.
	CreatedAt time.Time

	// UpdatedAt is when the profile record was last modified.
	UpdatedAt time.Time
}

// NewProfile creates an empty progression profile for a user.
func NewProfile(userID, username, displayName string) (*Profile, error) {
	if userID == "" {
		return nil, shared.ErrInvalidID
	}

	now := time.Now().UTC()
	return &Profile{
		UserID:        userID,
		Username:      strings.TrimSpace(username),
		DisplayName:   strings.TrimSpace(displayName),
		TotalXP:       0,
		Level:         1,
		CurrentStreak: 0,
		LongestStreak: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Zero returns the progression state an absent profile reads as:
// no XP, level 1, no streak. Used for lazy creation on first award.
func Zero(userID string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		UserID:    userID,
		TotalXP:   0,
		Level:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION RULES
// ══════════════════════════════════════════════════════════════════════════════

// Award is the progression delta produced by one plan completion.
type Award struct {
	// Amount is the XP granted. A single positive integer per completion.
	Amount XP

	// OldTotal and NewTotal bracket the XP change.
	OldTotal XP
	NewTotal XP

	// OldLevel and NewLevel bracket the level change.
	OldLevel Level
	NewLevel Level

	// Streak is the streak after the award.
	Streak int

	// LongestStreak is the best streak after the award.
	LongestStreak int
}

// LeveledUp reports whether the award crossed a level boundary.
func (a Award) LeveledUp() bool {
	return a.NewLevel > a.OldLevel
}

// ApplyCompletion applies one completion award to the profile:
//
//	total_xp  += amount
//	level      = total_xp/100 + 1
//	streak    += 1 (unconditional; no time decay in this engine)
//	longest    = max(streak, longest)
//
// The amount must be positive; XP is never revoked through this path.
func (p *Profile) ApplyCompletion(amount XP) (Award, error) {
	if amount <= 0 {
		return Award{}, shared.ErrInvalidXPAmount
	}

	award := Award{
		Amount:   amount,
		OldTotal: p.TotalXP,
		OldLevel: CalculateLevel(p.TotalXP),
	}

	p.TotalXP = p.TotalXP.Add(amount)
	p.Level = CalculateLevel(p.TotalXP)
	p.CurrentStreak++
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.UpdatedAt = time.Now().UTC()

	award.NewTotal = p.TotalXP
	award.NewLevel = p.Level
	award.Streak = p.CurrentStreak
	award.LongestStreak = p.LongestStreak

	return award, nil
}

// Rename updates the identity fields without touching progression state.
func (p *Profile) Rename(username, displayName string) error {
	username = strings.TrimSpace(username)
	if len(username) > 50 {
		return shared.ErrInvalidUsername
	}

	p.Username = username
	p.DisplayName = strings.TrimSpace(displayName)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Validate checks the profile invariants:
// level derivation, streak ordering, and XP non-negativity.
func (p *Profile) Validate() error {
	if p.UserID == "" {
		return shared.ErrInvalidID
	}
	if !p.TotalXP.IsValid() {
		return shared.ErrNegativeValue
	}
	if p.Level != CalculateLevel(p.TotalXP) {
		return shared.WrapError("profile", "Validate", shared.ErrInvalidState,
			fmt.Sprintf("level %d does not match xp %d", p.Level, p.TotalXP), nil)
	}
	if p.CurrentStreak < 0 || p.LongestStreak < p.CurrentStreak {
		return shared.WrapError("profile", "Validate", shared.ErrInvalidState,
			"longest streak below current streak", nil)
	}
	return nil
}

// Clone creates a copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// String returns a short representation for logging.
func (p *Profile) String() string {
	return fmt.Sprintf("Profile{User: %s, XP: %d, Level: %d, Streak: %d/%d}",
		p.UserID, p.TotalXP, p.Level, p.CurrentStreak, p.LongestStreak)
}
