package command

import (
	"context"
	"fmt"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROFILE COMMAND
// Edits the identity fields of a profile (username, display name).
// Progression fields never move through this path.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfileCommand contains the identity fields to change.
type UpdateProfileCommand struct {
	// UserID identifies the profile.
	UserID string

	// Username is the new username.
	Username string

	// DisplayName is the new display name.
	DisplayName string
}

// Validate validates the command.
func (c UpdateProfileCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("update_profile: user_id is required: %w", shared.ErrInvalidInput)
	}
	if c.Username == "" && c.DisplayName == "" {
		return fmt.Errorf("update_profile: nothing to update: %w", shared.ErrInvalidInput)
	}
	return nil
}

// UpdateProfileResult contains the updated profile.
type UpdateProfileResult struct {
	Profile *profile.Profile
}

// UpdateProfileHandler handles the UpdateProfileCommand.
type UpdateProfileHandler struct {
	profileRepo profile.Repository
}

// NewUpdateProfileHandler creates a new UpdateProfileHandler.
func NewUpdateProfileHandler(profileRepo profile.Repository) *UpdateProfileHandler {
	return &UpdateProfileHandler{profileRepo: profileRepo}
}

// Handle executes the update profile command.
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (*UpdateProfileResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_profile: validation failed: %w", err)
	}

	prof, err := h.profileRepo.GetByUser(ctx, cmd.UserID)
	if err != nil {
		if shared.IsNotFound(err) {
			// A user can edit identity before any plan completes.
			prof = profile.Zero(cmd.UserID)
			if err := h.profileRepo.Create(ctx, prof); err != nil {
				return nil, fmt.Errorf("update_profile: failed to create profile: %w", err)
			}
		} else {
			return nil, fmt.Errorf("update_profile: failed to get profile: %w", err)
		}
	}

	username := cmd.Username
	if username == "" {
		username = prof.Username
	}
	displayName := cmd.DisplayName
	if displayName == "" {
		displayName = prof.DisplayName
	}

	if err := prof.Rename(username, displayName); err != nil {
		return nil, err
	}

	if err := h.profileRepo.UpdateIdentity(ctx, prof); err != nil {
		return nil, fmt.Errorf("update_profile: failed to save profile: %w", err)
	}

	return &UpdateProfileResult{Profile: prof}, nil
}
