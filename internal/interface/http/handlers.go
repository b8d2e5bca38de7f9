package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/studyplan-hub/studyplan-hub/config"
	"github.com/studyplan-hub/studyplan-hub/internal/application/command"
	"github.com/studyplan-hub/studyplan-hub/internal/application/query"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/coach"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/leaderboard"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/plan"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/session"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
	"github.com/studyplan-hub/studyplan-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "StudyPlan Hub API",
		"version":     "v1",
		"description": "REST API for StudyPlan Hub - study plans, XP, and leaderboards",
		"endpoints": map[string]string{
			"health":      "/health",
			"auth":        "/api/v1/auth/register",
			"plans":       "/api/v1/plans",
			"dashboard":   "/api/v1/dashboard",
			"leaderboard": "/api/v1/leaderboard",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		report := s.deps.HealthChecker.Check(r.Context())
		if !report.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, report)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		report := s.deps.HealthChecker.Check(r.Context())
		if !report.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": report.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister handles POST /api/v1/auth/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	u, err := s.deps.Identity.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"user_id": u.ID,
		"email":   u.Email,
	})
}

// handleLogin handles POST /api/v1/auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	token, userID, err := s.deps.Identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":   token,
		"user_id": userID,
	})
}

// handleLogout handles POST /api/v1/auth/logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
		return
	}

	if err := s.deps.Identity.Logout(r.Context(), token); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PLAN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createPlanRequest struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Subject        string     `json:"subject"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"due_date"`
	EstimatedHours float64    `json:"estimated_hours"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

// handleCreatePlan handles POST /api/v1/plans.
func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CreatePlanHandler.Handle(r.Context(), command.CreatePlanCommand{
		UserID:         authedUserID(r.Context()),
		Title:          req.Title,
		Description:    req.Description,
		Subject:        req.Subject,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPlanDTO(result.Plan))
}

// handleListPlans handles GET /api/v1/plans.
func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ListPlansHandler.Handle(r.Context(), query.ListPlansQuery{
		UserID: authedUserID(r.Context()),
		Status: plan.Status(getQueryParam(r, "status", "")),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dtos := make([]planDTO, len(result.Plans))
	for i, p := range result.Plans {
		dtos[i] = toPlanDTO(p)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plans": dtos,
		"count": len(dtos),
	})
}

// handleTransitionPlan handles POST /api/v1/plans/{id}/transition.
func (s *Server) handleTransitionPlan(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.TransitionPlanHandler.Handle(r.Context(), command.TransitionPlanCommand{
		PlanID:        r.PathValue("id"),
		UserID:        authedUserID(r.Context()),
		Target:        plan.Status(req.Status),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plan":      toPlanDTO(result.Plan),
		"changed":   result.Changed,
		"completed": result.Completed != nil,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD, PROFILE, LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetDashboard handles GET /api/v1/dashboard.
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	userID := authedUserID(r.Context())

	result, err := s.deps.GetDashboardHandler.Handle(r.Context(), query.GetDashboardQuery{
		UserID:       userID,
		IncludePlans: getQueryParamBool(r, "include_plans"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	counts := make(map[string]int, len(result.PlanCounts))
	for status, n := range result.PlanCounts {
		counts[string(status)] = n
	}

	dto := map[string]interface{}{
		"profile":        toProfileDTO(result.Profile, result.LevelProgress),
		"plan_counts":    counts,
		"total_plans":    result.TotalPlans,
		"sessions_today": result.SessionsToday,
		"overdue_plans":  result.OverduePlans,
	}

	if s.flagEnabled(config.FeatureDashboardWeeklySummary, userID) {
		dto["sessions_this_week"] = result.SessionsThisWeek
	}

	if result.Plans != nil {
		dtos := make([]planDTO, len(result.Plans))
		for i, p := range result.Plans {
			dtos[i] = toPlanDTO(p)
		}
		dto["plans"] = dtos
	}

	writeJSON(w, http.StatusOK, dto)
}

// handleGetProfile handles GET /api/v1/profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetProfileHandler.Handle(r.Context(), query.GetProfileQuery{
		UserID:       authedUserID(r.Context()),
		SessionLimit: getQueryParamInt(r, "sessions", 0),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sessions := make([]sessionDTO, len(result.RecentSessions))
	for i, sess := range result.RecentSessions {
		sessions[i] = toSessionDTO(sess)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile":         toProfileDTO(result.Profile, result.LevelProgress),
		"recent_sessions": sessions,
	})
}

// handleUpdateProfile handles PUT /api/v1/profile.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.UpdateProfileHandler.Handle(r.Context(), command.UpdateProfileCommand{
		UserID:      authedUserID(r.Context()),
		Username:    req.Username,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileDTO(result.Profile, profile.ProgressWithinLevel(result.Profile.TotalXP)))
}

// handleGetLeaderboard handles GET /api/v1/leaderboard.
//
// The endpoint is public; when a valid bearer token is supplied the
// response also carries the caller's own rank.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	var userID string
	if token := bearerToken(r); token != "" {
		if id, err := s.deps.Identity.Authenticate(r.Context(), token); err == nil {
			userID = id
		}
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), query.GetLeaderboardQuery{
		Limit:  getQueryParamInt(r, "limit", 0),
		UserID: userID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	podium := s.flagEnabled(config.FeatureLeaderboardPodium, userID)

	entries := make([]leaderboardEntryDTO, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = toLeaderboardEntryDTO(e, podium)
	}

	dto := map[string]interface{}{
		"entries":    entries,
		"count":      len(entries),
		"from_cache": result.FromCache,
	}
	if result.UserRank > 0 {
		dto["user_rank"] = result.UserRank
	}

	writeJSON(w, http.StatusOK, dto)
}

// ══════════════════════════════════════════════════════════════════════════════
// COACH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCoachSuggestions handles GET /api/v1/coach/suggestions.
func (s *Server) handleCoachSuggestions(w http.ResponseWriter, r *http.Request) {
	userID := authedUserID(r.Context())
	if !s.flagEnabled(config.FeatureCoach, userID) ||
		!s.flagEnabled(config.FeatureCoachSuggestions, userID) {
		writeJSONError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": coach.Suggestions(),
	})
}

// handleCoachAdvise handles POST /api/v1/coach/advise.
func (s *Server) handleCoachAdvise(w http.ResponseWriter, r *http.Request) {
	userID := authedUserID(r.Context())
	if !s.flagEnabled(config.FeatureCoach, userID) {
		writeJSONError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	response := coach.Advise(req.Message)

	dto := map[string]interface{}{
		"intent":  string(response.Intent),
		"type":    string(response.Type),
		"content": response.Content,
	}
	if s.flagEnabled(config.FeatureCoachSuggestions, userID) {
		dto["suggestions"] = coach.Suggestions()
	}

	writeJSON(w, http.StatusOK, dto)
}

// ══════════════════════════════════════════════════════════════════════════════
// DTOs AND ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

type planDTO struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Subject        string     `json:"subject,omitempty"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	EstimatedHours float64    `json:"estimated_hours"`
	ActualHours    float64    `json:"actual_hours"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toPlanDTO(p *plan.StudyPlan) planDTO {
	return planDTO{
		ID:             p.ID,
		Title:          p.Title,
		Description:    p.Description,
		Subject:        p.Subject,
		Priority:       string(p.Priority),
		Status:         string(p.Status),
		DueDate:        p.DueDate,
		EstimatedHours: p.EstimatedHours,
		ActualHours:    p.ActualHours,
		CompletedAt:    p.CompletedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type profileDTO struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	TotalXP       int    `json:"total_xp"`
	Level         int    `json:"level"`
	LevelProgress int    `json:"level_progress"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

func toProfileDTO(p *profile.Profile, levelProgress int) profileDTO {
	return profileDTO{
		UserID:        p.UserID,
		Username:      p.Username,
		DisplayName:   p.DisplayName,
		TotalXP:       int(p.TotalXP),
		Level:         int(p.Level),
		LevelProgress: levelProgress,
		CurrentStreak: p.CurrentStreak,
		LongestStreak: p.LongestStreak,
	}
}

type sessionDTO struct {
	ID              string    `json:"id"`
	DurationMinutes int       `json:"duration_minutes"`
	XPEarned        int       `json:"xp_earned"`
	SessionType     string    `json:"session_type"`
	CreatedAt       time.Time `json:"created_at"`
}

func toSessionDTO(s *session.StudySession) sessionDTO {
	return sessionDTO{
		ID:              s.ID,
		DurationMinutes: s.DurationMinutes,
		XPEarned:        s.XPEarned,
		SessionType:     s.SessionType,
		CreatedAt:       s.CreatedAt,
	}
}

type leaderboardEntryDTO struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	TotalXP     int    `json:"total_xp"`
	Level       int    `json:"level"`
	Podium      bool   `json:"podium,omitempty"`
}

func toLeaderboardEntryDTO(e leaderboard.Entry, podium bool) leaderboardEntryDTO {
	return leaderboardEntryDTO{
		Rank:        e.Rank,
		UserID:      e.Profile.UserID,
		Username:    e.Profile.Username,
		DisplayName: e.Profile.DisplayName,
		TotalXP:     int(e.Profile.TotalXP),
		Level:       int(e.Profile.Level),
		Podium:      podium && e.IsPodium(),
	}
}

// decodeBody parses the JSON request body into dest, writing a 400 on
// failure. Returns false when the request has already been answered.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return false
	}
	return true
}

// flagEnabled evaluates a feature flag for a user. Missing flags default
// to enabled so a wiring gap never hides a shipped surface.
func (s *Server) flagEnabled(name, userID string) bool {
	if s.deps.Flags == nil {
		return true
	}
	return s.deps.Flags.IsEnabled(name, &config.FeatureContext{UserID: userID})
}

// writeError maps a domain error to an HTTP response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, shared.ErrStateTransition):
		writeJSONError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, shared.ErrOptimisticLock):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("request failed",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}
