package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create profiles table
-- Version: 001

CREATE TABLE IF NOT EXISTS profiles (
    user_id UUID PRIMARY KEY,
    username VARCHAR(50) NOT NULL DEFAULT '',
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    total_xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Progression invariants
    CONSTRAINT valid_total_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_level CHECK (level >= 1),
    CONSTRAINT valid_streak CHECK (current_streak >= 0),
    CONSTRAINT valid_longest_streak CHECK (longest_streak >= current_streak)
);

-- Leaderboard ordering: total_xp desc, created_at asc breaks ties
CREATE INDEX IF NOT EXISTS idx_profiles_leaderboard ON profiles(total_xp DESC, created_at ASC);
CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_username ON profiles(username) WHERE username != '';
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE STUDY PLANS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create study_plans table
-- Version: 002

CREATE TABLE IF NOT EXISTS study_plans (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    subject VARCHAR(100) NOT NULL DEFAULT '',
    priority VARCHAR(10) NOT NULL DEFAULT 'medium',
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    due_date TIMESTAMP WITH TIME ZONE,
    estimated_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
    actual_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
    completed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_priority CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
    CONSTRAINT valid_status CHECK (status IN ('pending', 'in_progress', 'paused', 'completed')),
    CONSTRAINT valid_hours CHECK (estimated_hours >= 0 AND actual_hours >= 0),

    -- completed_at is set exactly when the plan is completed
    CONSTRAINT completed_at_matches_status CHECK (
        (status = 'completed' AND completed_at IS NOT NULL) OR
        (status != 'completed' AND completed_at IS NULL)
    )
);

CREATE INDEX IF NOT EXISTS idx_study_plans_user ON study_plans(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_study_plans_user_status ON study_plans(user_id, status);
CREATE INDEX IF NOT EXISTS idx_study_plans_due_date ON study_plans(due_date) WHERE due_date IS NOT NULL;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE STUDY SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create study_sessions table (append-only audit log)
-- Version: 003

CREATE TABLE IF NOT EXISTS study_sessions (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    duration_minutes INTEGER NOT NULL DEFAULT 30,
    xp_earned INTEGER NOT NULL DEFAULT 0,
    session_type VARCHAR(20) NOT NULL DEFAULT 'study',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_duration CHECK (duration_minutes > 0),
    CONSTRAINT valid_xp_earned CHECK (xp_earned >= 0)
);

CREATE INDEX IF NOT EXISTS idx_study_sessions_user ON study_sessions(user_id, created_at DESC);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create users table for authentication
-- Version: 004

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(100) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
`
