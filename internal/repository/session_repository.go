package repository

import (
	"context"
	"errors"

	"ai-fitness-be/internal/dto"
	"ai-fitness-be/pkg/workout"
)

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrSummaryNotFound = errors.New("workout summary not found")
)

// SessionRegistry owns the live workout sessions, one per websocket
// connection. Create and Remove are mutually exclusive; operations on a
// returned session only take that session's own lock.
type SessionRegistry interface {
	Create(connID string) (*workout.Session, error)
	Get(connID string) (*workout.Session, bool)
	Remove(connID string) (*workout.Session, bool)
	Count() int
}

// SummaryRepository persists end-of-session summaries.
type SummaryRepository interface {
	Save(ctx context.Context, summary dto.WorkoutSummary) error
	Get(ctx context.Context, sessionID string) (*dto.WorkoutSummary, error)
}
