package planner

import (
	"context"

	"ai-eventplanner-be/internal/entity"

	"github.com/google/uuid"
)

// SessionStore is the only rendezvous point between the orchestrator (writer)
// and stream publishers (readers). Get must observe a preceding update from
// the same process (read-your-writes); anything beyond that is handled by
// polling on the reader side.
//
// Satisfied by the GORM-backed repository and by the in-memory store.
type SessionStore interface {
	Create(ctx context.Context, session *entity.ProcessingSession) error

	// Get returns (nil, nil) when the id resolves to no session.
	Get(ctx context.Context, id uuid.UUID) (*entity.ProcessingSession, error)

	// SetStatus and UpdateOutput are no-ops once the session is terminal.
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateOutput(ctx context.Context, id uuid.UUID, output *entity.ProcessedOutput) error

	// Finalize persists the single terminal outcome; at most one wins.
	Finalize(ctx context.Context, session *entity.ProcessingSession) error
}
