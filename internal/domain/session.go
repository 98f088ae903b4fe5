package domain

import (
	"time"

	"github.com/google/uuid"
)

// PendingUpdate is a memory-record update queued during a guest session.
// Queued updates are flushed atomically on completion or login; abandoning
// the session discards them.
type PendingUpdate struct {
	QuestionID uuid.UUID
	Score      Score
	AnsweredAt time.Time
}

// SessionSummary is the externally observable result of a session.
type SessionSummary struct {
	CorrectCount   int
	TotalQuestions int
	Completed      bool
}

// StudySession is the persisted record of a learning session.
type StudySession struct {
	ID         uuid.UUID
	LearnerID  uuid.UUID
	Status     SessionStatus
	Criteria   Criteria
	StartedAt  time.Time
	FinishedAt *time.Time
	Result     *SessionResult
	CreatedAt  time.Time
}

// SessionResult holds aggregated results of a finished session.
type SessionResult struct {
	TotalAnswered int
	CorrectCount  int
	NewAnswered   int
	DueAnswered   int
	AccuracyRate  float64
}
