package domain

import (
	"time"

	"github.com/google/uuid"
)

// Score is the learner's self-assessed recall confidence on a 1..5 scale.
// Scores >= ScoreRecalled count as a successful recall.
type Score int

const (
	ScoreMin      Score = 1
	ScoreMax      Score = 5
	ScoreRecalled Score = 4
)

// IsValid reports whether the score is inside the accepted 1..5 range.
func (s Score) IsValid() bool { return s >= ScoreMin && s <= ScoreMax }

// Recalled reports whether the score counts as a successful recall.
func (s Score) Recalled() bool { return s >= ScoreRecalled }

// MemoryRecord is the per-learner, per-question scheduling state
// (Leitner box plus SM-2-style ease/interval fields).
//
// Invariant: NextReviewAt == LastReviewedAt + IntervalDays days.
type MemoryRecord struct {
	ID              uuid.UUID
	LearnerID       uuid.UUID
	QuestionID      uuid.UUID
	BoxNumber       int     // >= 1, capped by config
	EaseFactor      float64 // floored by config
	IntervalDays    int
	LastReviewedAt  time.Time
	NextReviewAt    time.Time
	RepetitionCount int
	CorrectCount    int
	IncorrectCount  int
	Streak          int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsDue reports whether the record is due for review at the given time.
func (r *MemoryRecord) IsDue(now time.Time) bool {
	return !r.NextReviewAt.After(now)
}

// ReviewLog records a single answered question.
type ReviewLog struct {
	ID         uuid.UUID
	LearnerID  uuid.UUID
	QuestionID uuid.UUID
	Score      Score
	PrevBox    int // 0 for a first exposure
	NewBox     int
	ReviewedAt time.Time
}

// DayReviewCount holds the review count for a specific date.
type DayReviewCount struct {
	Date  time.Time
	Count int
}

// Dashboard holds aggregated study statistics for a learner.
type Dashboard struct {
	DueCount      int
	NewCount      int
	ReviewedToday int
	Streak        int
	BoxCounts     [MaxBoxNumber]int
}

// MaxBoxNumber is the highest Leitner box; records never graduate past it.
const MaxBoxNumber = 5
