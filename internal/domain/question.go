package domain

import (
	"time"

	"github.com/google/uuid"
)

// Answer is one answer option of a question.
type Answer struct {
	Text    string
	Correct bool
}

// Question is an immutable content unit from the training catalog.
// The scheduler never mutates questions; content authors own them.
type Question struct {
	ID          uuid.UUID
	Category    Category
	SubCategory string
	Type        QuestionType
	Difficulty  int // 1..5
	Text        string
	ImageRef    *string
	Answers     []Answer
	Regulation  *Regulation
	Hint        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CorrectAnswers returns the subset of answers flagged correct.
func (q *Question) CorrectAnswers() []Answer {
	var out []Answer
	for _, a := range q.Answers {
		if a.Correct {
			out = append(out, a)
		}
	}
	return out
}

// MatchesRegulation reports whether the question passes the given filter.
// Untagged questions are treated as BOTH.
func (q *Question) MatchesRegulation(f RegulationFilter) bool {
	if q.Regulation == nil {
		return true
	}
	return f.Matches(*q.Regulation)
}

// QuestionWithRecord pairs a catalog question with the learner's memory
// record, or nil when the learner has never answered it.
type QuestionWithRecord struct {
	Question *Question
	Record   *MemoryRecord
}

// IsNew reports whether the learner has no memory record for the question.
func (qr *QuestionWithRecord) IsNew() bool { return qr.Record == nil }
