package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

// uniqueSuffix returns a short unique string for non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedQuestion inserts a catalog question and returns it.
func SeedQuestion(t *testing.T, pool *pgxpool.Pool, category domain.Category, subCategory string) domain.Question {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	q := domain.Question{
		ID:          uuid.New(),
		Category:    category,
		SubCategory: subCategory,
		Type:        domain.QuestionTypeMCSingle,
		Difficulty:  2,
		Text:        "Was bedeutet dieses Signal? " + uniqueSuffix(),
		Answers: []domain.Answer{
			{Text: "Halt", Correct: true},
			{Text: "Fahrt frei", Correct: false},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO questions (id, category, sub_category, question_type, difficulty,
			text, image_ref, answers, regulation, hint, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NULL, '[{"text":"Halt","correct":true},{"text":"Fahrt frei","correct":false}]'::jsonb, NULL, NULL, $7, $7)`,
		q.ID, q.Category.String(), q.SubCategory, q.Type.String(), q.Difficulty, q.Text, now,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedQuestion insert: %v", err)
	}

	return q
}

// SeedMemoryRecord inserts a memory record for the learner/question pair.
// nextReviewAt controls due status relative to the test's chosen "now".
func SeedMemoryRecord(t *testing.T, pool *pgxpool.Pool, learnerID, questionID uuid.UUID, box int, nextReviewAt time.Time) domain.MemoryRecord {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	rec := domain.MemoryRecord{
		ID:              uuid.New(),
		LearnerID:       learnerID,
		QuestionID:      questionID,
		BoxNumber:       box,
		EaseFactor:      2.5,
		IntervalDays:    3,
		LastReviewedAt:  nextReviewAt.Add(-72 * time.Hour),
		NextReviewAt:    nextReviewAt.Truncate(time.Microsecond),
		RepetitionCount: 1,
		CorrectCount:    1,
		Streak:          1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO memory_records (id, learner_id, question_id, box_number, ease_factor,
			interval_days, last_reviewed_at, next_review_at, repetition_count,
			correct_count, incorrect_count, streak, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		rec.ID, rec.LearnerID, rec.QuestionID, rec.BoxNumber, rec.EaseFactor,
		rec.IntervalDays, rec.LastReviewedAt, rec.NextReviewAt, rec.RepetitionCount,
		rec.CorrectCount, rec.IncorrectCount, rec.Streak, now,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedMemoryRecord insert: %v", err)
	}

	return rec
}

// SeedReviewLog inserts one review log entry.
func SeedReviewLog(t *testing.T, pool *pgxpool.Pool, learnerID, questionID uuid.UUID, score domain.Score, reviewedAt time.Time) domain.ReviewLog {
	t.Helper()
	ctx := context.Background()

	log := domain.ReviewLog{
		ID:         uuid.New(),
		LearnerID:  learnerID,
		QuestionID: questionID,
		Score:      score,
		PrevBox:    1,
		NewBox:     2,
		ReviewedAt: reviewedAt.Truncate(time.Microsecond),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO review_logs (id, learner_id, question_id, score, prev_box, new_box, reviewed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ID, log.LearnerID, log.QuestionID, int(log.Score), log.PrevBox, log.NewBox, log.ReviewedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedReviewLog insert: %v", err)
	}

	return log
}
