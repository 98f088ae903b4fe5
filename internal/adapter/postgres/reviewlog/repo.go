// Package reviewlog implements the review log repository using PostgreSQL.
// The log is append-only; aggregates for the dashboard are computed with
// raw SQL.
package reviewlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	postgres "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

// Repo provides review log persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new review log repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const createSQL = `
INSERT INTO review_logs (id, learner_id, question_id, score, prev_box, new_box, reviewed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Create appends one review log entry.
func (r *Repo) Create(ctx context.Context, log *domain.ReviewLog) (*domain.ReviewLog, error) {
	id := log.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)
	_, err := querier.Exec(ctx, createSQL,
		id, log.LearnerID, log.QuestionID, int(log.Score), log.PrevBox, log.NewBox, log.ReviewedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "review log", id)
	}

	created := *log
	created.ID = id
	return &created, nil
}

const countSinceSQL = `
SELECT count(*) FROM review_logs
WHERE learner_id = $1 AND reviewed_at >= $2`

// CountSince counts the learner's reviews at or after the given time.
func (r *Repo) CountSince(ctx context.Context, learnerID uuid.UUID, since time.Time) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)
	var n int
	if err := querier.QueryRow(ctx, countSinceSQL, learnerID, since).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "review log count", learnerID)
	}
	return n, nil
}

const getStreakDaysSQL = `
SELECT
    date_trunc('day', reviewed_at)::date AS review_date,
    count(*) AS review_count
FROM review_logs
WHERE learner_id = $1 AND reviewed_at >= $2 - make_interval(days => $3)
GROUP BY review_date
ORDER BY review_date DESC`

// GetStreakDays returns per-day review counts for the last N days before
// dayStart (inclusive), newest first. Days without reviews are absent.
func (r *Repo) GetStreakDays(ctx context.Context, learnerID uuid.UUID, dayStart time.Time, lastNDays int) ([]domain.DayReviewCount, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)
	rows, err := querier.Query(ctx, getStreakDaysSQL, learnerID, dayStart, lastNDays)
	if err != nil {
		return nil, fmt.Errorf("query streak days: %w", err)
	}
	defer rows.Close()

	var out []domain.DayReviewCount
	for rows.Next() {
		var d domain.DayReviewCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("scan streak day: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate streak days: %w", err)
	}
	return out, nil
}

const getByQuestionSQL = `
SELECT id, learner_id, question_id, score, prev_box, new_box, reviewed_at
FROM review_logs
WHERE learner_id = $1 AND question_id = $2
ORDER BY reviewed_at DESC
LIMIT $3`

// GetByQuestion returns the learner's review history for one question,
// newest first.
func (r *Repo) GetByQuestion(ctx context.Context, learnerID, questionID uuid.UUID, limit int) ([]*domain.ReviewLog, error) {
	if limit <= 0 {
		limit = 50
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)
	rows, err := querier.Query(ctx, getByQuestionSQL, learnerID, questionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query review logs: %w", err)
	}
	defer rows.Close()

	var out []*domain.ReviewLog
	for rows.Next() {
		var log domain.ReviewLog
		var score int
		if err := rows.Scan(&log.ID, &log.LearnerID, &log.QuestionID, &score, &log.PrevBox, &log.NewBox, &log.ReviewedAt); err != nil {
			return nil, fmt.Errorf("scan review log: %w", err)
		}
		log.Score = domain.Score(score)
		out = append(out, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review logs: %w", err)
	}
	return out, nil
}
