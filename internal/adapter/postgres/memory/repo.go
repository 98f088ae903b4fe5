// Package memory implements the memory record repository using PostgreSQL.
// One row per (learner, question) pair; Upsert keeps that invariant with
// ON CONFLICT.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	postgres "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

// Repo provides memory record persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new memory record repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const recordColumns = `id, learner_id, question_id, box_number, ease_factor,
	interval_days, last_reviewed_at, next_review_at, repetition_count,
	correct_count, incorrect_count, streak, created_at, updated_at`

const getForUpdateSQL = `
SELECT ` + recordColumns + `
FROM memory_records
WHERE learner_id = $1 AND question_id = $2
FOR UPDATE`

// GetForUpdate locks and returns the learner's record for a question.
// Inside a transaction the row lock serializes concurrent writers for
// the same (learner, question) pair until commit.
func (r *Repo) GetForUpdate(ctx context.Context, learnerID, questionID uuid.UUID) (*domain.MemoryRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)
	rec, err := scanRecord(querier.QueryRow(ctx, getForUpdateSQL, learnerID, questionID))
	if err != nil {
		return nil, postgres.MapError(err, "memory record", questionID)
	}
	return rec, nil
}

const upsertSQL = `
INSERT INTO memory_records (id, learner_id, question_id, box_number, ease_factor,
	interval_days, last_reviewed_at, next_review_at, repetition_count,
	correct_count, incorrect_count, streak, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
ON CONFLICT (learner_id, question_id) DO UPDATE SET
	box_number       = EXCLUDED.box_number,
	ease_factor      = EXCLUDED.ease_factor,
	interval_days    = EXCLUDED.interval_days,
	last_reviewed_at = EXCLUDED.last_reviewed_at,
	next_review_at   = EXCLUDED.next_review_at,
	repetition_count = EXCLUDED.repetition_count,
	correct_count    = EXCLUDED.correct_count,
	incorrect_count  = EXCLUDED.incorrect_count,
	streak           = EXCLUDED.streak,
	updated_at       = now()
RETURNING ` + recordColumns

// Upsert inserts or fully replaces the learner's record for a question.
func (r *Repo) Upsert(ctx context.Context, record *domain.MemoryRecord) (*domain.MemoryRecord, error) {
	id := record.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)
	rec, err := scanRecord(querier.QueryRow(ctx, upsertSQL,
		id, record.LearnerID, record.QuestionID, record.BoxNumber, record.EaseFactor,
		record.IntervalDays, record.LastReviewedAt, record.NextReviewAt, record.RepetitionCount,
		record.CorrectCount, record.IncorrectCount, record.Streak,
	))
	if err != nil {
		return nil, postgres.MapError(err, "memory record", record.QuestionID)
	}
	return rec, nil
}

const getByBoxSQL = `
SELECT ` + recordColumns + `
FROM memory_records
WHERE learner_id = $1 AND box_number = $2
ORDER BY next_review_at ASC`

// GetByBox returns all of the learner's records in the given box.
func (r *Repo) GetByBox(ctx context.Context, learnerID uuid.UUID, box int) ([]*domain.MemoryRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)
	rows, err := querier.Query(ctx, getByBoxSQL, learnerID, box)
	if err != nil {
		return nil, fmt.Errorf("query box records: %w", err)
	}
	defer rows.Close()

	var out []*domain.MemoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan box record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate box records: %w", err)
	}
	return out, nil
}

const countDueSQL = `
SELECT count(*) FROM memory_records
WHERE learner_id = $1 AND next_review_at <= $2`

// CountDue counts the learner's records due at the given time.
func (r *Repo) CountDue(ctx context.Context, learnerID uuid.UUID, now time.Time) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)
	var n int
	if err := querier.QueryRow(ctx, countDueSQL, learnerID, now).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "memory record count", learnerID)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.MemoryRecord, error) {
	var rec domain.MemoryRecord
	err := row.Scan(
		&rec.ID, &rec.LearnerID, &rec.QuestionID, &rec.BoxNumber, &rec.EaseFactor,
		&rec.IntervalDays, &rec.LastReviewedAt, &rec.NextReviewAt, &rec.RepetitionCount,
		&rec.CorrectCount, &rec.IncorrectCount, &rec.Streak, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
