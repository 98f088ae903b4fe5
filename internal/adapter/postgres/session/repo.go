// Package session implements the study session repository using PostgreSQL.
// Only sessions of authenticated learners are persisted; guest sessions
// live purely in process.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	postgres "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

// Repo provides study session persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new study session repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const createSQL = `
INSERT INTO study_sessions (id, learner_id, status, category, sub_categories,
	regulation, practice, box, batch_size, started_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Create persists a freshly started session.
func (r *Repo) Create(ctx context.Context, s *domain.StudySession) (*domain.StudySession, error) {
	id := s.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	subs := s.Criteria.SubCategories
	if subs == nil {
		subs = []string{}
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)
	_, err := querier.Exec(ctx, createSQL,
		id, s.LearnerID, s.Status.String(), s.Criteria.Category.String(), subs,
		s.Criteria.Regulation.String(), s.Criteria.Practice, s.Criteria.Box, s.Criteria.BatchSize,
		s.StartedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "study session", id)
	}

	created := *s
	created.ID = id
	return &created, nil
}

const finishSQL = `
UPDATE study_sessions
SET status = $3, ended_at = $4, total_answered = $5, correct_count = $6,
	new_answered = $7, due_answered = $8, accuracy_rate = $9
WHERE id = $1 AND learner_id = $2
RETURNING id`

// Finish marks the session completed and records its result.
func (r *Repo) Finish(ctx context.Context, learnerID, sessionID uuid.UUID, result domain.SessionResult) (*domain.StudySession, error) {
	now := time.Now().UTC()

	querier := postgres.QuerierFromCtx(ctx, r.db)
	var id uuid.UUID
	err := querier.QueryRow(ctx, finishSQL,
		sessionID, learnerID, domain.SessionStatusCompleted.String(), now,
		result.TotalAnswered, result.CorrectCount, result.NewAnswered, result.DueAnswered,
		result.AccuracyRate,
	).Scan(&id)
	if err != nil {
		return nil, postgres.MapError(err, "study session", sessionID)
	}

	return &domain.StudySession{
		ID:         id,
		LearnerID:  learnerID,
		Status:     domain.SessionStatusCompleted,
		FinishedAt: &now,
		Result:     &result,
	}, nil
}

const abandonSQL = `
UPDATE study_sessions
SET status = $3, ended_at = $4
WHERE id = $1 AND learner_id = $2`

// Abandon marks the session abandoned. Updating a session that was never
// persisted is a no-op, not an error.
func (r *Repo) Abandon(ctx context.Context, learnerID, sessionID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)
	_, err := querier.Exec(ctx, abandonSQL,
		sessionID, learnerID, domain.SessionStatusAbandoned.String(), time.Now().UTC(),
	)
	if err != nil {
		return postgres.MapError(err, "study session", sessionID)
	}
	return nil
}

const getByIDSQL = `
SELECT id, learner_id, status, category, sub_categories, regulation, practice,
	box, batch_size, started_at, ended_at, total_answered, correct_count,
	new_answered, due_answered, accuracy_rate
FROM study_sessions
WHERE id = $1 AND learner_id = $2`

// GetByID returns one persisted session of the learner.
func (r *Repo) GetByID(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.StudySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)
	s, err := scanSession(querier.QueryRow(ctx, getByIDSQL, sessionID, learnerID))
	if err != nil {
		return nil, postgres.MapError(err, "study session", sessionID)
	}
	return s, nil
}

const listRecentSQL = `
SELECT id, learner_id, status, category, sub_categories, regulation, practice,
	box, batch_size, started_at, ended_at, total_answered, correct_count,
	new_answered, due_answered, accuracy_rate
FROM study_sessions
WHERE learner_id = $1
ORDER BY started_at DESC
LIMIT $2`

// ListRecent returns the learner's latest sessions, newest first.
func (r *Repo) ListRecent(ctx context.Context, learnerID uuid.UUID, limit int) ([]*domain.StudySession, error) {
	if limit <= 0 {
		limit = 20
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)
	rows, err := querier.Query(ctx, listRecentSQL, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent sessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.StudySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.StudySession, error) {
	var (
		s          domain.StudySession
		status     string
		category   string
		regulation string

		totalAnswered *int
		correctCount  *int
		newAnswered   *int
		dueAnswered   *int
		accuracyRate  *float64
	)

	err := row.Scan(
		&s.ID, &s.LearnerID, &status, &category, &s.Criteria.SubCategories, &regulation,
		&s.Criteria.Practice, &s.Criteria.Box, &s.Criteria.BatchSize, &s.StartedAt,
		&s.FinishedAt, &totalAnswered, &correctCount, &newAnswered, &dueAnswered, &accuracyRate,
	)
	if err != nil {
		return nil, err
	}

	s.Status = domain.SessionStatus(status)
	s.Criteria.Category = domain.Category(category)
	s.Criteria.Regulation = domain.RegulationFilter(regulation)

	if totalAnswered != nil {
		s.Result = &domain.SessionResult{
			TotalAnswered: *totalAnswered,
			CorrectCount:  *correctCount,
			NewAnswered:   *newAnswered,
			DueAnswered:   *dueAnswered,
			AccuracyRate:  *accuracyRate,
		}
	}
	return &s, nil
}
