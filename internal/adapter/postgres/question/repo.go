// Package question implements the question catalog repository using
// PostgreSQL. Pool queries join the learner's memory records so every
// result carries the record state in one round trip; the dynamic filter
// combinations are built with squirrel.
package question

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

// Repo provides question persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new question repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const questionColumns = `q.id, q.category, q.sub_category, q.question_type, q.difficulty,
	q.text, q.image_ref, q.answers, q.regulation, q.hint, q.created_at, q.updated_at`

const recordColumns = `m.id, m.box_number, m.ease_factor, m.interval_days,
	m.last_reviewed_at, m.next_review_at, m.repetition_count, m.correct_count,
	m.incorrect_count, m.streak, m.created_at, m.updated_at`

// poolSelect joins questions with the learner's memory records. The join
// key includes the learner, so rows for a guest or another learner come
// back with NULL record columns.
func poolSelect(learnerID uuid.UUID, c domain.Criteria) squirrel.SelectBuilder {
	b := builder.
		Select(questionColumns+", "+recordColumns).
		From("questions q").
		JoinClause("LEFT JOIN memory_records m ON m.question_id = q.id AND m.learner_id = ?", learnerID).
		Where(squirrel.Eq{"q.category": c.Category.String()})

	if len(c.SubCategories) > 0 {
		b = b.Where(squirrel.Eq{"q.sub_category": c.SubCategories})
	}
	if c.Regulation != domain.RegulationFilterAll {
		// Untagged questions and BOTH-tagged questions match any filter.
		b = b.Where(squirrel.Or{
			squirrel.Eq{"q.regulation": nil},
			squirrel.Eq{"q.regulation": domain.RegulationBoth.String()},
			squirrel.Eq{"q.regulation": c.Regulation.String()},
		})
	}
	return b
}

// GetDue returns questions whose memory record is due at the given time,
// most overdue first.
func (r *Repo) GetDue(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, now time.Time, limit int) ([]domain.QuestionWithRecord, error) {
	q := poolSelect(learnerID, c).
		Where("m.id IS NOT NULL").
		Where(squirrel.LtOrEq{"m.next_review_at": now}).
		OrderBy("m.next_review_at ASC", "q.id ASC").
		Limit(uint64(limit))
	return r.queryPool(ctx, learnerID, q, "due questions")
}

// GetNew returns questions the learner has no memory record for.
func (r *Repo) GetNew(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error) {
	q := poolSelect(learnerID, c).
		Where("m.id IS NULL").
		OrderBy("q.created_at ASC", "q.id ASC").
		Limit(uint64(limit))
	return r.queryPool(ctx, learnerID, q, "new questions")
}

// GetByBox returns questions whose memory record sits in the given box.
func (r *Repo) GetByBox(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, box, limit int) ([]domain.QuestionWithRecord, error) {
	q := poolSelect(learnerID, c).
		Where(squirrel.Eq{"m.box_number": box}).
		OrderBy("m.next_review_at ASC", "q.id ASC").
		Limit(uint64(limit))
	return r.queryPool(ctx, learnerID, q, "box questions")
}

// GetPool returns the filtered pool regardless of due status.
func (r *Repo) GetPool(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error) {
	q := poolSelect(learnerID, c).
		OrderBy("q.created_at ASC", "q.id ASC").
		Limit(uint64(limit))
	return r.queryPool(ctx, learnerID, q, "question pool")
}

// CountNew counts catalog questions without a memory record for the learner.
func (r *Repo) CountNew(ctx context.Context, learnerID uuid.UUID) (int, error) {
	sql, args, err := builder.
		Select("count(*)").
		From("questions q").
		JoinClause("LEFT JOIN memory_records m ON m.question_id = q.id AND m.learner_id = ?", learnerID).
		Where("m.id IS NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count new questions: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)
	var n int
	if err := querier.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "question count", learnerID)
	}
	return n, nil
}

// ListSubCategories returns the distinct sub-categories of a category.
func (r *Repo) ListSubCategories(ctx context.Context, category domain.Category) ([]string, error) {
	sql, args, err := builder.
		Select("DISTINCT sub_category").
		From("questions").
		Where(squirrel.Eq{"category": category.String()}).
		OrderBy("sub_category ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sub-categories: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)
	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list sub-categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sc string
		if err := rows.Scan(&sc); err != nil {
			return nil, fmt.Errorf("scan sub-category: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sub-categories: %w", err)
	}
	return out, nil
}

const insertQuestionSQL = `
INSERT INTO questions (id, category, sub_category, question_type, difficulty,
	text, image_ref, answers, regulation, hint, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
RETURNING created_at, updated_at`

// Insert writes a new question into the catalog.
func (r *Repo) Insert(ctx context.Context, q *domain.Question) (*domain.Question, error) {
	answers, err := marshalAnswers(q.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}

	id := q.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var regulation *string
	if q.Regulation != nil {
		s := q.Regulation.String()
		regulation = &s
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)
	created := *q
	created.ID = id
	err = querier.QueryRow(ctx, insertQuestionSQL,
		id, q.Category.String(), q.SubCategory, q.Type.String(), q.Difficulty,
		q.Text, q.ImageRef, answers, regulation, q.Hint,
	).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "question", id)
	}
	return &created, nil
}

// queryPool runs a pool query and scans question plus nullable record rows.
func (r *Repo) queryPool(ctx context.Context, learnerID uuid.UUID, q squirrel.SelectBuilder, op string) ([]domain.QuestionWithRecord, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)
	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", op, err)
	}
	defer rows.Close()

	var out []domain.QuestionWithRecord
	for rows.Next() {
		qr, err := scanQuestionWithRecord(rows, learnerID)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		out = append(out, qr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestionWithRecord(row rowScanner, learnerID uuid.UUID) (domain.QuestionWithRecord, error) {
	var (
		q          domain.Question
		category   string
		qType      string
		answersRaw []byte
		regulation *string

		recID             *uuid.UUID
		recBox            *int
		recEase           *float64
		recInterval       *int
		recLastReviewedAt *time.Time
		recNextReviewAt   *time.Time
		recRepetitions    *int
		recCorrect        *int
		recIncorrect      *int
		recStreak         *int
		recCreatedAt      *time.Time
		recUpdatedAt      *time.Time
	)

	err := row.Scan(
		&q.ID, &category, &q.SubCategory, &qType, &q.Difficulty,
		&q.Text, &q.ImageRef, &answersRaw, &regulation, &q.Hint, &q.CreatedAt, &q.UpdatedAt,
		&recID, &recBox, &recEase, &recInterval,
		&recLastReviewedAt, &recNextReviewAt, &recRepetitions, &recCorrect,
		&recIncorrect, &recStreak, &recCreatedAt, &recUpdatedAt,
	)
	if err != nil {
		return domain.QuestionWithRecord{}, err
	}

	q.Category = domain.Category(category)
	q.Type = domain.QuestionType(qType)
	if regulation != nil {
		reg := domain.Regulation(*regulation)
		q.Regulation = &reg
	}
	if q.Answers, err = unmarshalAnswers(answersRaw); err != nil {
		return domain.QuestionWithRecord{}, fmt.Errorf("unmarshal answers: %w", err)
	}

	qr := domain.QuestionWithRecord{Question: &q}
	if recID != nil {
		qr.Record = &domain.MemoryRecord{
			ID:              *recID,
			LearnerID:       learnerID,
			QuestionID:      q.ID,
			BoxNumber:       *recBox,
			EaseFactor:      *recEase,
			IntervalDays:    *recInterval,
			LastReviewedAt:  *recLastReviewedAt,
			NextReviewAt:    *recNextReviewAt,
			RepetitionCount: *recRepetitions,
			CorrectCount:    *recCorrect,
			IncorrectCount:  *recIncorrect,
			Streak:          *recStreak,
			CreatedAt:       *recCreatedAt,
			UpdatedAt:       *recUpdatedAt,
		}
	}
	return qr, nil
}

// answerJSON is the jsonb wire shape of one answer option.
type answerJSON struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

func marshalAnswers(answers []domain.Answer) ([]byte, error) {
	wire := make([]answerJSON, 0, len(answers))
	for _, a := range answers {
		wire = append(wire, answerJSON{Text: a.Text, Correct: a.Correct})
	}
	return json.Marshal(wire)
}

func unmarshalAnswers(raw []byte) ([]domain.Answer, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var wire []answerJSON
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	answers := make([]domain.Answer, 0, len(wire))
	for _, a := range wire {
		answers = append(answers, domain.Answer{Text: a.Text, Correct: a.Correct})
	}
	return answers, nil
}
