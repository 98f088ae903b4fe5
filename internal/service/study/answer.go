package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/service/study/leitner"
)

// SubmitAnswer records a confidence score for the session's current
// question and advances the memory state through the Leitner model.
// The cursor does not move; Advance is a separate call.
//
// Re-answering the same question within one session overwrites: the
// transition is recomputed from the record as it stood when the session
// was resolved, so counters and streaks are never double-applied.
//
// Guests get their update queued on the session instead of persisted;
// authenticated persistence is retried once before the error surfaces.
func (s *Service) SubmitAnswer(ctx context.Context, input SubmitAnswerInput) (View, error) {
	if err := input.Validate(); err != nil {
		return View{}, err
	}

	sess, err := s.session(input.SessionID)
	if err != nil {
		return View{}, fmt.Errorf("session %s: %w", input.SessionID, err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != domain.SessionStatusActive {
		return View{}, domain.NewValidationError("session", "not active")
	}

	current, err := sess.currentQuestion()
	if err != nil {
		return View{}, err
	}

	now := s.clock.Now()
	questionID := current.Question.ID

	if sess.LearnerID == uuid.Nil {
		sess.queuePending(questionID, input.Score, now)
	} else {
		updated, err := s.persistAnswer(ctx, sess.LearnerID, current, input.Score, now)
		if err != nil {
			return View{}, err
		}
		s.log.InfoContext(ctx, "answer recorded",
			slog.String("session_id", sess.ID.String()),
			slog.String("question_id", questionID.String()),
			slog.Int("score", int(input.Score)),
			slog.Int("box", updated.BoxNumber),
			slog.Int("interval_days", updated.IntervalDays),
		)
	}

	sess.answers[questionID] = input.Score
	return sess.view(), nil
}

// queuePending appends a guest update, replacing any earlier submission
// for the same question so a later flush applies each question once.
func (sess *Session) queuePending(questionID uuid.UUID, score domain.Score, now time.Time) {
	kept := sess.pending[:0]
	for _, p := range sess.pending {
		if p.QuestionID != questionID {
			kept = append(kept, p)
		}
	}
	sess.pending = append(kept, domain.PendingUpdate{
		QuestionID: questionID,
		Score:      score,
		AnsweredAt: now,
	})
}

// persistAnswer applies the memory transition and writes the record plus
// a review log in one transaction. The row lock taken by GetForUpdate
// serializes concurrent submissions for the same (learner, question) pair.
// The transition starts from the pre-session snapshot, not the stored row,
// so a duplicate submission overwrites instead of compounding.
func (s *Service) persistAnswer(ctx context.Context, learnerID uuid.UUID, current domain.QuestionWithRecord, score domain.Score, now time.Time) (*domain.MemoryRecord, error) {
	var updated *domain.MemoryRecord

	write := func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if _, err := s.records.GetForUpdate(txCtx, learnerID, current.Question.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("lock record: %w", err)
			}

			next := leitner.Apply(current.Record, score, now, s.srsConfig)
			next.LearnerID = learnerID
			next.QuestionID = current.Question.ID
			if current.Record != nil {
				next.ID = current.Record.ID
			}

			var err error
			updated, err = s.records.Upsert(txCtx, &next)
			if err != nil {
				return fmt.Errorf("upsert record: %w", err)
			}

			prevBox := 0
			if current.Record != nil {
				prevBox = current.Record.BoxNumber
			}
			_, err = s.reviews.Create(txCtx, &domain.ReviewLog{
				ID:         uuid.New(),
				LearnerID:  learnerID,
				QuestionID: current.Question.ID,
				Score:      score,
				PrevBox:    prevBox,
				NewBox:     updated.BoxNumber,
				ReviewedAt: now,
			})
			if err != nil {
				return fmt.Errorf("create review log: %w", err)
			}
			return nil
		})
	}

	err := write(ctx)
	if err != nil {
		// One transparent retry before the learner sees a warning.
		s.log.WarnContext(ctx, "answer write failed, retrying",
			slog.String("question_id", current.Question.ID.String()),
			slog.String("error", err.Error()),
		)
		if err = write(ctx); err != nil {
			return nil, s.storeErr("persist answer", err)
		}
	}

	return updated, nil
}

// FlushPendingUpdates applies a guest session's queued updates under the
// given learner, in submission order, as one atomic batch: either every
// queued update lands or none do and the batch stays queued for retry.
// Invoked on login and on completion of a session that has a learner.
func (s *Service) FlushPendingUpdates(ctx context.Context, sessionID, learnerID uuid.UUID) error {
	if learnerID == uuid.Nil {
		return domain.NewValidationError("learner_id", "required")
	}

	sess, err := s.session(sessionID)
	if err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.flushLocked(ctx, sess, learnerID); err != nil {
		return err
	}
	// The session is owned by the learner from here on.
	sess.LearnerID = learnerID
	return nil
}

// flushLocked writes all pending updates in one transaction. Caller holds
// sess.mu. The queue is cleared only after the transaction commits.
func (s *Service) flushLocked(ctx context.Context, sess *Session, learnerID uuid.UUID) error {
	if len(sess.pending) == 0 {
		return nil
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, p := range sess.pending {
			prev, err := s.records.GetForUpdate(txCtx, learnerID, p.QuestionID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("lock record %s: %w", p.QuestionID, err)
			}

			next := leitner.Apply(prev, p.Score, p.AnsweredAt, s.srsConfig)
			next.LearnerID = learnerID
			next.QuestionID = p.QuestionID
			if prev != nil {
				next.ID = prev.ID
			}

			updated, err := s.records.Upsert(txCtx, &next)
			if err != nil {
				return fmt.Errorf("upsert record %s: %w", p.QuestionID, err)
			}

			prevBox := 0
			if prev != nil {
				prevBox = prev.BoxNumber
			}
			if _, err := s.reviews.Create(txCtx, &domain.ReviewLog{
				ID:         uuid.New(),
				LearnerID:  learnerID,
				QuestionID: p.QuestionID,
				Score:      p.Score,
				PrevBox:    prevBox,
				NewBox:     updated.BoxNumber,
				ReviewedAt: p.AnsweredAt,
			}); err != nil {
				return fmt.Errorf("create review log %s: %w", p.QuestionID, err)
			}
		}
		return nil
	})
	if err != nil {
		return s.storeErr("flush pending updates", err)
	}

	flushed := len(sess.pending)
	sess.pending = nil

	s.log.InfoContext(ctx, "pending updates flushed",
		slog.String("session_id", sess.ID.String()),
		slog.String("learner_id", learnerID.String()),
		slog.Int("count", flushed),
	)
	return nil
}

// storeErr maps persistence failures to the store-unavailable sentinel,
// letting domain sentinels pass through unchanged.
func (s *Service) storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) || errors.Is(err, domain.ErrValidation) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStoreUnavailable)
}
