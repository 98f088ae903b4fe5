package study

import (
	"context"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/pkg/ctxutil"
)

// ReviewHistory returns the learner's past reviews of one question,
// newest first. Guests have no persisted history.
func (s *Service) ReviewHistory(ctx context.Context, questionID uuid.UUID, limit int) ([]*domain.ReviewLog, error) {
	learnerID, ok := ctxutil.LearnerIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if questionID == uuid.Nil {
		return nil, domain.NewValidationError("question_id", "required")
	}

	logs, err := s.reviews.GetByQuestion(ctx, learnerID, questionID, limit)
	if err != nil {
		return nil, s.storeErr("load review history", err)
	}
	return logs, nil
}

// RecentSessions returns the learner's most recent persisted sessions,
// newest first.
func (s *Service) RecentSessions(ctx context.Context, limit int) ([]*domain.StudySession, error) {
	learnerID, ok := ctxutil.LearnerIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	sessions, err := s.sessions.ListRecent(ctx, learnerID, limit)
	if err != nil {
		return nil, s.storeErr("list recent sessions", err)
	}
	return sessions, nil
}
