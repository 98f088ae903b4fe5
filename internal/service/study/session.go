package study

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/pkg/ctxutil"
)

// Session is one live learning session: a fixed question list, a cursor,
// and the answers given so far. Guests additionally accumulate pending
// memory updates that are flushed atomically on completion or login.
//
// The zero LearnerID means guest. All mutating methods are called through
// the Service, which serializes access per session via the session mutex.
// touchedAt belongs to the Service registry and is guarded by the Service
// mutex, not the session mutex.
type Session struct {
	ID        uuid.UUID
	LearnerID uuid.UUID
	Criteria  domain.Criteria

	mu        sync.Mutex
	status    domain.SessionStatus
	queue     []domain.QuestionWithRecord
	index     int
	answers   map[uuid.UUID]domain.Score
	pending   []domain.PendingUpdate
	startedAt time.Time
	touchedAt time.Time
}

// View is a read-only snapshot of a session handed to transports.
type View struct {
	ID             uuid.UUID
	Status         domain.SessionStatus
	Questions      []domain.QuestionWithRecord
	CurrentIndex   int
	CorrectCount   int
	TotalQuestions int
}

func (sess *Session) view() View {
	return View{
		ID:             sess.ID,
		Status:         sess.status,
		Questions:      sess.queue,
		CurrentIndex:   sess.index,
		CorrectCount:   sess.correctCount(),
		TotalQuestions: len(sess.queue),
	}
}

// correctCount is derived from the latest answer per question, so a
// re-answer within the session never double-counts.
func (sess *Session) correctCount() int {
	n := 0
	for _, score := range sess.answers {
		if score.Recalled() {
			n++
		}
	}
	return n
}

func (sess *Session) summary() domain.SessionSummary {
	return domain.SessionSummary{
		CorrectCount:   sess.correctCount(),
		TotalQuestions: len(sess.queue),
		Completed:      sess.status == domain.SessionStatusCompleted,
	}
}

// currentQuestion returns the question under the cursor.
func (sess *Session) currentQuestion() (domain.QuestionWithRecord, error) {
	if sess.index >= len(sess.queue) {
		return domain.QuestionWithRecord{}, domain.NewValidationError("session", "no current question")
	}
	return sess.queue[sess.index], nil
}

// ---------------------------------------------------------------------------
// Session operations
// ---------------------------------------------------------------------------

// StartSession resolves the question queue for the given criteria and
// enters the Active state. The criteria are captured once and reused
// verbatim for the session's whole lifetime.
//
// An empty queue is a valid outcome, not an error: the session is born
// Completed with zero questions so the caller renders the explicit empty
// state against a terminal session, never a stuck Active one.
func (s *Service) StartSession(ctx context.Context, input StartSessionInput) (View, error) {
	if err := input.Validate(); err != nil {
		return View{}, err
	}

	learnerID, _ := ctxutil.LearnerIDFromCtx(ctx)

	sess := &Session{
		ID:        uuid.New(),
		LearnerID: learnerID,
		Criteria:  input.Criteria.Normalized(s.defaultBatchSize),
		status:    domain.SessionStatusLoading,
		answers:   make(map[uuid.UUID]domain.Score),
		startedAt: s.clock.Now(),
	}

	queue, err := s.resolveQueue(ctx, learnerID, sess.Criteria, sess.ID)
	if err != nil {
		return View{}, err
	}
	// A cancelled load must never surface a stale queue.
	if err := ctx.Err(); err != nil {
		return View{}, err
	}

	if learnerID != uuid.Nil {
		_, err := s.sessions.Create(ctx, &domain.StudySession{
			ID:        sess.ID,
			LearnerID: learnerID,
			Status:    domain.SessionStatusActive,
			Criteria:  sess.Criteria,
			StartedAt: sess.startedAt,
		})
		if err != nil {
			return View{}, s.storeErr("create session", err)
		}
	}

	sess.queue = queue
	sess.status = domain.SessionStatusActive
	if len(queue) == 0 {
		if err := s.completeLocked(ctx, sess); err != nil {
			return View{}, err
		}
	}
	s.register(sess)

	s.log.InfoContext(ctx, "session started",
		slog.String("session_id", sess.ID.String()),
		slog.Bool("guest", learnerID == uuid.Nil),
		slog.Int("queue_size", len(queue)),
		slog.Bool("practice", sess.Criteria.Practice),
	)

	return sess.view(), nil
}

// GetSession returns a snapshot of a live session.
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (View, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return View{}, fmt.Errorf("session %s: %w", sessionID, err)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// Advance moves the cursor to the next question. Reaching the end of the
// queue completes the session: pending updates are flushed (when a learner
// is attached) and the persisted session row is finished. A store failure
// during completion leaves the session Active so the caller can retry;
// it is never reported Completed on failure.
func (s *Service) Advance(ctx context.Context, sessionID uuid.UUID) (View, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return View{}, fmt.Errorf("session %s: %w", sessionID, err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != domain.SessionStatusActive {
		return View{}, domain.NewValidationError("session", "not active")
	}
	if sess.index >= len(sess.queue) {
		return View{}, domain.NewValidationError("session", "already at the end")
	}

	sess.index++
	if sess.index < len(sess.queue) {
		return sess.view(), nil
	}

	if err := s.completeLocked(ctx, sess); err != nil {
		sess.index-- // completion failed, stay retryable
		return View{}, err
	}
	return sess.view(), nil
}

// completeLocked finishes the session. Caller holds sess.mu or owns the
// session exclusively because it is not registered yet.
func (s *Service) completeLocked(ctx context.Context, sess *Session) error {
	if sess.LearnerID != uuid.Nil && len(sess.pending) > 0 {
		if err := s.flushLocked(ctx, sess, sess.LearnerID); err != nil {
			return err
		}
	}

	if sess.LearnerID != uuid.Nil {
		result := sess.sessionResult()
		if _, err := s.sessions.Finish(ctx, sess.LearnerID, sess.ID, result); err != nil {
			return s.storeErr("finish session", err)
		}
	}

	sess.status = domain.SessionStatusCompleted

	s.log.InfoContext(ctx, "session completed",
		slog.String("session_id", sess.ID.String()),
		slog.Int("correct", sess.correctCount()),
		slog.Int("total", len(sess.queue)),
	)
	return nil
}

// sessionResult aggregates the final numbers. Caller holds sess.mu.
func (sess *Session) sessionResult() domain.SessionResult {
	result := domain.SessionResult{
		TotalAnswered: len(sess.answers),
		CorrectCount:  sess.correctCount(),
	}
	for _, qr := range sess.queue {
		if _, answered := sess.answers[qr.Question.ID]; !answered {
			continue
		}
		if qr.IsNew() {
			result.NewAnswered++
		} else {
			result.DueAnswered++
		}
	}
	if result.TotalAnswered > 0 {
		result.AccuracyRate = float64(result.CorrectCount) / float64(result.TotalAnswered)
	}
	return result
}

// Restart re-resolves the queue with the session's original criteria and
// re-enters Active with a fresh cursor. Answering questions changes due
// status, so the list is always rebuilt; a stale list is never reused.
// Queued guest updates survive a restart; given answers stay real.
//
// A failed reload marks the session Failed. The old queue cannot be
// trusted after a partial resolve, and a later Restart may still recover.
func (s *Service) Restart(ctx context.Context, sessionID uuid.UUID) (View, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return View{}, fmt.Errorf("session %s: %w", sessionID, err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	queue, err := s.resolveQueue(ctx, sess.LearnerID, sess.Criteria, sess.ID)
	if err != nil {
		sess.status = domain.SessionStatusFailed
		return View{}, err
	}
	if err := ctx.Err(); err != nil {
		return View{}, err
	}

	sess.queue = queue
	sess.index = 0
	sess.answers = make(map[uuid.UUID]domain.Score)
	sess.status = domain.SessionStatusActive
	if len(queue) == 0 {
		if err := s.completeLocked(ctx, sess); err != nil {
			return View{}, err
		}
	}

	s.log.InfoContext(ctx, "session restarted",
		slog.String("session_id", sess.ID.String()),
		slog.Int("queue_size", len(queue)),
	)

	return sess.view(), nil
}

// Abandon discards the session state. Pending guest updates are dropped,
// never implicitly flushed.
func (s *Service) Abandon(ctx context.Context, sessionID uuid.UUID) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}

	sess.mu.Lock()
	sess.status = domain.SessionStatusAbandoned
	sess.pending = nil
	learnerID := sess.LearnerID
	sess.mu.Unlock()

	s.unregister(sessionID)

	if learnerID != uuid.Nil {
		if err := s.sessions.Abandon(ctx, learnerID, sessionID); err != nil {
			// The live state is already gone; the stale row is harmless.
			s.log.WarnContext(ctx, "abandon session row",
				slog.String("session_id", sessionID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	s.log.InfoContext(ctx, "session abandoned", slog.String("session_id", sessionID.String()))
	return nil
}

// Summary reports the externally observable result of a session.
func (s *Service) Summary(sessionID uuid.UUID) (domain.SessionSummary, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSummary{}, fmt.Errorf("session %s: %w", sessionID, err)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.summary(), nil
}
