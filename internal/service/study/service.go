// Package study implements the scheduler core: due-set resolution,
// answer processing, and the session state machine.
package study

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/service/study/leitner"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

// questionPool is the question pool accessor (catalog service).
type questionPool interface {
	Due(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, now time.Time, limit int) ([]domain.QuestionWithRecord, error)
	New(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error)
	Box(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, box, limit int) ([]domain.QuestionWithRecord, error)
	Pool(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error)
	CountNew(ctx context.Context, learnerID uuid.UUID) (int, error)
}

type memoryRepo interface {
	GetForUpdate(ctx context.Context, learnerID, questionID uuid.UUID) (*domain.MemoryRecord, error)
	Upsert(ctx context.Context, record *domain.MemoryRecord) (*domain.MemoryRecord, error)
	GetByBox(ctx context.Context, learnerID uuid.UUID, box int) ([]*domain.MemoryRecord, error)
	CountDue(ctx context.Context, learnerID uuid.UUID, now time.Time) (int, error)
}

type reviewLogRepo interface {
	Create(ctx context.Context, log *domain.ReviewLog) (*domain.ReviewLog, error)
	CountSince(ctx context.Context, learnerID uuid.UUID, since time.Time) (int, error)
	GetStreakDays(ctx context.Context, learnerID uuid.UUID, dayStart time.Time, lastNDays int) ([]domain.DayReviewCount, error)
	GetByQuestion(ctx context.Context, learnerID, questionID uuid.UUID, limit int) ([]*domain.ReviewLog, error)
}

type sessionRepo interface {
	Create(ctx context.Context, session *domain.StudySession) (*domain.StudySession, error)
	Finish(ctx context.Context, learnerID, sessionID uuid.UUID, result domain.SessionResult) (*domain.StudySession, error)
	Abandon(ctx context.Context, learnerID, sessionID uuid.UUID) error
	ListRecent(ctx context.Context, learnerID uuid.UUID, limit int) ([]*domain.StudySession, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock supplies the current time. Injected so that due-status is always
// computed against a caller-controlled "now" and never a running clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// sessionIdleTTL bounds the live-session registry: a session untouched
// for this long is evicted on the next registration sweep. A guest who
// never signs in loses queued answers after the TTL; there is nowhere
// durable to put them.
const sessionIdleTTL = 12 * time.Hour

// Service implements the scheduler business logic. Live sessions are held
// in an in-process registry; session start/finish rows are persisted for
// authenticated learners so summaries survive reconnects.
type Service struct {
	pool     questionPool
	records  memoryRepo
	reviews  reviewLogRepo
	sessions sessionRepo
	tx       txManager
	clock    Clock
	log      *slog.Logger

	srsConfig        leitner.Config
	defaultBatchSize int

	mu   sync.Mutex
	live map[uuid.UUID]*Session
}

// NewService creates a new study service.
func NewService(
	log *slog.Logger,
	pool questionPool,
	records memoryRepo,
	reviews reviewLogRepo,
	sessions sessionRepo,
	tx txManager,
	clock Clock,
	srsConfig leitner.Config,
	defaultBatchSize int,
) *Service {
	return &Service{
		pool:             pool,
		records:          records,
		reviews:          reviews,
		sessions:         sessions,
		tx:               tx,
		clock:            clock,
		log:              log.With("service", "study"),
		srsConfig:        srsConfig,
		defaultBatchSize: defaultBatchSize,
		live:             make(map[uuid.UUID]*Session),
	}
}

// session returns the live session by ID and refreshes its idle clock.
func (s *Service) session(id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sess.touchedAt = s.clock.Now()
	return sess, nil
}

// register adds the session and sweeps out entries idle past the TTL.
// Sweeping here bounds the registry: it can only grow through register,
// so every growth step also collects the garbage.
func (s *Service) register(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for id, old := range s.live {
		if now.Sub(old.touchedAt) > sessionIdleTTL {
			delete(s.live, id)
		}
	}

	sess.touchedAt = now
	s.live[sess.ID] = sess
}

func (s *Service) unregister(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, id)
}
