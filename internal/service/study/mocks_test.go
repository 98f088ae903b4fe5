package study

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/service/study/leitner"
)

// ---------------------------------------------------------------------------
// Hand-written mocks
// ---------------------------------------------------------------------------

type questionPoolMock struct {
	DueFunc      func(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, now time.Time, limit int) ([]domain.QuestionWithRecord, error)
	NewFunc      func(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error)
	BoxFunc      func(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, box, limit int) ([]domain.QuestionWithRecord, error)
	PoolFunc     func(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error)
	CountNewFunc func(ctx context.Context, learnerID uuid.UUID) (int, error)
}

func (m *questionPoolMock) Due(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, now time.Time, limit int) ([]domain.QuestionWithRecord, error) {
	if m.DueFunc == nil {
		return nil, nil
	}
	return m.DueFunc(ctx, learnerID, c, now, limit)
}

func (m *questionPoolMock) New(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error) {
	if m.NewFunc == nil {
		return nil, nil
	}
	return m.NewFunc(ctx, learnerID, c, limit)
}

func (m *questionPoolMock) Box(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, box, limit int) ([]domain.QuestionWithRecord, error) {
	if m.BoxFunc == nil {
		return nil, nil
	}
	return m.BoxFunc(ctx, learnerID, c, box, limit)
}

func (m *questionPoolMock) Pool(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error) {
	if m.PoolFunc == nil {
		return nil, nil
	}
	return m.PoolFunc(ctx, learnerID, c, limit)
}

func (m *questionPoolMock) CountNew(ctx context.Context, learnerID uuid.UUID) (int, error) {
	if m.CountNewFunc == nil {
		return 0, nil
	}
	return m.CountNewFunc(ctx, learnerID)
}

// memoryStoreMock keeps records in a map so tests can observe writes.
type memoryStoreMock struct {
	records map[uuid.UUID]*domain.MemoryRecord // keyed by question id

	GetForUpdateFunc func(ctx context.Context, learnerID, questionID uuid.UUID) (*domain.MemoryRecord, error)
	UpsertFunc       func(ctx context.Context, record *domain.MemoryRecord) (*domain.MemoryRecord, error)
	GetByBoxFunc     func(ctx context.Context, learnerID uuid.UUID, box int) ([]*domain.MemoryRecord, error)
	CountDueFunc     func(ctx context.Context, learnerID uuid.UUID, now time.Time) (int, error)

	upserts int
}

func newMemoryStoreMock() *memoryStoreMock {
	return &memoryStoreMock{records: make(map[uuid.UUID]*domain.MemoryRecord)}
}

func (m *memoryStoreMock) GetForUpdate(ctx context.Context, learnerID, questionID uuid.UUID) (*domain.MemoryRecord, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, learnerID, questionID)
	}
	rec, ok := m.records[questionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (m *memoryStoreMock) Upsert(ctx context.Context, record *domain.MemoryRecord) (*domain.MemoryRecord, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, record)
	}
	m.upserts++
	cp := *record
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	m.records[record.QuestionID] = &cp
	return &cp, nil
}

func (m *memoryStoreMock) GetByBox(ctx context.Context, learnerID uuid.UUID, box int) ([]*domain.MemoryRecord, error) {
	if m.GetByBoxFunc != nil {
		return m.GetByBoxFunc(ctx, learnerID, box)
	}
	var out []*domain.MemoryRecord
	for _, rec := range m.records {
		if rec.BoxNumber == box {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryStoreMock) CountDue(ctx context.Context, learnerID uuid.UUID, now time.Time) (int, error) {
	if m.CountDueFunc != nil {
		return m.CountDueFunc(ctx, learnerID, now)
	}
	n := 0
	for _, rec := range m.records {
		if rec.IsDue(now) {
			n++
		}
	}
	return n, nil
}

type reviewLogRepoMock struct {
	CreateFunc        func(ctx context.Context, log *domain.ReviewLog) (*domain.ReviewLog, error)
	CountSinceFunc    func(ctx context.Context, learnerID uuid.UUID, since time.Time) (int, error)
	GetStreakDaysFunc func(ctx context.Context, learnerID uuid.UUID, dayStart time.Time, lastNDays int) ([]domain.DayReviewCount, error)
	GetByQuestionFunc func(ctx context.Context, learnerID, questionID uuid.UUID, limit int) ([]*domain.ReviewLog, error)

	created []*domain.ReviewLog
}

func (m *reviewLogRepoMock) Create(ctx context.Context, log *domain.ReviewLog) (*domain.ReviewLog, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.created = append(m.created, log)
	return log, nil
}

func (m *reviewLogRepoMock) CountSince(ctx context.Context, learnerID uuid.UUID, since time.Time) (int, error) {
	if m.CountSinceFunc == nil {
		return 0, nil
	}
	return m.CountSinceFunc(ctx, learnerID, since)
}

func (m *reviewLogRepoMock) GetStreakDays(ctx context.Context, learnerID uuid.UUID, dayStart time.Time, lastNDays int) ([]domain.DayReviewCount, error) {
	if m.GetStreakDaysFunc == nil {
		return nil, nil
	}
	return m.GetStreakDaysFunc(ctx, learnerID, dayStart, lastNDays)
}

func (m *reviewLogRepoMock) GetByQuestion(ctx context.Context, learnerID, questionID uuid.UUID, limit int) ([]*domain.ReviewLog, error) {
	if m.GetByQuestionFunc == nil {
		return nil, nil
	}
	return m.GetByQuestionFunc(ctx, learnerID, questionID, limit)
}

type sessionRepoMock struct {
	CreateFunc     func(ctx context.Context, session *domain.StudySession) (*domain.StudySession, error)
	FinishFunc     func(ctx context.Context, learnerID, sessionID uuid.UUID, result domain.SessionResult) (*domain.StudySession, error)
	AbandonFunc    func(ctx context.Context, learnerID, sessionID uuid.UUID) error
	ListRecentFunc func(ctx context.Context, learnerID uuid.UUID, limit int) ([]*domain.StudySession, error)
}

func (m *sessionRepoMock) Create(ctx context.Context, session *domain.StudySession) (*domain.StudySession, error) {
	if m.CreateFunc == nil {
		return session, nil
	}
	return m.CreateFunc(ctx, session)
}

func (m *sessionRepoMock) Finish(ctx context.Context, learnerID, sessionID uuid.UUID, result domain.SessionResult) (*domain.StudySession, error) {
	if m.FinishFunc == nil {
		return &domain.StudySession{ID: sessionID, LearnerID: learnerID}, nil
	}
	return m.FinishFunc(ctx, learnerID, sessionID, result)
}

func (m *sessionRepoMock) Abandon(ctx context.Context, learnerID, sessionID uuid.UUID) error {
	if m.AbandonFunc == nil {
		return nil
	}
	return m.AbandonFunc(ctx, learnerID, sessionID)
}

func (m *sessionRepoMock) ListRecent(ctx context.Context, learnerID uuid.UUID, limit int) ([]*domain.StudySession, error) {
	if m.ListRecentFunc == nil {
		return nil, nil
	}
	return m.ListRecentFunc(ctx, learnerID, limit)
}

// txManagerMock runs the callback directly; FailAfter > 0 makes the
// callback's error abort as a whole (simulating rollback) after N calls.
type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
	calls       int
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(ctx)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// steppingClock is a Clock whose time the test moves by hand.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ---------------------------------------------------------------------------
// Test fixture
// ---------------------------------------------------------------------------

var testNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	pool     *questionPoolMock
	records  *memoryStoreMock
	reviews  *reviewLogRepoMock
	sessions *sessionRepoMock
	tx       *txManagerMock
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		pool:     &questionPoolMock{},
		records:  newMemoryStoreMock(),
		reviews:  &reviewLogRepoMock{},
		sessions: &sessionRepoMock{},
		tx:       &txManagerMock{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(log, f.pool, f.records, f.reviews, f.sessions, f.tx, fixedClock{now: testNow}, leitner.DefaultConfig(), 10)
	return f
}

func newQuestion(cat domain.Category) domain.QuestionWithRecord {
	return domain.QuestionWithRecord{
		Question: &domain.Question{ID: uuid.New(), Category: cat, SubCategory: "Hauptsignale"},
	}
}

func dueQuestion(cat domain.Category, overdue time.Duration) domain.QuestionWithRecord {
	qr := newQuestion(cat)
	qr.Record = &domain.MemoryRecord{
		ID:             uuid.New(),
		QuestionID:     qr.Question.ID,
		BoxNumber:      2,
		EaseFactor:     2.5,
		IntervalDays:   3,
		LastReviewedAt: testNow.Add(-overdue - 72*time.Hour),
		NextReviewAt:   testNow.Add(-overdue),
	}
	return qr
}
