// Package catalog implements the question pool accessor: filtered access
// to the question catalog joined with the learner's memory records.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type questionRepo interface {
	GetDue(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, now time.Time, limit int) ([]domain.QuestionWithRecord, error)
	GetNew(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error)
	GetByBox(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, box, limit int) ([]domain.QuestionWithRecord, error)
	GetPool(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error)
	CountNew(ctx context.Context, learnerID uuid.UUID) (int, error)
	ListSubCategories(ctx context.Context, category domain.Category) ([]string, error)
	Insert(ctx context.Context, q *domain.Question) (*domain.Question, error)
}

type authorizer interface {
	CanAccess(ctx context.Context, learnerID uuid.UUID, category domain.Category) (bool, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service validates filter criteria against the catalog, enforces category
// entitlement, and serves the three question pools (due / new / box) plus
// the ungated practice pool.
type Service struct {
	questions questionRepo
	authz     authorizer
	cache     *categoryCache
	log       *slog.Logger
}

// NewService creates a new catalog service.
func NewService(log *slog.Logger, questions questionRepo, authz authorizer) *Service {
	return &Service{
		questions: questions,
		authz:     authz,
		cache:     newCategoryCache(),
		log:       log.With("service", "catalog"),
	}
}

// Due returns questions whose memory record is due at the given time.
func (s *Service) Due(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, now time.Time, limit int) ([]domain.QuestionWithRecord, error) {
	if err := s.checkCriteria(ctx, learnerID, c); err != nil {
		return nil, err
	}
	out, err := s.questions.GetDue(ctx, learnerID, c, now, limit)
	if err != nil {
		return nil, s.catalogErr("get due questions", err)
	}
	return out, nil
}

// New returns questions the learner has never answered.
func (s *Service) New(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error) {
	if err := s.checkCriteria(ctx, learnerID, c); err != nil {
		return nil, err
	}
	out, err := s.questions.GetNew(ctx, learnerID, c, limit)
	if err != nil {
		return nil, s.catalogErr("get new questions", err)
	}
	return out, nil
}

// Box returns questions whose memory record currently sits in the given box.
func (s *Service) Box(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, box, limit int) ([]domain.QuestionWithRecord, error) {
	if err := s.checkCriteria(ctx, learnerID, c); err != nil {
		return nil, err
	}
	out, err := s.questions.GetByBox(ctx, learnerID, c, box, limit)
	if err != nil {
		return nil, s.catalogErr("get box questions", err)
	}
	return out, nil
}

// Pool returns the full filtered pool regardless of due status (practice mode).
func (s *Service) Pool(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error) {
	if err := s.checkCriteria(ctx, learnerID, c); err != nil {
		return nil, err
	}
	out, err := s.questions.GetPool(ctx, learnerID, c, limit)
	if err != nil {
		return nil, s.catalogErr("get practice pool", err)
	}
	return out, nil
}

// CountNew counts catalog questions the learner has never answered,
// across all categories. Entitlement does not apply to a bare count.
func (s *Service) CountNew(ctx context.Context, learnerID uuid.UUID) (int, error) {
	n, err := s.questions.CountNew(ctx, learnerID)
	if err != nil {
		return 0, s.catalogErr("count new questions", err)
	}
	return n, nil
}

// CreateQuestion inserts a question into the catalog and invalidates the
// category cache, since the mutation may introduce a new sub-category.
func (s *Service) CreateQuestion(ctx context.Context, q *domain.Question) (*domain.Question, error) {
	if !q.Category.IsValid() {
		return nil, domain.NewValidationError("category", "must be SIGNAL or OPERATIONS")
	}
	if q.SubCategory == "" {
		return nil, domain.NewValidationError("sub_category", "required")
	}

	created, err := s.questions.Insert(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}

	s.cache.Invalidate()

	s.log.InfoContext(ctx, "question created",
		slog.String("question_id", created.ID.String()),
		slog.String("category", created.Category.String()),
		slog.String("sub_category", created.SubCategory),
	)
	return created, nil
}

// InvalidateCache drops the cached category index. Exposed for callers
// that mutate the catalog outside this service (seeding, migrations).
func (s *Service) InvalidateCache() {
	s.cache.Invalidate()
}

// checkCriteria validates the criteria shape, verifies the requested
// sub-categories exist in the catalog, and enforces entitlement.
// A gated category with an unentitled learner fails with ErrAccessDenied,
// never a silent empty result.
func (s *Service) checkCriteria(ctx context.Context, learnerID uuid.UUID, c domain.Criteria) error {
	if err := c.Validate(); err != nil {
		return err
	}

	allowed, err := s.authz.CanAccess(ctx, learnerID, c.Category)
	if err != nil {
		return fmt.Errorf("check access: %w", err)
	}
	if !allowed {
		return fmt.Errorf("category %s: %w", c.Category, domain.ErrAccessDenied)
	}

	if len(c.SubCategories) == 0 {
		return nil
	}

	known, err := s.subCategories(ctx, c.Category)
	if err != nil {
		return err
	}
	for _, want := range c.SubCategories {
		if _, ok := known[want]; !ok {
			return fmt.Errorf("sub-category %q in %s: %w", want, c.Category, domain.ErrNotFound)
		}
	}
	return nil
}

// subCategories returns the sub-category set of a category, served from
// the cache when possible.
func (s *Service) subCategories(ctx context.Context, category domain.Category) (map[string]struct{}, error) {
	subs, ok := s.cache.get(category.String())
	if !ok {
		var err error
		subs, err = s.questions.ListSubCategories(ctx, category)
		if err != nil {
			return nil, s.catalogErr("list sub-categories", err)
		}
		if len(subs) == 0 {
			return nil, fmt.Errorf("category %s: %w", category, domain.ErrNotFound)
		}
		s.cache.put(category.String(), subs)
	}

	set := make(map[string]struct{}, len(subs))
	for _, sc := range subs {
		set[sc] = struct{}{}
	}
	return set, nil
}

// catalogErr maps repository failures to the catalog-unavailable sentinel,
// letting NotFound pass through unchanged.
func (s *Service) catalogErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrCatalogUnavailable)
}
