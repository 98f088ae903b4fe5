package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/pkg/ctxutil"
)

// catalogService defines the minimal interface needed by CatalogHandler.
type catalogService interface {
	Pool(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, limit int) ([]domain.QuestionWithRecord, error)
	CreateQuestion(ctx context.Context, q *domain.Question) (*domain.Question, error)
}

// CatalogHandler serves the question catalog REST endpoints.
type CatalogHandler struct {
	svc catalogService
	log *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(svc catalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, log: logger.With("handler", "catalog")}
}

// Register attaches the catalog routes to mux.
func (h *CatalogHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/questions", h.ListQuestions)
	mux.HandleFunc("POST /api/v1/questions", h.CreateQuestion)
}

type createQuestionRequest struct {
	Category    string           `json:"category"`
	SubCategory string           `json:"subCategory"`
	Type        string           `json:"type"`
	Difficulty  int              `json:"difficulty"`
	Text        string           `json:"text"`
	ImageRef    *string          `json:"imageRef,omitempty"`
	Answers     []answerResponse `json:"answers"`
	Regulation  *string          `json:"regulation,omitempty"`
	Hint        *string          `json:"hint,omitempty"`
}

// ListQuestions handles GET /api/v1/questions. Filters come from query
// parameters; the learner's own scheduling state is joined in when the
// request is authenticated.
func (h *CatalogHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	learnerID, _ := ctxutil.LearnerIDFromCtx(r.Context())

	q := r.URL.Query()
	criteria := domain.Criteria{
		Category:   domain.Category(q.Get("category")),
		Regulation: domain.RegulationFilter(q.Get("regulation")),
	}
	if sub := q.Get("subCategory"); sub != "" {
		criteria.SubCategories = []string{sub}
	}

	questions, err := h.svc.Pool(r.Context(), learnerID, criteria, queryInt(r, "limit", 100))
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	out := make([]questionResponse, 0, len(questions))
	for _, qr := range questions {
		out = append(out, toQuestionResponse(qr))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateQuestion handles POST /api/v1/questions. Content authoring is
// restricted to authenticated learners.
func (h *CatalogHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	if _, ok := ctxutil.LearnerIDFromCtx(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q := &domain.Question{
		Category:    domain.Category(req.Category),
		SubCategory: req.SubCategory,
		Type:        domain.QuestionType(req.Type),
		Difficulty:  req.Difficulty,
		Text:        req.Text,
		ImageRef:    req.ImageRef,
		Hint:        req.Hint,
	}
	if req.Regulation != nil {
		reg := domain.Regulation(*req.Regulation)
		q.Regulation = &reg
	}
	for _, a := range req.Answers {
		q.Answers = append(q.Answers, domain.Answer{Text: a.Text, Correct: a.Correct})
	}

	created, err := h.svc.CreateQuestion(r.Context(), q)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toQuestionResponse(domain.QuestionWithRecord{Question: created}))
}
