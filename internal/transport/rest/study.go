package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/service/study"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/pkg/ctxutil"
)

// studyService defines the minimal interface needed by StudyHandler.
type studyService interface {
	StartSession(ctx context.Context, input study.StartSessionInput) (study.View, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (study.View, error)
	SubmitAnswer(ctx context.Context, input study.SubmitAnswerInput) (study.View, error)
	Advance(ctx context.Context, sessionID uuid.UUID) (study.View, error)
	Restart(ctx context.Context, sessionID uuid.UUID) (study.View, error)
	Abandon(ctx context.Context, sessionID uuid.UUID) error
	Summary(sessionID uuid.UUID) (domain.SessionSummary, error)
	FlushPendingUpdates(ctx context.Context, sessionID, learnerID uuid.UUID) error
	GetDashboard(ctx context.Context) (domain.Dashboard, error)
	ReviewHistory(ctx context.Context, questionID uuid.UUID, limit int) ([]*domain.ReviewLog, error)
	RecentSessions(ctx context.Context, limit int) ([]*domain.StudySession, error)
}

// StudyHandler serves the session and dashboard REST endpoints.
type StudyHandler struct {
	svc studyService
	log *slog.Logger
}

// NewStudyHandler creates a StudyHandler.
func NewStudyHandler(svc studyService, logger *slog.Logger) *StudyHandler {
	return &StudyHandler{svc: svc, log: logger.With("handler", "study")}
}

// Register attaches the study routes to mux.
func (h *StudyHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/study/sessions", h.StartSession)
	mux.HandleFunc("GET /api/v1/study/sessions", h.RecentSessions)
	mux.HandleFunc("GET /api/v1/study/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /api/v1/study/sessions/{id}", h.Abandon)
	mux.HandleFunc("POST /api/v1/study/sessions/{id}/answers", h.SubmitAnswer)
	mux.HandleFunc("POST /api/v1/study/sessions/{id}/advance", h.Advance)
	mux.HandleFunc("POST /api/v1/study/sessions/{id}/restart", h.Restart)
	mux.HandleFunc("GET /api/v1/study/sessions/{id}/summary", h.Summary)
	mux.HandleFunc("POST /api/v1/study/sessions/{id}/claim", h.Claim)
	mux.HandleFunc("GET /api/v1/study/dashboard", h.Dashboard)
	mux.HandleFunc("GET /api/v1/study/questions/{id}/history", h.ReviewHistory)
}

type startSessionRequest struct {
	Category      string   `json:"category"`
	SubCategories []string `json:"subCategories,omitempty"`
	Regulation    string   `json:"regulation,omitempty"`
	Practice      bool     `json:"practice,omitempty"`
	Box           int      `json:"box,omitempty"`
	BatchSize     int      `json:"batchSize,omitempty"`
}

type submitAnswerRequest struct {
	Score int `json:"score"`
}

type answerResponse struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

type questionResponse struct {
	ID          string           `json:"id"`
	Category    string           `json:"category"`
	SubCategory string           `json:"subCategory"`
	Type        string           `json:"type"`
	Difficulty  int              `json:"difficulty"`
	Text        string           `json:"text"`
	ImageRef    *string          `json:"imageRef,omitempty"`
	Answers     []answerResponse `json:"answers"`
	Regulation  *string          `json:"regulation,omitempty"`
	Hint        *string          `json:"hint,omitempty"`
	New         bool             `json:"new"`
	Box         int              `json:"box,omitempty"`
	NextReview  *time.Time       `json:"nextReviewAt,omitempty"`
}

type sessionResponse struct {
	ID             string             `json:"id"`
	Status         string             `json:"status"`
	CurrentIndex   int                `json:"currentIndex"`
	CorrectCount   int                `json:"correctCount"`
	TotalQuestions int                `json:"totalQuestions"`
	Questions      []questionResponse `json:"questions"`
}

type summaryResponse struct {
	CorrectCount   int  `json:"correctCount"`
	TotalQuestions int  `json:"totalQuestions"`
	Completed      bool `json:"completed"`
}

type dashboardResponse struct {
	DueCount      int   `json:"dueCount"`
	NewCount      int   `json:"newCount"`
	ReviewedToday int   `json:"reviewedToday"`
	Streak        int   `json:"streak"`
	BoxCounts     []int `json:"boxCounts"`
}

type reviewLogResponse struct {
	QuestionID string    `json:"questionId"`
	Score      int       `json:"score"`
	PrevBox    int       `json:"prevBox"`
	NewBox     int       `json:"newBox"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

type persistedSessionResponse struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Category     string     `json:"category"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	Answered     *int       `json:"totalAnswered,omitempty"`
	CorrectCount *int       `json:"correctCount,omitempty"`
	AccuracyRate *float64   `json:"accuracyRate,omitempty"`
}

// StartSession handles POST /api/v1/study/sessions.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.svc.StartSession(r.Context(), study.StartSessionInput{
		Criteria: domain.Criteria{
			Category:      domain.Category(req.Category),
			SubCategories: req.SubCategories,
			Regulation:    domain.RegulationFilter(req.Regulation),
			Practice:      req.Practice,
			Box:           req.Box,
			BatchSize:     req.BatchSize,
		},
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(view))
}

// GetSession handles GET /api/v1/study/sessions/{id}.
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	view, err := h.svc.GetSession(r.Context(), id)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

// SubmitAnswer handles POST /api/v1/study/sessions/{id}/answers.
func (h *StudyHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.svc.SubmitAnswer(r.Context(), study.SubmitAnswerInput{
		SessionID: id,
		Score:     domain.Score(req.Score),
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

// Advance handles POST /api/v1/study/sessions/{id}/advance.
func (h *StudyHandler) Advance(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	view, err := h.svc.Advance(r.Context(), id)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

// Restart handles POST /api/v1/study/sessions/{id}/restart.
func (h *StudyHandler) Restart(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	view, err := h.svc.Restart(r.Context(), id)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

// Abandon handles DELETE /api/v1/study/sessions/{id}.
func (h *StudyHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	if err := h.svc.Abandon(r.Context(), id); err != nil {
		respondError(h.log, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/v1/study/sessions/{id}/summary.
func (h *StudyHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	summary, err := h.svc.Summary(id)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		CorrectCount:   summary.CorrectCount,
		TotalQuestions: summary.TotalQuestions,
		Completed:      summary.Completed,
	})
}

// Claim handles POST /api/v1/study/sessions/{id}/claim. A learner who
// signed in mid-session calls it to persist answers queued while they
// were still a guest.
func (h *StudyHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	learnerID, ok := ctxutil.LearnerIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.FlushPendingUpdates(r.Context(), id, learnerID); err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Dashboard handles GET /api/v1/study/dashboard.
func (h *StudyHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDashboard(r.Context())
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		DueCount:      d.DueCount,
		NewCount:      d.NewCount,
		ReviewedToday: d.ReviewedToday,
		Streak:        d.Streak,
		BoxCounts:     d.BoxCounts[:],
	})
}

// ReviewHistory handles GET /api/v1/study/questions/{id}/history.
func (h *StudyHandler) ReviewHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	logs, err := h.svc.ReviewHistory(r.Context(), id, queryInt(r, "limit", 50))
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	out := make([]reviewLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, reviewLogResponse{
			QuestionID: l.QuestionID.String(),
			Score:      int(l.Score),
			PrevBox:    l.PrevBox,
			NewBox:     l.NewBox,
			ReviewedAt: l.ReviewedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// RecentSessions handles GET /api/v1/study/sessions.
func (h *StudyHandler) RecentSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.RecentSessions(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	out := make([]persistedSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp := persistedSessionResponse{
			ID:         s.ID.String(),
			Status:     string(s.Status),
			Category:   string(s.Criteria.Category),
			StartedAt:  s.StartedAt,
			FinishedAt: s.FinishedAt,
		}
		if s.Result != nil {
			resp.Answered = &s.Result.TotalAnswered
			resp.CorrectCount = &s.Result.CorrectCount
			resp.AccuracyRate = &s.Result.AccuracyRate
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func toSessionResponse(view study.View) sessionResponse {
	questions := make([]questionResponse, 0, len(view.Questions))
	for _, qr := range view.Questions {
		questions = append(questions, toQuestionResponse(qr))
	}
	return sessionResponse{
		ID:             view.ID.String(),
		Status:         string(view.Status),
		CurrentIndex:   view.CurrentIndex,
		CorrectCount:   view.CorrectCount,
		TotalQuestions: view.TotalQuestions,
		Questions:      questions,
	}
}

func toQuestionResponse(qr domain.QuestionWithRecord) questionResponse {
	q := qr.Question
	resp := questionResponse{
		ID:          q.ID.String(),
		Category:    string(q.Category),
		SubCategory: q.SubCategory,
		Type:        string(q.Type),
		Difficulty:  q.Difficulty,
		Text:        q.Text,
		ImageRef:    q.ImageRef,
		Hint:        q.Hint,
		New:         qr.IsNew(),
	}
	if q.Regulation != nil {
		reg := string(*q.Regulation)
		resp.Regulation = &reg
	}
	resp.Answers = make([]answerResponse, 0, len(q.Answers))
	for _, a := range q.Answers {
		resp.Answers = append(resp.Answers, answerResponse{Text: a.Text, Correct: a.Correct})
	}
	if qr.Record != nil {
		resp.Box = qr.Record.BoxNumber
		next := qr.Record.NextReviewAt
		resp.NextReview = &next
	}
	return resp
}
