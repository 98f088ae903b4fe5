package study

import (
	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

// StartSessionInput holds the parameters for starting a session.
type StartSessionInput struct {
	Criteria domain.Criteria
}

// Validate checks all fields and collects all errors.
func (i *StartSessionInput) Validate() error {
	return i.Criteria.Validate()
}

// SubmitAnswerInput holds the parameters for answering the current question.
type SubmitAnswerInput struct {
	SessionID uuid.UUID
	Score     domain.Score
}

// Validate checks all fields and collects all errors.
// An out-of-range score is a contract violation and fails loudly here;
// it is never clamped, since clamping would corrupt retention statistics.
func (i *SubmitAnswerInput) Validate() error {
	var errs []domain.FieldError

	if i.SessionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "session_id", Message: "required"})
	}
	if !i.Score.IsValid() {
		errs = append(errs, domain.FieldError{Field: "score", Message: "must be between 1 and 5"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
