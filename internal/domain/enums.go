package domain

// Category is the top-level training category of a question.
type Category string

const (
	CategorySignal     Category = "SIGNAL"
	CategoryOperations Category = "OPERATIONS"
)

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	switch c {
	case CategorySignal, CategoryOperations:
		return true
	}
	return false
}

// QuestionType represents how a question is answered.
type QuestionType string

const (
	QuestionTypeOpen     QuestionType = "OPEN"
	QuestionTypeMCSingle QuestionType = "MC_SINGLE"
	QuestionTypeMCMulti  QuestionType = "MC_MULTI"
)

func (t QuestionType) String() string { return string(t) }

func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionTypeOpen, QuestionTypeMCSingle, QuestionTypeMCMulti:
		return true
	}
	return false
}

// Regulation tags a question with the rule book it belongs to.
// RegulationBoth marks content valid under either rule book.
type Regulation string

const (
	RegulationDS301 Regulation = "DS301"
	RegulationDV301 Regulation = "DV301"
	RegulationBoth  Regulation = "BOTH"
)

func (r Regulation) String() string { return string(r) }

func (r Regulation) IsValid() bool {
	switch r {
	case RegulationDS301, RegulationDV301, RegulationBoth:
		return true
	}
	return false
}

// RegulationFilter selects which regulation tags a learner wants to study.
// Unlike Regulation it has an ALL value that matches every tag.
type RegulationFilter string

const (
	RegulationFilterDS301 RegulationFilter = "DS301"
	RegulationFilterDV301 RegulationFilter = "DV301"
	RegulationFilterBoth  RegulationFilter = "BOTH"
	RegulationFilterAll   RegulationFilter = "ALL"
)

func (f RegulationFilter) String() string { return string(f) }

func (f RegulationFilter) IsValid() bool {
	switch f {
	case RegulationFilterDS301, RegulationFilterDV301, RegulationFilterBoth, RegulationFilterAll:
		return true
	}
	return false
}

// Matches reports whether a question with the given tag passes this filter.
// A question tagged BOTH passes every filter; the ALL filter passes everything.
func (f RegulationFilter) Matches(tag Regulation) bool {
	if f == RegulationFilterAll {
		return true
	}
	if tag == RegulationBoth {
		return true
	}
	return string(f) == string(tag)
}

// SessionStatus represents the lifecycle state of a learning session.
type SessionStatus string

const (
	SessionStatusLoading   SessionStatus = "LOADING"
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusFailed    SessionStatus = "FAILED"
	SessionStatusAbandoned SessionStatus = "ABANDONED"
)

func (s SessionStatus) String() string { return string(s) }

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusLoading, SessionStatusActive, SessionStatusCompleted,
		SessionStatusFailed, SessionStatusAbandoned:
		return true
	}
	return false
}
