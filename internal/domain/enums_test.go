package domain

import "testing"

func TestCategory_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category Category
		want     bool
	}{
		{CategorySignal, true},
		{CategoryOperations, true},
		{Category("INVALID"), false},
		{Category(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			t.Parallel()
			if got := tt.category.IsValid(); got != tt.want {
				t.Errorf("Category(%q).IsValid() = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestQuestionType_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  QuestionType
		want bool
	}{
		{QuestionTypeOpen, true},
		{QuestionTypeMCSingle, true},
		{QuestionTypeMCMulti, true},
		{QuestionType("INVALID"), false},
		{QuestionType(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			t.Parallel()
			if got := tt.typ.IsValid(); got != tt.want {
				t.Errorf("QuestionType(%q).IsValid() = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestRegulationFilter_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter RegulationFilter
		tag    Regulation
		want   bool
	}{
		{"ALL matches DS301", RegulationFilterAll, RegulationDS301, true},
		{"ALL matches DV301", RegulationFilterAll, RegulationDV301, true},
		{"ALL matches BOTH", RegulationFilterAll, RegulationBoth, true},
		{"BOTH tag matches DS301 filter", RegulationFilterDS301, RegulationBoth, true},
		{"BOTH tag matches DV301 filter", RegulationFilterDV301, RegulationBoth, true},
		{"DS301 filter matches DS301 tag", RegulationFilterDS301, RegulationDS301, true},
		{"DS301 filter rejects DV301 tag", RegulationFilterDS301, RegulationDV301, false},
		{"DV301 filter rejects DS301 tag", RegulationFilterDV301, RegulationDS301, false},
		{"BOTH filter matches BOTH tag", RegulationFilterBoth, RegulationBoth, true},
		{"BOTH filter rejects DS301 tag", RegulationFilterBoth, RegulationDS301, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.filter.Matches(tt.tag); got != tt.want {
				t.Errorf("RegulationFilter(%q).Matches(%q) = %v, want %v", tt.filter, tt.tag, got, tt.want)
			}
		})
	}
}

func TestSessionStatus_IsValid(t *testing.T) {
	t.Parallel()

	valid := []SessionStatus{
		SessionStatusLoading, SessionStatusActive, SessionStatusCompleted,
		SessionStatusFailed, SessionStatusAbandoned,
	}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("SessionStatus(%q).IsValid() = false, want true", s)
		}
	}
	if SessionStatus("DONE").IsValid() {
		t.Error(`SessionStatus("DONE").IsValid() = true, want false`)
	}
}
