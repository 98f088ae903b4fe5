package domain

import (
	"testing"
	"time"
)

func TestMemoryRecord_IsDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record MemoryRecord
		want   bool
	}{
		{
			name:   "overdue record is due",
			record: MemoryRecord{NextReviewAt: now.Add(-time.Hour)},
			want:   true,
		},
		{
			name:   "exactly at next_review_at is due",
			record: MemoryRecord{NextReviewAt: now},
			want:   true,
		},
		{
			name:   "future next_review_at is not due",
			record: MemoryRecord{NextReviewAt: now.Add(time.Hour)},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.record.IsDue(now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_IsValid(t *testing.T) {
	t.Parallel()

	for s := Score(1); s <= 5; s++ {
		if !s.IsValid() {
			t.Errorf("Score(%d).IsValid() = false, want true", s)
		}
	}
	for _, s := range []Score{0, -1, 6, 42} {
		if s.IsValid() {
			t.Errorf("Score(%d).IsValid() = true, want false", s)
		}
	}
}

func TestScore_Recalled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score Score
		want  bool
	}{
		{1, false},
		{2, false},
		{3, false},
		{4, true},
		{5, true},
	}
	for _, tt := range tests {
		if got := tt.score.Recalled(); got != tt.want {
			t.Errorf("Score(%d).Recalled() = %v, want %v", tt.score, got, tt.want)
		}
	}
}
