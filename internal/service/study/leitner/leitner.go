// Package leitner implements the pure memory-model transition for the
// spaced-repetition scheduler: a Leitner box progression with an
// SM-2-style ease factor governing interval growth.
package leitner

import (
	"time"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

// Config holds the Leitner scheduling parameters.
type Config struct {
	DefaultEase            float64
	MinEase                float64
	EaseBonus              float64
	EasePenalty            float64
	MaxBox                 int
	MinIntervalDays        int
	MaxIntervalDays        int
	GraduatingIntervalDays int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultEase:            2.5,
		MinEase:                1.3,
		EaseBonus:              0.05,
		EasePenalty:            0.15,
		MaxBox:                 domain.MaxBoxNumber,
		MinIntervalDays:        1,
		MaxIntervalDays:        365,
		GraduatingIntervalDays: 1,
	}
}

// Apply computes the next memory state for one answered question.
// Pure function: no DB, no clock reads, no mutation of prev.
//
// prev == nil means first exposure: the returned record starts in box 1
// regardless of score; an immediately correct first answer never jumps
// boxes, it only seeds the counters and the graduating interval.
//
// Callers must validate the score (1..5) before calling; Apply treats an
// out-of-range score like its nearest valid neighbour but the service
// layer rejects such input loudly instead of ever reaching this point.
func Apply(prev *domain.MemoryRecord, score domain.Score, now time.Time, cfg Config) domain.MemoryRecord {
	if prev == nil {
		return firstExposure(score, now, cfg)
	}

	next := *prev
	next.RepetitionCount++
	next.LastReviewedAt = now

	if score.Recalled() {
		next.BoxNumber = minInt(prev.BoxNumber+1, cfg.MaxBox)
		next.IntervalDays = grownInterval(prev.IntervalDays, prev.EaseFactor, cfg)
		next.EaseFactor = adjustEase(prev.EaseFactor, score, cfg)
		next.CorrectCount++
		next.Streak++
	} else {
		// Failed recall resets the box fully, not by one step.
		next.BoxNumber = 1
		next.IntervalDays = cfg.MinIntervalDays
		next.EaseFactor = adjustEase(prev.EaseFactor, score, cfg)
		next.IncorrectCount++
		next.Streak = 0
	}

	next.NextReviewAt = now.Add(time.Duration(next.IntervalDays) * 24 * time.Hour)
	return next
}

func firstExposure(score domain.Score, now time.Time, cfg Config) domain.MemoryRecord {
	rec := domain.MemoryRecord{
		BoxNumber:       1,
		EaseFactor:      cfg.DefaultEase,
		RepetitionCount: 1,
		LastReviewedAt:  now,
	}

	if score.Recalled() {
		rec.IntervalDays = cfg.GraduatingIntervalDays
		rec.EaseFactor = adjustEase(cfg.DefaultEase, score, cfg)
		rec.CorrectCount = 1
		rec.Streak = 1
	} else {
		rec.IntervalDays = cfg.MinIntervalDays
		rec.EaseFactor = adjustEase(cfg.DefaultEase, score, cfg)
		rec.IncorrectCount = 1
	}

	rec.NextReviewAt = now.Add(time.Duration(rec.IntervalDays) * 24 * time.Hour)
	return rec
}

// grownInterval scales the interval by the ease factor, guaranteeing
// growth of at least one day and capping at the configured maximum.
func grownInterval(interval int, ease float64, cfg Config) int {
	if interval < cfg.MinIntervalDays {
		interval = cfg.MinIntervalDays
	}
	grown := int(float64(interval) * ease)
	if grown <= interval {
		grown = interval + 1
	}
	return minInt(grown, cfg.MaxIntervalDays)
}

// adjustEase nudges the ease factor per answer: a perfect recall earns the
// bonus, a failed recall pays the penalty, a plain correct answer leaves
// it unchanged. The result never drops below MinEase.
func adjustEase(ease float64, score domain.Score, cfg Config) float64 {
	switch {
	case score == domain.ScoreMax:
		ease += cfg.EaseBonus
	case !score.Recalled():
		ease -= cfg.EasePenalty
	}
	if ease < cfg.MinEase {
		ease = cfg.MinEase
	}
	return ease
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
