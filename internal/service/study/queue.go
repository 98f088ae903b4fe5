package study

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

// resolveQueue produces the ordered question list for one session.
//
// Non-practice mode gathers due reviews first (oldest overdue first, ties
// broken by question id) and backfills with new questions up to the batch
// size. New questions are shuffled with the session id as seed, so a
// session resolves the same order every time it is rebuilt. Practice mode
// bypasses the due gate and draws from the full filtered pool; a box
// override browses one box directly.
//
// An empty result is a valid empty queue, never an error.
func (s *Service) resolveQueue(ctx context.Context, learnerID uuid.UUID, c domain.Criteria, seed uuid.UUID) ([]domain.QuestionWithRecord, error) {
	c = c.Normalized(s.defaultBatchSize)

	if c.Box > 0 {
		queue, err := s.pool.Box(ctx, learnerID, c, c.Box, c.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("resolve box queue: %w", err)
		}
		sortDue(queue)
		return queue, nil
	}

	if c.Practice {
		queue, err := s.pool.Pool(ctx, learnerID, c, c.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("resolve practice queue: %w", err)
		}
		shuffleSeeded(queue, seed)
		return queue, nil
	}

	now := s.clock.Now()

	due, err := s.pool.Due(ctx, learnerID, c, now, c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("resolve due questions: %w", err)
	}
	sortDue(due)

	queue := due
	if remaining := c.BatchSize - len(due); remaining > 0 {
		fresh, err := s.pool.New(ctx, learnerID, c, remaining)
		if err != nil {
			return nil, fmt.Errorf("resolve new questions: %w", err)
		}
		shuffleSeeded(fresh, seed)
		queue = append(queue, fresh...)
	}

	if len(queue) > c.BatchSize {
		queue = queue[:c.BatchSize]
	}
	return queue, nil
}

// sortDue orders by ascending next review time; ties fall back to the
// question id so the order is fully deterministic.
func sortDue(items []domain.QuestionWithRecord) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.Record == nil && b.Record == nil:
			return a.Question.ID.String() < b.Question.ID.String()
		case a.Record == nil:
			return false
		case b.Record == nil:
			return true
		}
		if !a.Record.NextReviewAt.Equal(b.Record.NextReviewAt) {
			return a.Record.NextReviewAt.Before(b.Record.NextReviewAt)
		}
		return a.Question.ID.String() < b.Question.ID.String()
	})
}

// shuffleSeeded shuffles in place with a PRNG seeded from the session id,
// making session queues reproducible.
func shuffleSeeded(items []domain.QuestionWithRecord, seed uuid.UUID) {
	src := rand.NewSource(int64(binary.BigEndian.Uint64(seed[:8])))
	rng := rand.New(src)
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
