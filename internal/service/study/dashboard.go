package study

import (
	"context"
	"fmt"
	"time"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/pkg/ctxutil"
)

// GetDashboard returns aggregated study statistics for the learner.
func (s *Service) GetDashboard(ctx context.Context) (domain.Dashboard, error) {
	learnerID, ok := ctxutil.LearnerIDFromCtx(ctx)
	if !ok {
		return domain.Dashboard{}, domain.ErrUnauthorized
	}

	now := s.clock.Now()
	dayStart := DayStart(now)

	dueCount, err := s.records.CountDue(ctx, learnerID, now)
	if err != nil {
		return domain.Dashboard{}, s.storeErr("count due records", err)
	}

	newCount, err := s.pool.CountNew(ctx, learnerID)
	if err != nil {
		return domain.Dashboard{}, s.storeErr("count new questions", err)
	}

	reviewedToday, err := s.reviews.CountSince(ctx, learnerID, dayStart)
	if err != nil {
		return domain.Dashboard{}, s.storeErr("count reviewed today", err)
	}

	streakDays, err := s.reviews.GetStreakDays(ctx, learnerID, dayStart, 365)
	if err != nil {
		return domain.Dashboard{}, s.storeErr("get streak days", err)
	}

	dash := domain.Dashboard{
		DueCount:      dueCount,
		NewCount:      newCount,
		ReviewedToday: reviewedToday,
		Streak:        calculateStreak(streakDays, dayStart),
	}

	for box := 1; box <= domain.MaxBoxNumber; box++ {
		records, err := s.records.GetByBox(ctx, learnerID, box)
		if err != nil {
			return domain.Dashboard{}, s.storeErr(fmt.Sprintf("get box %d records", box), err)
		}
		dash.BoxCounts[box-1] = len(records)
	}

	return dash, nil
}

// DayStart returns the UTC start of the day containing now.
func DayStart(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// calculateStreak counts consecutive days with at least one review,
// walking backwards from today. A day without reviews ends the streak;
// today itself only counts once a review has happened.
func calculateStreak(days []domain.DayReviewCount, today time.Time) int {
	byDate := make(map[string]int, len(days))
	for _, d := range days {
		byDate[d.Date.UTC().Format("2006-01-02")] = d.Count
	}

	streak := 0
	cursor := today
	if byDate[cursor.Format("2006-01-02")] == 0 {
		// No review yet today: the streak may still be alive from yesterday.
		cursor = cursor.AddDate(0, 0, -1)
	}
	for byDate[cursor.Format("2006-01-02")] > 0 {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}
