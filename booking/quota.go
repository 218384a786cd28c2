package booking

import (
	"context"

	"thangd/civiltime"
	"thangd/errs"
	"thangd/models"
)

// checkLifetimeQuota sums the user's future bookings on the thang (from
// now() onward) plus the proposed window against maxBookingMinutes.
func (s *Service) checkLifetimeQuota(ctx context.Context, thang *models.Thang, userID string, from, to int64) error {
	limit := thang.UserRestrictions.MaxBookingMinutes
	if limit <= 0 {
		return nil
	}
	existing, err := s.store.Bookings().ForUserFrom(ctx, thang.ID, userID, s.clock.Now())
	if err != nil {
		return err
	}
	total := int((to - from) / 60000)
	for i := range existing {
		total += existing[i].Minutes()
	}
	if total > limit {
		return errs.Newf(errs.CodeInvalidInput, "%d minutes booked would exceed the %d minute limit", total, limit)
	}
	return nil
}

// checkDailyQuota apportions booked minutes across the calendar days each
// booking spans (a window crossing midnight contributes to every day it
// touches, in proportion to time-in-day) and rejects the request if any
// single day's total for this user would exceed maxDailyBookingMinutes.
func (s *Service) checkDailyQuota(ctx context.Context, thang *models.Thang, userID string, from, to int64) error {
	limit := thang.UserRestrictions.MaxDailyBookingMinutes
	if limit <= 0 {
		return nil
	}

	// Day span touched by the new booking; to is exclusive, so the last
	// touched instant is to-1.
	spanStart := civiltime.StartOfDay(from)
	spanEnd := civiltime.AddDays(civiltime.StartOfDay(to-1), 1)

	overlapping, err := s.store.Bookings().InInterval(ctx, thang.ID, spanStart, spanEnd)
	if err != nil {
		return err
	}
	windows := [][2]int64{{from, to}}
	for i := range overlapping {
		if overlapping[i].Owner == userID {
			windows = append(windows, [2]int64{overlapping[i].From, overlapping[i].To})
		}
	}

	for day := spanStart; day < spanEnd; day = civiltime.AddDays(day, 1) {
		total := 0
		for _, w := range windows {
			total += minutesInDay(w[0], w[1], day)
		}
		if total > limit {
			return errs.Newf(errs.CodeInvalidInput, "%d minutes on one day would exceed the %d minute daily limit", total, limit)
		}
	}
	return nil
}

// minutesInDay returns how many minutes of [from, to) fall inside the day
// bucket beginning at dayStart.
func minutesInDay(from, to, dayStart int64) int {
	dayEnd := civiltime.AddDays(dayStart, 1)
	lo, hi := from, to
	if lo < dayStart {
		lo = dayStart
	}
	if hi > dayEnd {
		hi = dayEnd
	}
	if hi <= lo {
		return 0
	}
	return int((hi - lo) / 60000)
}
