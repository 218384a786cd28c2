// Package booking implements the reservation admission engine: the ordered
// validation pipeline a booking request must pass, the overlap/quota read
// queries behind it, and the commit that ties admission to persistence.
package booking

import (
	"context"
	"fmt"
	"time"

	"thangd/civiltime"
	"thangd/errs"
	"thangd/models"
	"thangd/store"
	"thangd/utils"
)

// Clock abstracts now() so the expiry and quota checks are testable.
type Clock interface {
	Now() int64
}

type SystemClock struct{}

func (SystemClock) Now() int64 { return civiltime.Now() }

type Service struct {
	store store.Store
	clock Clock
}

func NewService(st store.Store, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{store: st, clock: clock}
}

// CreateRequest is a booking request in civil time, as received from the
// transport layer.
type CreateRequest struct {
	ThangID string       `json:"thang"`
	From    civiltime.Dt `json:"from"`
	To      civiltime.Dt `json:"to"`
	UserID  string       `json:"-"`
}

// Create runs the admission pipeline in fixed order; the first failing check
// aborts. On success the booking is persisted and the requester is added to
// the thang's user set.
//
// The overlap check and the insert are not transactional: two concurrent
// requests for intersecting windows can both pass the check before either
// commits. Accepted best-effort model; hardening would need a conditional
// insert keyed on a canonical interval.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	// 1. resolve resource
	thang, err := s.store.Thangs().Get(ctx, req.ThangID)
	if err == store.ErrNotFound {
		return nil, errs.Newf(errs.CodeNotFound, "no thang with id %q", req.ThangID)
	}
	if err != nil {
		return nil, err
	}
	if thang.Deleted {
		return nil, errs.Newf(errs.CodeNotFound, "no thang with id %q", req.ThangID)
	}

	// 2. temporal validity
	from, okFrom := req.From.Timestamp()
	to, okTo := req.To.Timestamp()
	if !okFrom || !okTo {
		return nil, errs.New(errs.CodeInvalidInput, "invalid date")
	}
	if from >= to {
		return nil, errs.New(errs.CodeInvalidInput, "from must precede to")
	}

	// 3. range bounds
	if thang.Range.Last != nil && to > *thang.Range.Last {
		return nil, errs.New(errs.CodeInvalidInput, "booking ends after the thang's last bookable instant")
	}
	if thang.Range.First != nil && from < *thang.Range.First {
		return nil, errs.New(errs.CodeInvalidInput, "booking starts before the thang's first bookable instant")
	}

	// 4. weekday mask
	if !thang.Weekdays.Enabled(civiltime.Weekday(from)) || !thang.Weekdays.Enabled(civiltime.Weekday(to)) {
		return nil, errs.New(errs.CodeInvalidInput, "weekday not bookable")
	}

	// 5. lifetime quota
	if err := s.checkLifetimeQuota(ctx, thang, req.UserID, from, to); err != nil {
		return nil, err
	}

	// 6. daily quota
	if err := s.checkDailyQuota(ctx, thang, req.UserID, from, to); err != nil {
		return nil, err
	}

	// 7. slot alignment
	if err := checkSlotAligned(thang.Slots, req.From); err != nil {
		return nil, err
	}
	if err := checkSlotAligned(thang.Slots, req.To); err != nil {
		return nil, err
	}

	// 8. expiry, evaluated in the thang's own zone. The civil fields were
	// read as UTC in step 2; this check reads the same fields as wall time
	// in the resource zone instead. The split is inherited behaviour, kept
	// until product intent is clarified.
	loc, err := time.LoadLocation(thang.Timezone)
	if err != nil {
		return nil, fmt.Errorf("thang %s has unloadable timezone %q: %w", thang.ID, thang.Timezone, err)
	}
	nowLocal := time.UnixMilli(s.clock.Now()).In(loc)
	if !req.From.InZone(loc).After(nowLocal) {
		return nil, errs.New(errs.CodeInvalidInput, "booking start has already passed")
	}

	// 9. overlap
	existing, err := s.store.Bookings().InInterval(ctx, thang.ID, from, to)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, errs.New(errs.CodeDuplicate, "window already booked")
	}

	// 10. commit
	b := &models.Booking{
		ID:    utils.NewID(),
		Thang: thang.ID,
		Owner: req.UserID,
		From:  from,
		To:    to,
	}
	if err := s.store.Bookings().Insert(ctx, b); err != nil {
		return nil, err
	}
	if err := s.store.Thangs().AddUser(ctx, thang.ID, req.UserID); err != nil {
		return nil, err
	}
	return b, nil
}

// checkSlotAligned verifies the civil time falls on the thang's slot grid:
// the offset from the grid start must be a whole number of slots and at most
// num slots in (the end of the last slot is a legal boundary).
func checkSlotAligned(grid models.Slots, dt civiltime.Dt) error {
	off := dt.MinuteOfDay() - grid.Start
	if off < 0 || off%grid.Size != 0 || off/grid.Size > grid.Num {
		return errs.Newf(errs.CodeInvalidInput, "%02d:%02d not on the slot grid", dt.Hour, dt.Minute)
	}
	return nil
}

// Delete soft-deletes a booking. The requester must own the booking or the
// thang it sits on. Unknown or already-deleted ids report zero affected.
func (s *Service) Delete(ctx context.Context, id, userID string) (int64, error) {
	b, err := s.store.Bookings().Get(ctx, id)
	if err == store.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if b.Deleted {
		return 0, nil
	}
	if b.Owner != userID {
		thang, terr := s.store.Thangs().Get(ctx, b.Thang)
		if terr != nil && terr != store.ErrNotFound {
			return 0, terr
		}
		if thang == nil || !thang.IsOwner(userID) {
			return 0, errs.New(errs.CodePermissions, "not your booking")
		}
	}
	return s.store.Bookings().SoftDelete(ctx, id)
}

// List returns the thang's non-deleted bookings intersecting [from, to).
func (s *Service) List(ctx context.Context, thangID string, from, to int64) ([]models.Booking, error) {
	return s.store.Bookings().InInterval(ctx, thangID, from, to)
}
