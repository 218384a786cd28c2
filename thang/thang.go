// Package thang manages bookable resources: creation, partial updates to
// the availability contract, and soft deletion.
package thang

import (
	"context"
	"strings"
	"time"

	"thangd/errs"
	"thangd/models"
	"thangd/store"
	"thangd/utils"
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Create makes the caller sole owner and initial user of a new thang.
func (s *Service) Create(ctx context.Context, name, creator string) (*models.Thang, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.New(errs.CodeInvalidInput, "name must not be blank")
	}
	t := models.NewThang(utils.NewID(), name, creator)
	t.CreatedAt = time.Now().UnixMilli()
	if err := s.store.Thangs().Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Thang, error) {
	t, err := s.store.Thangs().Get(ctx, id)
	if err == store.ErrNotFound {
		return nil, errs.Newf(errs.CodeNotFound, "no thang with id %q", id)
	}
	if err != nil {
		return nil, err
	}
	if t.Deleted {
		return nil, errs.Newf(errs.CodeNotFound, "no thang with id %q", id)
	}
	return t, nil
}

// Mine lists the non-deleted thangs the user owns.
func (s *Service) Mine(ctx context.Context, userID string) ([]models.Thang, error) {
	return s.store.Thangs().ByOwner(ctx, userID)
}

// Update validates every supplied field before any write, then applies the
// patch field by field; absent fields keep their stored values.
func (s *Service) Update(ctx context.Context, id string, patch models.ThangPatch, userID string) (*models.Thang, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsOwner(userID) {
		return nil, errs.New(errs.CodePermissions, "only owners may update a thang")
	}
	if err := validatePatch(&patch); err != nil {
		return nil, err
	}
	patch.Apply(t)
	if err := s.store.Thangs().Replace(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func validatePatch(p *models.ThangPatch) error {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		if trimmed == "" {
			return errs.New(errs.CodeInvalidInput, "name must not be blank")
		}
		p.Name = &trimmed
	}
	if p.Timezone != nil {
		if _, err := time.LoadLocation(*p.Timezone); err != nil {
			return errs.Newf(errs.CodeInvalidInput, "unknown timezone %q", *p.Timezone)
		}
	}
	if p.UserRestrictions != nil {
		if p.UserRestrictions.MaxBookingMinutes < 0 || p.UserRestrictions.MaxDailyBookingMinutes < 0 {
			return errs.New(errs.CodeInvalidInput, "restrictions must not be negative")
		}
	}
	if p.Slots != nil {
		if p.Slots.Start < 0 || p.Slots.Size <= 0 || p.Slots.Num <= 0 {
			return errs.New(errs.CodeInvalidInput, "slot grid values must be positive")
		}
		if p.Slots.Size*p.Slots.Num > 1440 {
			return errs.New(errs.CodeInvalidInput, "slot grid exceeds one day")
		}
	}
	if p.Range != nil && p.Range.First != nil && p.Range.Last != nil && *p.Range.First > *p.Range.Last {
		return errs.New(errs.CodeInvalidInput, "range first must not be after last")
	}
	return nil
}

// Delete soft-deletes an owned thang; unknown or already-deleted ids report
// zero affected without a permission check.
func (s *Service) Delete(ctx context.Context, id, userID string) (int64, error) {
	t, err := s.store.Thangs().Get(ctx, id)
	if err == store.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if t.Deleted {
		return 0, nil
	}
	if !t.IsOwner(userID) {
		return 0, errs.New(errs.CodePermissions, "only owners may delete a thang")
	}
	return s.store.Thangs().SoftDelete(ctx, id)
}
