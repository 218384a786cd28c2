package thang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thangd/errs"
	"thangd/models"
	"thangd/store/memstore"
)

func ptr[T any](v T) *T { return &v }

func TestCreateDefaults(t *testing.T) {
	svc := NewService(memstore.New())

	got, err := svc.Create(context.Background(), "  Court A  ", "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Court A", got.Name)
	assert.Equal(t, []string{"u1"}, got.Owners)
	assert.Equal(t, []string{"u1"}, got.Users)
	assert.Equal(t, "UTC", got.Timezone)
	assert.Equal(t, models.AllWeekdays(), got.Weekdays)
	assert.Equal(t, models.Slots{Start: 0, Size: 60, Num: 24}, got.Slots)
	assert.Nil(t, got.Range.First)
	assert.Nil(t, got.Range.Last)
	assert.NotZero(t, got.CreatedAt)
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc := NewService(memstore.New())
	_, err := svc.Create(context.Background(), "   ", "u1")
	assert.Equal(t, errs.CodeInvalidInput, errs.CodeOf(err))
}

func TestGetHidesDeleted(t *testing.T) {
	st := memstore.New()
	svc := NewService(st)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Court A", "u1")
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, "nope")
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))

	_, err = svc.Delete(ctx, created.ID, "u1")
	require.NoError(t, err)
	_, err = svc.Get(ctx, created.ID)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}

func TestUpdateAppliesPartialPatch(t *testing.T) {
	st := memstore.New()
	svc := NewService(st)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Court A", "u1")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, models.ThangPatch{
		Timezone: ptr("Europe/Berlin"),
		Slots:    &models.Slots{Start: 480, Size: 30, Num: 16},
	}, "u1")
	require.NoError(t, err)

	// touched fields change, everything else stays
	assert.Equal(t, "Europe/Berlin", updated.Timezone)
	assert.Equal(t, models.Slots{Start: 480, Size: 30, Num: 16}, updated.Slots)
	assert.Equal(t, "Court A", updated.Name)
	assert.Equal(t, models.AllWeekdays(), updated.Weekdays)

	stored, err := st.Thangs().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", stored.Timezone)
}

func TestUpdateValidation(t *testing.T) {
	st := memstore.New()
	svc := NewService(st)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Court A", "u1")
	require.NoError(t, err)

	cases := []struct {
		name  string
		patch models.ThangPatch
	}{
		{"blank name", models.ThangPatch{Name: ptr("   ")}},
		{"unknown timezone", models.ThangPatch{Timezone: ptr("Mars/Olympus_Mons")}},
		{"negative restriction", models.ThangPatch{UserRestrictions: &models.UserRestrictions{MaxBookingMinutes: -1}}},
		{"zero slot size", models.ThangPatch{Slots: &models.Slots{Start: 0, Size: 0, Num: 10}}},
		{"grid longer than a day", models.ThangPatch{Slots: &models.Slots{Start: 0, Size: 60, Num: 25}}},
		{"inverted range", models.ThangPatch{Range: &models.Range{First: ptr(int64(200)), Last: ptr(int64(100))}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(ctx, created.ID, tc.patch, "u1")
			assert.Equal(t, errs.CodeInvalidInput, errs.CodeOf(err))
		})
	}

	// nothing was written by the rejected patches
	stored, err := st.Thangs().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Court A", stored.Name)
	assert.Equal(t, models.Slots{Start: 0, Size: 60, Num: 24}, stored.Slots)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	svc := NewService(memstore.New())
	ctx := context.Background()

	created, err := svc.Create(ctx, "Court A", "u1")
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, models.ThangPatch{Name: ptr("Hijacked")}, "u2")
	assert.Equal(t, errs.CodePermissions, errs.CodeOf(err))
}

func TestDelete(t *testing.T) {
	svc := NewService(memstore.New())
	ctx := context.Background()

	created, err := svc.Create(ctx, "Court A", "u1")
	require.NoError(t, err)

	// non-owner is refused before anything changes
	_, err = svc.Delete(ctx, created.ID, "u2")
	assert.Equal(t, errs.CodePermissions, errs.CodeOf(err))

	n, err := svc.Delete(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// idempotent from here on, even for strangers
	n, err = svc.Delete(ctx, created.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = svc.Delete(ctx, "nope", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMineListsOwnedOnly(t *testing.T) {
	svc := NewService(memstore.New())
	ctx := context.Background()

	mine, err := svc.Create(ctx, "Court A", "u1")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Court B", "u2")
	require.NoError(t, err)
	gone, err := svc.Create(ctx, "Court C", "u1")
	require.NoError(t, err)
	_, err = svc.Delete(ctx, gone.ID, "u1")
	require.NoError(t, err)

	got, err := svc.Mine(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)
}
