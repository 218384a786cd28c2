package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thangd/models"
	"thangd/store"
)

// Events are emitted synchronously into the watcher channel, so after a
// mutation returns the corresponding event is already buffered.
func next(t *testing.T, ch <-chan store.Change) store.Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	default:
		t.Fatal("expected a buffered change event")
		return store.Change{}
	}
}

func TestWatchMirrorsThangMutations(t *testing.T) {
	m := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := m.Watch(ctx, store.CollThangs)
	require.NoError(t, err)

	th := models.NewThang("t1", "Court A", "u1")
	require.NoError(t, m.Thangs().Insert(ctx, th))
	c := next(t, ch)
	assert.Equal(t, store.ChangeAdd, c.Kind)
	assert.Equal(t, "t1", c.ID)
	require.NotNil(t, c.Thang)

	th.Name = "Court A1"
	require.NoError(t, m.Thangs().Replace(ctx, th))
	c = next(t, ch)
	assert.Equal(t, store.ChangeUpdate, c.Kind)
	assert.Equal(t, "Court A1", c.Thang.Name)

	// replacing with the deleted flag set reads as a removal
	th.Deleted = true
	require.NoError(t, m.Thangs().Replace(ctx, th))
	c = next(t, ch)
	assert.Equal(t, store.ChangeRemove, c.Kind)
}

func TestAddUserIsIdempotent(t *testing.T) {
	m := New()
	ctx := context.Background()

	ch, err := m.Watch(ctx, store.CollThangs)
	require.NoError(t, err)

	require.NoError(t, m.Thangs().Insert(ctx, models.NewThang("t1", "Court A", "u1")))
	next(t, ch)

	require.NoError(t, m.Thangs().AddUser(ctx, "t1", "u2"))
	c := next(t, ch)
	assert.Equal(t, store.ChangeUpdate, c.Kind)
	assert.Equal(t, []string{"u1", "u2"}, c.Thang.Users)

	// the second add is a no-op and stays silent
	require.NoError(t, m.Thangs().AddUser(ctx, "t1", "u2"))
	assert.Empty(t, ch)

	assert.Equal(t, store.ErrNotFound, m.Thangs().AddUser(ctx, "nope", "u2"))
}

func TestSoftDeleteReportsAffected(t *testing.T) {
	m := New()
	ctx := context.Background()

	ch, err := m.Watch(ctx, store.CollBookings)
	require.NoError(t, err)

	require.NoError(t, m.Bookings().Insert(ctx, &models.Booking{ID: "b1", Thang: "t1", Owner: "u1", From: 0, To: 60000}))
	next(t, ch)

	n, err := m.Bookings().SoftDelete(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	c := next(t, ch)
	assert.Equal(t, store.ChangeRemove, c.Kind)
	require.NotNil(t, c.Booking)
	assert.True(t, c.Booking.Deleted)

	// repeated and unknown deletes affect nothing and emit nothing
	n, err = m.Bookings().SoftDelete(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	n, err = m.Bookings().SoftDelete(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Empty(t, ch)
}

func TestWatchClosesOnContextCancel(t *testing.T) {
	m := New()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := m.Watch(ctx, store.CollBookings)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watch channel did not close after cancel")
	}

	// a mutation after teardown must not panic on the closed channel
	require.NoError(t, m.Bookings().Insert(context.Background(), &models.Booking{ID: "b1", Thang: "t1"}))
}

func TestInIntervalHalfOpen(t *testing.T) {
	m := New()
	ctx := context.Background()

	seed := func(id string, from, to int64) {
		require.NoError(t, m.Bookings().Insert(ctx, &models.Booking{ID: id, Thang: "t1", Owner: "u1", From: from, To: to}))
	}
	seed("before", 0, 1000)
	seed("touching-start", 500, 1000)
	seed("inside", 1200, 1400)
	seed("touching-end", 2000, 3000)
	require.NoError(t, m.Bookings().Insert(ctx, &models.Booking{ID: "other-thang", Thang: "t2", From: 1200, To: 1400}))
	seed("deleted", 1200, 1400)
	_, err := m.Bookings().SoftDelete(ctx, "deleted")
	require.NoError(t, err)

	got, err := m.Bookings().InInterval(ctx, "t1", 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inside", got[0].ID)
}

func TestForUserFrom(t *testing.T) {
	m := New()
	ctx := context.Background()

	seed := func(id, owner string, from int64) {
		require.NoError(t, m.Bookings().Insert(ctx, &models.Booking{ID: id, Thang: "t1", Owner: owner, From: from, To: from + 60000}))
	}
	seed("old", "u1", 1000)
	seed("boundary", "u1", 5000)
	seed("later", "u1", 9000)
	seed("other-user", "u2", 9000)

	got, err := m.Bookings().ForUserFrom(ctx, "t1", "u1", 5000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	ids := []string{got[0].ID, got[1].ID}
	assert.ElementsMatch(t, []string{"boundary", "later"}, ids)
}
