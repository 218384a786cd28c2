package changefeed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thangd/models"
	"thangd/store"
	"thangd/store/memstore"
)

func recv(t *testing.T, sub *Subscription) store.Change {
	t.Helper()
	select {
	case c, ok := <-sub.Events():
		require.True(t, ok, "subscription closed before the expected event")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a change event")
		return store.Change{}
	}
}

func recvClosed(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "expected a closed event channel")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the channel to close")
	}
}

func mkBooking(id, thangID string, from, to int64) *models.Booking {
	return &models.Booking{ID: id, Thang: thangID, Owner: "u1", From: from, To: to}
}

func TestSubscribersSeeOnlyTheirThang(t *testing.T) {
	st := memstore.New()
	feeds := New(st)
	ctx := context.Background()

	onT1, err := feeds.Bookings.Subscribe(BookingsOnThang("t1", nil, nil))
	require.NoError(t, err)
	onT2, err := feeds.Bookings.Subscribe(BookingsOnThang("t2", nil, nil))
	require.NoError(t, err)

	require.NoError(t, st.Bookings().Insert(ctx, mkBooking("b1", "t1", 1000, 2000)))
	require.NoError(t, st.Bookings().Insert(ctx, mkBooking("b2", "t1", 3000, 4000)))

	c := recv(t, onT1)
	assert.Equal(t, store.ChangeAdd, c.Kind)
	assert.Equal(t, "b1", c.ID)
	require.NotNil(t, c.Booking)
	assert.Equal(t, "t1", c.Booking.Thang)

	c = recv(t, onT1)
	assert.Equal(t, "b2", c.ID)

	// b1's fan-out iteration finished before b2's began, so by now the t2
	// subscriber has definitively seen nothing.
	assert.Empty(t, onT2.Events())
}

func TestCancelIsSynchronousAndIsolated(t *testing.T) {
	st := memstore.New()
	feeds := New(st)
	ctx := context.Background()

	first, err := feeds.Bookings.Subscribe(BookingsOnThang("t1", nil, nil))
	require.NoError(t, err)
	second, err := feeds.Bookings.Subscribe(BookingsOnThang("t1", nil, nil))
	require.NoError(t, err)

	first.Cancel()
	first.Cancel() // safe to repeat
	recvClosed(t, first)

	require.NoError(t, st.Bookings().Insert(ctx, mkBooking("b1", "t1", 1000, 2000)))
	c := recv(t, second)
	assert.Equal(t, "b1", c.ID)
}

func TestUnknownTargetStaysSilent(t *testing.T) {
	st := memstore.New()
	feeds := New(st)
	ctx := context.Background()

	silent, err := feeds.Bookings.Subscribe(BookingsOnThang("no-such-thang", nil, nil))
	require.NoError(t, err)
	live, err := feeds.Bookings.Subscribe(BookingsOnThang("t1", nil, nil))
	require.NoError(t, err)

	require.NoError(t, st.Bookings().Insert(ctx, mkBooking("b1", "t1", 1000, 2000)))
	recv(t, live)
	assert.Empty(t, silent.Events())
}

func TestSoftDeleteArrivesAsRemoveWithDocument(t *testing.T) {
	st := memstore.New()
	feeds := New(st)
	ctx := context.Background()

	sub, err := feeds.Bookings.Subscribe(BookingsOnThang("t1", nil, nil))
	require.NoError(t, err)

	require.NoError(t, st.Bookings().Insert(ctx, mkBooking("b1", "t1", 1000, 2000)))
	_, err = st.Bookings().SoftDelete(ctx, "b1")
	require.NoError(t, err)

	c := recv(t, sub)
	assert.Equal(t, store.ChangeAdd, c.Kind)

	c = recv(t, sub)
	assert.Equal(t, store.ChangeRemove, c.Kind)
	assert.Equal(t, "b1", c.ID)
	require.NotNil(t, c.Booking)
	assert.True(t, c.Booking.Deleted)
}

func TestThangFeedDeliversOwnedChanges(t *testing.T) {
	st := memstore.New()
	feeds := New(st)
	ctx := context.Background()

	mine, err := feeds.Thangs.Subscribe(ThangsOwnedBy("u1"))
	require.NoError(t, err)

	th := models.NewThang("t1", "Court A", "u1")
	require.NoError(t, st.Thangs().Insert(ctx, th))
	other := models.NewThang("t2", "Court B", "u2")
	require.NoError(t, st.Thangs().Insert(ctx, other))

	c := recv(t, mine)
	assert.Equal(t, store.ChangeAdd, c.Kind)
	assert.Equal(t, "t1", c.ID)

	_, err = st.Thangs().SoftDelete(ctx, "t1")
	require.NoError(t, err)
	c = recv(t, mine)
	assert.Equal(t, store.ChangeRemove, c.Kind)
	assert.Equal(t, "t1", c.ID)
}

func TestBookingsOnThangWindowNarrowing(t *testing.T) {
	from, to := int64(1000), int64(2000)
	pred := BookingsOnThang("t1", &from, &to)

	assert.True(t, pred(store.Change{Booking: mkBooking("b", "t1", 1500, 2500)}))
	assert.True(t, pred(store.Change{Booking: mkBooking("b", "t1", 500, 1001)}))
	assert.False(t, pred(store.Change{Booking: mkBooking("b", "t1", 2000, 3000)}), "half-open: touching windows do not intersect")
	assert.False(t, pred(store.Change{Booking: mkBooking("b", "t1", 0, 1000)}))
	assert.False(t, pred(store.Change{Booking: mkBooking("b", "t2", 1500, 2500)}))
	assert.False(t, pred(store.Change{ID: "b"}), "a remove without a document cannot be attributed")
}

func TestThangPredicates(t *testing.T) {
	th := models.NewThang("t1", "Court A", "u1")

	assert.True(t, ThangByID("t1")(store.Change{ID: "t1", Thang: th}))
	assert.False(t, ThangByID("t2")(store.Change{ID: "t1", Thang: th}))

	assert.True(t, ThangsOwnedBy("u1")(store.Change{ID: "t1", Thang: th}))
	assert.False(t, ThangsOwnedBy("u2")(store.Change{ID: "t1", Thang: th}))
	assert.False(t, ThangsOwnedBy("u1")(store.Change{ID: "t1"}))
}
