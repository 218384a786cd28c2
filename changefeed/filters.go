package changefeed

import "thangd/store"

// BookingsOnThang matches booking events on one thang, optionally narrowed
// to windows intersecting [from, to). Removals without a document cannot be
// attributed to a thang and never match.
func BookingsOnThang(thangID string, from, to *int64) Predicate {
	return func(c store.Change) bool {
		if c.Booking == nil || c.Booking.Thang != thangID {
			return false
		}
		if from != nil && to != nil {
			return c.Booking.Overlaps(*from, *to)
		}
		return true
	}
}

// ThangByID matches events for a single thang.
func ThangByID(id string) Predicate {
	return func(c store.Change) bool {
		return c.ID == id
	}
}

// ThangsOwnedBy matches events on every thang whose owner set contains the
// user.
func ThangsOwnedBy(userID string) Predicate {
	return func(c store.Change) bool {
		return c.Thang != nil && c.Thang.IsOwner(userID)
	}
}
