package models

import "time"

// Weekdays is the local-weekday mask of a thang's availability contract.
type Weekdays struct {
	Mon bool `json:"mon" bson:"mon"`
	Tue bool `json:"tue" bson:"tue"`
	Wed bool `json:"wed" bson:"wed"`
	Thu bool `json:"thu" bson:"thu"`
	Fri bool `json:"fri" bson:"fri"`
	Sat bool `json:"sat" bson:"sat"`
	Sun bool `json:"sun" bson:"sun"`
}

func AllWeekdays() Weekdays {
	return Weekdays{Mon: true, Tue: true, Wed: true, Thu: true, Fri: true, Sat: true, Sun: true}
}

// Enabled reports whether the mask allows the given calendar weekday.
func (w Weekdays) Enabled(d time.Weekday) bool {
	switch d {
	case time.Monday:
		return w.Mon
	case time.Tuesday:
		return w.Tue
	case time.Wednesday:
		return w.Wed
	case time.Thursday:
		return w.Thu
	case time.Friday:
		return w.Fri
	case time.Saturday:
		return w.Sat
	default:
		return w.Sun
	}
}

// Slots quantizes a day into Num bookable units of Size minutes, beginning
// Start minutes after local midnight. Size*Num never exceeds 1440.
type Slots struct {
	Start int `json:"start" bson:"start"`
	Size  int `json:"size" bson:"size"`
	Num   int `json:"num" bson:"num"`
}

// Range bounds the absolute instants a booking may fall in; nil means open.
type Range struct {
	First *int64 `json:"first,omitempty" bson:"first,omitempty"`
	Last  *int64 `json:"last,omitempty" bson:"last,omitempty"`
}

// UserRestrictions caps a single user's booked minutes. Zero means no limit.
type UserRestrictions struct {
	MaxBookingMinutes      int `json:"maxBookingMinutes" bson:"maxBookingMinutes"`
	MaxDailyBookingMinutes int `json:"maxDailyBookingMinutes" bson:"maxDailyBookingMinutes"`
}

// Thang is a bookable resource and its availability contract.
type Thang struct {
	ID               string           `json:"id" bson:"id"`
	Name             string           `json:"name" bson:"name"`
	Owners           []string         `json:"owners" bson:"owners"`
	Users            []string         `json:"users" bson:"users"`
	Deleted          bool             `json:"deleted" bson:"deleted"`
	Timezone         string           `json:"timezone" bson:"timezone"`
	Collection       string           `json:"collection,omitempty" bson:"collection,omitempty"`
	Range            Range            `json:"range" bson:"range"`
	Weekdays         Weekdays         `json:"weekdays" bson:"weekdays"`
	Slots            Slots            `json:"slots" bson:"slots"`
	UserRestrictions UserRestrictions `json:"userRestrictions" bson:"userRestrictions"`
	CreatedAt        int64            `json:"createdAt" bson:"createdAt"`
}

// IsOwner reports whether userID is in the owner set.
func (t *Thang) IsOwner(userID string) bool {
	for _, o := range t.Owners {
		if o == userID {
			return true
		}
	}
	return false
}

// NewThang returns a resource with the creator as sole owner and initial
// user: UTC, every weekday enabled, 24 hourly slots, no caps, open range.
func NewThang(id, name, creator string) *Thang {
	return &Thang{
		ID:       id,
		Name:     name,
		Owners:   []string{creator},
		Users:    []string{creator},
		Timezone: "UTC",
		Weekdays: AllWeekdays(),
		Slots:    Slots{Start: 0, Size: 60, Num: 24},
	}
}

// Booking is a reserved [From, To) window on a thang. Instants are epoch ms.
type Booking struct {
	ID      string `json:"id" bson:"id"`
	Thang   string `json:"thang" bson:"thang"`
	Owner   string `json:"owner" bson:"owner"`
	From    int64  `json:"from" bson:"from"`
	To      int64  `json:"to" bson:"to"`
	Deleted bool   `json:"deleted" bson:"deleted"`
}

// Minutes returns the booked duration.
func (b *Booking) Minutes() int {
	return int((b.To - b.From) / 60000)
}

// Overlaps applies half-open interval semantics against [from, to).
func (b *Booking) Overlaps(from, to int64) bool {
	return b.From < to && b.To > from
}

type User struct {
	UserID        string    `json:"userid" bson:"userid"`
	Username      string    `json:"username" bson:"username"`
	Email         string    `json:"email" bson:"email"`
	PasswordHash  string    `json:"-" bson:"password_hash"`
	Timezone      string    `json:"timezone" bson:"timezone"`
	Deleted       bool      `json:"deleted" bson:"deleted"`
	EmailVerified bool      `json:"email_verified" bson:"email_verified"`
	Name          string    `json:"name,omitempty" bson:"name,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	LastLogin     time.Time `json:"last_login" bson:"last_login"`
}
