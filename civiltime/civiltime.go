// Package civiltime converts between wall-clock civil datetimes and absolute
// instants (epoch milliseconds). Civil fields carry no zone of their own; the
// conversions here interpret them as UTC. Callers that need a zone-local
// reading (the expiry check does) use InZone with the resource's location.
package civiltime

import "time"

const DayMillis = 24 * 60 * 60 * 1000

// Dt is a civil datetime: calendar fields without an inherent zone binding.
type Dt struct {
	Year   int `json:"year" bson:"year"`
	Month  int `json:"month" bson:"month"`
	Day    int `json:"day" bson:"day"`
	Hour   int `json:"hour" bson:"hour"`
	Minute int `json:"minute" bson:"minute"`
}

// Timestamp converts d to epoch milliseconds, treating the fields as UTC.
// Returns false for field combinations that do not exist on the proleptic
// calendar (time.Date would silently normalize Feb 31 to Mar 2/3).
func (d Dt) Timestamp() (int64, bool) {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, 0, 0, time.UTC)
	if t.Year() != d.Year || t.Month() != time.Month(d.Month) || t.Day() != d.Day ||
		t.Hour() != d.Hour || t.Minute() != d.Minute {
		return 0, false
	}
	return t.UnixMilli(), true
}

// MinuteOfDay returns the minutes elapsed since the civil midnight.
func (d Dt) MinuteOfDay() int {
	return d.Hour*60 + d.Minute
}

// InZone reads the civil fields as wall time in loc.
func (d Dt) InZone(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, 0, 0, loc)
}

// FromTimestamp is the inverse of Timestamp for all valid civil datetimes.
func FromTimestamp(ms int64) Dt {
	t := time.UnixMilli(ms).UTC()
	return Dt{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour(), Minute: t.Minute()}
}

// Weekday returns the calendar weekday of the instant.
func Weekday(ms int64) time.Weekday {
	return time.UnixMilli(ms).UTC().Weekday()
}

// StartOfDay truncates the instant to its midnight boundary.
func StartOfDay(ms int64) int64 {
	if ms >= 0 {
		return ms - ms%DayMillis
	}
	r := ms % DayMillis
	if r == 0 {
		return ms
	}
	return ms - r - DayMillis
}

func AddDays(ms int64, n int) int64 {
	return ms + int64(n)*DayMillis
}

// DaysDiff counts the day-bucket boundaries between a and b (b later -> positive).
func DaysDiff(a, b int64) int {
	return int((StartOfDay(b) - StartOfDay(a)) / DayMillis)
}

// Now returns the current instant in epoch milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}
