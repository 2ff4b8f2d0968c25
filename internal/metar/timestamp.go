package metar

import (
	"fmt"
	"time"
)

// Timestamp is the observation time. The wire form only carries day, hour
// and minute; month and year come from the reference instant at decode time.
type Timestamp struct {
	time.Time
}

// String renders DDHHMMZ, dropping month and year.
func (t Timestamp) String() string {
	return fmt.Sprintf("%02d%02d%02dZ", t.Day(), t.Hour(), t.Minute())
}

// decodeTimestamp reads DDHHMMZ and places it relative to ref.
func decodeTimestamp(ref time.Time) decodeFunc[Timestamp] {
	return func(s *scanner) (Timestamp, error) {
		start := s.pos
		day, err := s.digits("timestamp.day", 2)
		if err != nil {
			return Timestamp{}, err
		}
		hour, err := s.digits("timestamp.hour", 2)
		if err != nil {
			return Timestamp{}, err
		}
		minute, err := s.digits("timestamp.minute", 2)
		if err != nil {
			return Timestamp{}, err
		}
		if err := s.expect("timestamp.zone", "Z"); err != nil {
			return Timestamp{}, err
		}
		t, ok := resolveTimestamp(ref, day, hour, minute)
		if !ok {
			return Timestamp{}, s.fail("timestamp", "a valid time in "+t.Format("January 2006"), ErrOutOfRange, start)
		}
		return Timestamp{Time: t}, nil
	}
}

// resolveTimestamp picks the month for (day, hour, minute). A triple at or
// before the reference's own triple belongs to the reference month; a later
// one must be from the month before. The bool is false when the triple is not
// a real time in the chosen month and zone; the returned time then carries
// only the resolved year and month.
func resolveTimestamp(ref time.Time, day, hour, minute int) (time.Time, bool) {
	year, month := ref.Year(), ref.Month()
	if compareTriple(day, hour, minute, ref.Day(), ref.Hour(), ref.Minute()) > 0 {
		month--
		if month < time.January {
			month = time.December
			year--
		}
	}
	loc := ref.Location()
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	if day < 1 || hour > 23 || minute > 59 {
		return monthStart, false
	}
	t := time.Date(year, month, day, hour, minute, 0, 0, loc)
	// time.Date normalises days past the month end and wall times skipped by a
	// DST transition; either means the triple does not exist.
	if t.Month() != month || t.Day() != day || t.Hour() != hour || t.Minute() != minute {
		return monthStart, false
	}
	return t, true
}

func compareTriple(d1, h1, m1, d2, h2, m2 int) int {
	switch {
	case d1 != d2:
		return d1 - d2
	case h1 != h2:
		return h1 - h2
	default:
		return m1 - m2
	}
}
