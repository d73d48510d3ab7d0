package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TimeLayout is the fixed-width layout used when this module writes timestamps.
// Values in this layout sort lexicographically in chronological order.
const TimeLayout = "2006-01-02 15:04:05.000000"

var timeLayouts = []string{
	TimeLayout,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

// FormatTime renders t in TimeLayout, in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses the timestamp spellings found in SQLite databases.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// DBTime scans SQLite timestamp columns. The driver may hand back time.Time,
// text, or a unix epoch number depending on who wrote the row.
type DBTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (t *DBTime) Scan(src any) error {
	*t = DBTime{}
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case int64:
		t.Time, t.Valid = time.Unix(v, 0).UTC(), true
	case float64:
		sec, frac := math.Modf(v)
		t.Time, t.Valid = time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	default:
		return fmt.Errorf("cannot scan %T into DBTime", src)
	}
	return nil
}

func (t *DBTime) parse(s string) error {
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time, t.Valid = parsed, true
	return nil
}
