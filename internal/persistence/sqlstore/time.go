package sqlstore

import (
	"fmt"
	"time"
)

// timeLayout is fixed width so lexicographic order equals chronological
// order for stored UTC values. Its resolution is domain.TimePrecision.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// dbTime scans instants stored either as native timestamps (Postgres) or as
// text (SQLite).
type dbTime struct {
	time.Time
}

// Scan implements sql.Scanner.
func (t *dbTime) Scan(src any) error {
	parsed, ok, err := scanTime(src)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("sqlstore: unexpected NULL time")
	}
	t.Time = parsed
	return nil
}

// nullTime is the nullable counterpart of dbTime.
type nullTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (t *nullTime) Scan(src any) error {
	parsed, ok, err := scanTime(src)
	if err != nil {
		return err
	}
	t.Time, t.Valid = parsed, ok
	return nil
}

func (t nullTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

var acceptedLayouts = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func scanTime(src any) (time.Time, bool, error) {
	switch v := src.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v.UTC(), true, nil
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	}
	return time.Time{}, false, fmt.Errorf("sqlstore: cannot scan %T into time", src)
}

func parseTime(raw string) (time.Time, bool, error) {
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("sqlstore: unrecognised time %q", raw)
}
