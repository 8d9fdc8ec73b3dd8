package entities

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// EpochTime is a nullable timestamp persisted as INTEGER epoch milliseconds.
type EpochTime struct {
	Time  time.Time
	Valid bool
}

func NewEpochTime(t time.Time) EpochTime {
	return EpochTime{Time: t.Truncate(time.Millisecond), Valid: true}
}

// EpochMillis wraps a raw millisecond value.
func EpochMillis(ms int64) EpochTime {
	return EpochTime{Time: time.UnixMilli(ms), Valid: true}
}

func (e EpochTime) Millis() int64 {
	if !e.Valid {
		return 0
	}
	return e.Time.UnixMilli()
}

// Ptr returns nil for an absent value.
func (e EpochTime) Ptr() *time.Time {
	if !e.Valid {
		return nil
	}
	t := e.Time
	return &t
}

func (e EpochTime) Equal(other EpochTime) bool {
	if e.Valid != other.Valid {
		return false
	}
	return !e.Valid || e.Millis() == other.Millis()
}

func (e EpochTime) Value() (driver.Value, error) {
	if !e.Valid {
		return nil, nil
	}
	return e.Time.UnixMilli(), nil
}

func (e *EpochTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*e = EpochTime{}
	case int64:
		*e = EpochMillis(v)
	case float64:
		*e = EpochMillis(int64(v))
	case time.Time:
		*e = NewEpochTime(v)
	case []byte:
		return e.scanText(string(v))
	case string:
		return e.scanText(v)
	default:
		return fmt.Errorf("cannot scan %T into EpochTime", value)
	}
	return nil
}

func (e *EpochTime) scanText(s string) error {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*e = EpochMillis(ms)
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("cannot parse %q as epoch time: %w", s, err)
	}
	*e = NewEpochTime(t)
	return nil
}

func (e EpochTime) MarshalJSON() ([]byte, error) {
	if !e.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(e.Time.Format(time.RFC3339Nano))
}

func (e *EpochTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*e = EpochTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*e = EpochTime{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*e = NewEpochTime(t)
	return nil
}
