package cache

import (
	"encoding/json"
	"errors"
	"time"
)

// Entry is an immutable cached value. Set replaces entries; nothing
// updates them in place.
type Entry struct {
	Value     []byte
	CreatedAt time.Time
	TTL       time.Duration
}

// NewEntry creates an entry created at now.
func NewEntry(value []byte, ttl time.Duration, now time.Time) Entry {
	return Entry{Value: value, CreatedAt: now, TTL: ttl}
}

// Expired reports whether more than TTL has passed between CreatedAt and now.
func (e Entry) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > e.TTL
}

// Remaining returns the lifetime left at now, never negative.
func (e Entry) Remaining(now time.Time) time.Duration {
	return max(e.TTL-now.Sub(e.CreatedAt), 0)
}

type entryJSON struct {
	Value      []byte    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	TTLSeconds float64   `json:"ttl_seconds"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Value:      e.Value,
		CreatedAt:  e.CreatedAt,
		TTLSeconds: e.TTL.Seconds(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry{
		Value:     raw.Value,
		CreatedAt: raw.CreatedAt,
		TTL:       time.Duration(raw.TTLSeconds * float64(time.Second)),
	}
	return nil
}

func encodeEntry(e Entry) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, errors.Join(ErrCorruptEntry, err)
	}
	if e.CreatedAt.IsZero() {
		return Entry{}, errors.Join(ErrCorruptEntry, errors.New("missing created_at"))
	}
	return e, nil
}
