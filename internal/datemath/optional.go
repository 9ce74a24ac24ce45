package datemath

import (
	"bytes"
	"encoding/json"
	"time"
)

// OptionalDate distinguishes an absent JSON field (Set=false) from an
// explicit null (Set=true, Value=nil) and from a date value.
type OptionalDate struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON is only called when the key is present.
func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		o.Value = nil
		return nil
	}
	t, err := Parse(s)
	if err != nil {
		return err
	}
	o.Value = &t
	return nil
}

func (o OptionalDate) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value.Format(DateLayout))
}

// Clear reports an explicit null.
func (o OptionalDate) Clear() bool {
	return o.Set && o.Value == nil
}

// SetDate builds a present OptionalDate.
func SetDate(t time.Time) OptionalDate {
	return OptionalDate{Set: true, Value: Ptr(t)}
}

// NullDate builds an explicit null.
func NullDate() OptionalDate {
	return OptionalDate{Set: true}
}
