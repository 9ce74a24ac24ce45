package datemath_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tasklist/backend/internal/datemath"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr error
	}{
		{name: "calendar date", input: "2024-03-11", want: day(2024, 3, 11)},
		{name: "padded", input: "  2024-03-11 ", want: day(2024, 3, 11)},
		{name: "rfc3339 utc", input: "2024-03-11T23:30:00Z", want: day(2024, 3, 11)},
		{name: "rfc3339 keeps caller offset", input: "2024-03-11T22:00:00-06:00", want: day(2024, 3, 11)},
		{name: "empty", input: "", wantErr: datemath.ErrMissingDate},
		{name: "garbage", input: "next tuesday", wantErr: datemath.ErrInvalidDate},
		{name: "bad day", input: "2024-02-30", wantErr: datemath.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := datemath.Parse(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTruncateAndAddDays(t *testing.T) {
	loc := time.FixedZone("CST", -6*3600)
	in := time.Date(2024, 3, 10, 23, 59, 0, 0, loc)

	if got := datemath.Truncate(in); !got.Equal(day(2024, 3, 10)) {
		t.Errorf("expected 2024-03-10, got %v", got)
	}
	if got := datemath.AddDays(in, 1); !got.Equal(day(2024, 3, 11)) {
		t.Errorf("expected 2024-03-11, got %v", got)
	}
	if got := datemath.AddDays(day(2024, 3, 1), -1); !got.Equal(day(2024, 2, 29)) {
		t.Errorf("expected leap day, got %v", got)
	}
}

func TestSkipWeekend(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{day(2024, 3, 9), day(2024, 3, 11)},  // Saturday
		{day(2024, 3, 10), day(2024, 3, 11)}, // Sunday
		{day(2024, 3, 8), day(2024, 3, 8)},
		{day(2024, 3, 11), day(2024, 3, 11)},
	}

	for _, tt := range tests {
		if got := datemath.SkipWeekend(tt.in); !got.Equal(tt.want) {
			t.Errorf("SkipWeekend(%s): expected %s, got %s", tt.in.Format(datemath.DateLayout),
				tt.want.Format(datemath.DateLayout), got.Format(datemath.DateLayout))
		}
	}
}

func TestFormat(t *testing.T) {
	d := day(2024, 1, 5)
	if got := datemath.Format(&d); got != "2024-01-05" {
		t.Errorf("expected 2024-01-05, got %s", got)
	}
	if got := datemath.Format(nil); got != "" {
		t.Errorf("expected empty string, got %s", got)
	}
	if datemath.FormatPtr(nil) != nil {
		t.Error("expected nil pointer")
	}
}

func TestOptionalDate(t *testing.T) {
	var body struct {
		DueDate datemath.OptionalDate `json:"dueDate"`
	}

	if err := json.Unmarshal([]byte(`{}`), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.DueDate.Set {
		t.Error("absent field should not be set")
	}

	body.DueDate = datemath.OptionalDate{}
	if err := json.Unmarshal([]byte(`{"dueDate":null}`), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !body.DueDate.Clear() {
		t.Error("null should be an explicit clear")
	}

	body.DueDate = datemath.OptionalDate{}
	if err := json.Unmarshal([]byte(`{"dueDate":"2024-06-01"}`), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !body.DueDate.Set || body.DueDate.Value == nil || !body.DueDate.Value.Equal(day(2024, 6, 1)) {
		t.Errorf("expected 2024-06-01, got %+v", body.DueDate)
	}

	if err := json.Unmarshal([]byte(`{"dueDate":"soon"}`), &body); !errors.Is(err, datemath.ErrInvalidDate) {
		t.Errorf("expected invalid date error, got %v", err)
	}

	out, err := json.Marshal(datemath.SetDate(day(2024, 6, 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `"2024-06-01"` {
		t.Errorf("expected quoted date, got %s", out)
	}
}

func TestFixedClock(t *testing.T) {
	now := time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)
	if got := datemath.FixedClock(now).Now(); !got.Equal(now) {
		t.Errorf("expected %v, got %v", now, got)
	}
}
