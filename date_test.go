package lotledger

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2024-03-05", NewDate(2024, time.March, 5), false},
		{"2024-3-5", NewDate(2024, time.March, 5), false},
		{"2024-13-05", Date{}, true},
		{"not a date", Date{}, true},
		{"", Date{}, true},
	}
	for _, tc := range tests {
		got, err := ParseDate(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseDate(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseDate(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestDateNormalization(t *testing.T) {
	// Out-of-range components normalize the way time.Date does.
	got := NewDate(2024, time.January, 32)
	if want := NewDate(2024, time.February, 1); !got.Equal(want) {
		t.Errorf("NewDate(2024, January, 32) = %s, want %s", got, want)
	}
	if got := NewDate(2024, time.February, 28).Add(1); !got.Equal(NewDate(2024, time.February, 29)) {
		t.Errorf("Add(1) across leap day = %s", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a := NewDate(2023, time.January, 10)
	b := NewDate(2024, time.March, 10)
	if got := a.DaysBetween(b); got != 425 {
		t.Errorf("DaysBetween = %d, want 425", got)
	}
	if got := a.DaysBetween(a); got != 0 {
		t.Errorf("DaysBetween(self) = %d, want 0", got)
	}
}

func TestDateOrdering(t *testing.T) {
	early := NewDate(2024, time.January, 1)
	late := NewDate(2024, time.December, 31)
	if !early.Before(late) || late.Before(early) {
		t.Error("Before() ordering is wrong")
	}
	if !late.After(early) {
		t.Error("After() ordering is wrong")
	}
	if early.IsZero() {
		t.Error("a real date must not be zero")
	}
	if !(Date{}).IsZero() {
		t.Error("the zero Date must report IsZero")
	}
}
