package duration

import (
	"errors"
	"testing"
	"time"
)

func TestEndDate(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		typ  Type
		want time.Time
	}{
		{"ThreeMonths", ThreeMonths, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"SixMonths", SixMonths, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"OneYear", OneYear, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"TwoMinutes", TwoMinutes, start.Add(2 * time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EndDate(start, tt.typ)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEndDateMonthEnd(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		typ   Type
		want  time.Time
	}{
		{"Aug31PlusSixMonths", time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC), SixMonths, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"Nov30PlusThreeMonths", time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), ThreeMonths, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"Feb29PlusOneYear", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), OneYear, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"Nov30IntoLeapFebruary", time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC), ThreeMonths, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"Jan31PlusThreeMonths", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), ThreeMonths, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)},
		{"DayFitsUnchanged", time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC), SixMonths, time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EndDate(tt.start, tt.typ)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("EndDate(%v, %v) = %v, want %v", tt.start, tt.typ, got, tt.want)
			}
		})
	}
}

func TestEndDateKeepsClockAndLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	start := time.Date(2024, 8, 31, 10, 30, 15, 500, loc)

	got, err := EndDate(start, SixMonths)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 2, 28, 10, 30, 15, 500, loc)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Errorf("location changed to %v", got.Location())
	}
}

func TestEndDateDeterministic(t *testing.T) {
	start := time.Date(2024, 8, 31, 10, 30, 0, 0, time.UTC)

	first, err := EndDate(start, SixMonths)
	if err != nil {
		t.Fatal(err)
	}
	second, err := EndDate(start, SixMonths)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(second) {
		t.Errorf("same start produced %v and %v", first, second)
	}
	if want := time.Date(2025, 2, 28, 10, 30, 0, 0, time.UTC); !first.Equal(want) {
		t.Errorf("got %v, want %v", first, want)
	}
}

func TestEndDateUnknown(t *testing.T) {
	for _, typ := range []Type{0, 5, -1} {
		_, err := EndDate(time.Now(), typ)
		if !errors.Is(err, ErrUnknown) {
			t.Errorf("EndDate(%d): expected ErrUnknown, got %v", typ, err)
		}
	}
}

func TestNames(t *testing.T) {
	for _, typ := range []Type{ThreeMonths, SixMonths, OneYear, TwoMinutes} {
		if !typ.Valid() {
			t.Errorf("%v should be valid", typ)
		}
		parsed, err := Parse(typ.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", typ.String(), err)
		}
		if parsed != typ {
			t.Errorf("Parse(%q) = %v, want %v", typ.String(), parsed, typ)
		}
	}

	if Type(9).Valid() {
		t.Error("Type(9) should be invalid")
	}
	if Type(9).String() != "Type(9)" {
		t.Errorf("unexpected name %q", Type(9).String())
	}
}
