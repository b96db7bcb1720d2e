package attendance

import (
	"errors"
	"testing"
	"time"
)

func TestSessionState_Tally(t *testing.T) {
	s := NewSessionState("2026-03-06")
	s.LessonCount = 3
	s.DanceOnlyCount = 2
	s.CustomAmount = 5
	s.TotalCompedCount = 1
	s.TotalManualAdjust = 2
	s.SplitPersons = 2

	got := s.Tally()
	if got.TotalRevenue != 110 {
		t.Errorf("TotalRevenue = %v, want 110", got.TotalRevenue)
	}
	if got.VenueShare != 55 || got.InstructorPool != 55 {
		t.Errorf("VenueShare/InstructorPool = %v/%v, want 55/55", got.VenueShare, got.InstructorPool)
	}
	if got.PerPersonSplit != 28 {
		t.Errorf("PerPersonSplit = %v, want 28", got.PerPersonSplit)
	}
	if got.TotalInAttendance != 8 {
		t.Errorf("TotalInAttendance = %d, want 8", got.TotalInAttendance)
	}
}

// TestSessionState_Tally_OddRevenue checks the venue rounds down and the pool rounds up.
func TestSessionState_Tally_OddRevenue(t *testing.T) {
	s := NewSessionState("2026-03-06")
	s.DanceOnlyCount = 1 // 15
	got := s.Tally()
	if got.VenueShare != 7 || got.InstructorPool != 8 {
		t.Errorf("VenueShare/InstructorPool = %v/%v, want 7/8", got.VenueShare, got.InstructorPool)
	}
	if got.PerPersonSplit != 8 {
		t.Errorf("PerPersonSplit = %v, want 8", got.PerPersonSplit)
	}
}

// TestSessionState_Tally_NegativeAdjust checks a correction below zero lowers the headcount.
func TestSessionState_Tally_NegativeAdjust(t *testing.T) {
	s := NewSessionState("2026-03-06")
	s.LessonCount = 3
	s.TotalManualAdjust = -1
	if got := s.Tally().TotalInAttendance; got != 2 {
		t.Errorf("TotalInAttendance = %d, want 2", got)
	}
}

func TestRecord_Validate_NegativeTotal(t *testing.T) {
	s := NewSessionState("2026-03-06")
	s.LessonCount = 1
	s.TotalManualAdjust = -4
	r := NewRecord("rec-1", s, time.Date(2026, 3, 6, 21, 0, 0, 0, time.UTC))
	if err := r.Validate(); !errors.Is(err, ErrNegativeCount) {
		t.Errorf("Validate() = %v, want %v", err, ErrNegativeCount)
	}
}

func TestSessionState_Validate(t *testing.T) {
	base := NewSessionState("2026-03-06")
	tests := []struct {
		name    string
		mutate  func(*SessionState)
		wantErr error
	}{
		{"valid", func(*SessionState) {}, nil},
		{"negative lesson", func(s *SessionState) { s.LessonCount = -1 }, ErrNegativeCount},
		{"negative comped", func(s *SessionState) { s.TotalCompedCount = -1 }, ErrNegativeCount},
		{"negative manual adjust", func(s *SessionState) { s.TotalManualAdjust = -1 }, nil},
		{"zero split", func(s *SessionState) { s.SplitPersons = 0 }, ErrInvalidSplit},
		{"negative custom", func(s *SessionState) { s.CustomAmount = -5 }, ErrNegativePrice},
		{"bad date", func(s *SessionState) { s.SelectedDate = "6/3/2026" }, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionState_Normalize(t *testing.T) {
	s := SessionState{SelectedDate: "2026-03-06"}
	s.Normalize()
	if s.SplitPersons != 1 || s.PriceLesson != DefaultPriceLesson || s.PriceDance != DefaultPriceDance {
		t.Errorf("Normalize() = %+v", s)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("normalized state invalid: %v", err)
	}
}

func TestNewRecord(t *testing.T) {
	s := NewSessionState("2026-03-06")
	s.LessonCount = 4
	s.DanceOnlyCount = 1
	s.TotalCompedCount = 2
	now := time.Date(2026, 3, 6, 23, 0, 0, 0, time.UTC)

	r := NewRecord("rec-1", s, now)
	if r.ID != "rec-1" || r.Date != "2026-03-06" || !r.CreatedAt.Equal(now) {
		t.Errorf("record identity = %+v", r)
	}
	if r.LessonAndDance != 4 || r.DanceOnly != 1 || r.TotalComped != 2 || r.TotalInAttendance != 7 {
		t.Errorf("record counts = %+v", r)
	}
	if r.TotalRevenue != 115 || r.PerPersonSplit != 58 {
		t.Errorf("record totals = %v / %v, want 115 / 58", r.TotalRevenue, r.PerPersonSplit)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestCompedRecord_Validate(t *testing.T) {
	ok := CompedRecord{Name: "Sam", Date: "2026-03-06"}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	blank := CompedRecord{Name: "  ", Date: "2026-03-06"}
	if err := blank.Validate(); !errors.Is(err, ErrEmptyGuestName) {
		t.Errorf("Validate() blank name = %v", err)
	}
	noDate := CompedRecord{Name: "Sam"}
	if err := noDate.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("Validate() no date = %v", err)
	}
}
