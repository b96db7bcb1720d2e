package attendance

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Default door prices.
const (
	DefaultPriceLesson = 25
	DefaultPriceDance  = 15
)

// venueShare is the fraction of the night's revenue kept by the venue.
const venueShare = 0.5

// Dispatch states of a record sent to the sheet script.
const (
	DispatchConfirmed = "confirmed" // script acknowledged the write
	DispatchUnknown   = "unknown"   // request delivered, effect unverified
	DispatchQueued    = "queued"    // delivery failed, waiting in the outbox
	DispatchLocal     = "local"     // script not configured, kept locally only
)

// DateLayout is the format of a dance night's date.
const DateLayout = "2006-01-02"

// Domain errors
var (
	ErrNegativeCount  = errors.New("attendance counts cannot be negative")
	ErrInvalidSplit   = errors.New("split must be at least one person")
	ErrNegativePrice  = errors.New("prices and custom amount cannot be negative")
	ErrInvalidDate    = errors.New("date must be in YYYY-MM-DD format")
	ErrEmptyGuestName = errors.New("comped guest name cannot be empty")
)

// SessionState is the live tally for tonight, shared between admin devices.
type SessionState struct {
	LessonCount       int     `json:"lessonCount"`
	DanceOnlyCount    int     `json:"danceOnlyCount"`
	TotalManualAdjust int     `json:"totalManualAdjust"`
	TotalCompedCount  int     `json:"totalCompedCount"`
	SplitPersons      int     `json:"splitPersons"`
	CustomAmount      float64 `json:"customAmount"`
	SelectedDate      string  `json:"selectedDate"` // YYYY-MM-DD
	PriceLesson       float64 `json:"priceLesson"`
	PriceDance        float64 `json:"priceDance"`
}

// NewSessionState returns a cleared tally for the given night.
// POST: all counters are zero, split is one, prices are the defaults
func NewSessionState(date string) SessionState {
	return SessionState{
		SplitPersons: 1,
		SelectedDate: date,
		PriceLesson:  DefaultPriceLesson,
		PriceDance:   DefaultPriceDance,
	}
}

// Normalize fills values a partial payload left unset.
// POST: SplitPersons >= 1 and both prices are positive
func (s *SessionState) Normalize() {
	if s.SplitPersons < 1 {
		s.SplitPersons = 1
	}
	if s.PriceLesson <= 0 {
		s.PriceLesson = DefaultPriceLesson
	}
	if s.PriceDance <= 0 {
		s.PriceDance = DefaultPriceDance
	}
}

// Validate checks if the SessionState has valid data.
// PRE: SessionState struct is populated
// POST: Returns nil if valid, error otherwise
func (s *SessionState) Validate() error {
	if s.LessonCount < 0 || s.DanceOnlyCount < 0 || s.TotalCompedCount < 0 {
		return ErrNegativeCount
	}
	if s.SplitPersons < 1 {
		return ErrInvalidSplit
	}
	if s.PriceLesson < 0 || s.PriceDance < 0 || s.CustomAmount < 0 {
		return ErrNegativePrice
	}
	if !IsValidDate(s.SelectedDate) {
		return ErrInvalidDate
	}
	return nil
}

// Tally is the computed summary of a SessionState.
type Tally struct {
	TotalInAttendance int     `json:"totalInAttendance"`
	TotalRevenue      float64 `json:"totalRevenue"`
	VenueShare        float64 `json:"venueShare"`
	InstructorPool    float64 `json:"instructorPool"`
	PerPersonSplit    float64 `json:"perPersonSplit"`
}

// Tally computes tonight's totals.
// Venue share rounds down, the instructor pool and each person's split round up.
// PRE: SplitPersons >= 1
// INVARIANT: SessionState fields are not mutated
func (s SessionState) Tally() Tally {
	split := s.SplitPersons
	if split < 1 {
		split = 1
	}
	revenue := float64(s.LessonCount)*s.PriceLesson + float64(s.DanceOnlyCount)*s.PriceDance + s.CustomAmount
	pool := math.Ceil(revenue * venueShare)
	return Tally{
		TotalInAttendance: s.LessonCount + s.DanceOnlyCount + s.TotalCompedCount + s.TotalManualAdjust,
		TotalRevenue:      revenue,
		VenueShare:        math.Floor(revenue * venueShare),
		InstructorPool:    pool,
		PerPersonSplit:    math.Ceil(pool / float64(split)),
	}
}

// Record is a committed night, as stored locally and sent to the sheet.
type Record struct {
	ID                string    `json:"id"`
	Date              string    `json:"date"`
	TotalInAttendance int       `json:"totalInAttendance"`
	LessonAndDance    int       `json:"lessonAndDance"`
	DanceOnly         int       `json:"danceOnly"`
	TotalComped       int       `json:"totalComped"`
	TotalRevenue      float64   `json:"totalRevenue"`
	PerPersonSplit    float64   `json:"perPersonSplit"`
	Dispatch          string    `json:"dispatch"` // confirmed, unknown, queued
	CreatedAt         time.Time `json:"createdAt"`
}

// NewRecord snapshots a session into a Record.
// PRE: s has been validated
// POST: Record carries the session's counts and computed totals
func NewRecord(id string, s SessionState, now time.Time) Record {
	t := s.Tally()
	return Record{
		ID:                id,
		Date:              s.SelectedDate,
		TotalInAttendance: t.TotalInAttendance,
		LessonAndDance:    s.LessonCount,
		DanceOnly:         s.DanceOnlyCount,
		TotalComped:       s.TotalCompedCount,
		TotalRevenue:      t.TotalRevenue,
		PerPersonSplit:    t.PerPersonSplit,
		CreatedAt:         now,
	}
}

// Validate checks if the Record has valid data.
// PRE: Record struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Record) Validate() error {
	if !IsValidDate(r.Date) {
		return ErrInvalidDate
	}
	if r.TotalInAttendance < 0 || r.LessonAndDance < 0 || r.DanceOnly < 0 || r.TotalComped < 0 {
		return ErrNegativeCount
	}
	return nil
}

// CompedRecord is a guest let in for free.
type CompedRecord struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes"`
	Dispatch  string    `json:"dispatch"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks if the CompedRecord has valid data.
// PRE: CompedRecord struct is populated
// POST: Returns nil if valid, error otherwise
func (c *CompedRecord) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyGuestName
	}
	if !IsValidDate(c.Date) {
		return ErrInvalidDate
	}
	return nil
}

// IsValidDate reports whether d is a YYYY-MM-DD calendar date.
func IsValidDate(d string) bool {
	_, err := time.Parse(DateLayout, d)
	return err == nil
}
