package models

import (
	"fmt"
	"time"
)

// DayFormat is the wire format for shift days.
const DayFormat = "2006-01-02"

// Shift represents one scheduled shift for one staff member.
type Shift struct {
	ID        string    `bson:"_id" json:"id"`
	StaffID   int64     `bson:"staffId" json:"staffId"`
	StaffName string    `bson:"staffName" json:"staffName"`
	Role      string    `bson:"role,omitempty" json:"role,omitempty"`
	Station   string    `bson:"station,omitempty" json:"station,omitempty"`
	Day       string    `bson:"day" json:"day"`
	Start     string    `bson:"start" json:"start"`
	End       string    `bson:"end" json:"end"`
	Published bool      `bson:"published" json:"published"`
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Station names used by the scheduler UI.
const (
	StationHot    = "hot"
	StationCold   = "cold"
	StationPastry = "pastry"
	StationGrill  = "grill"
	StationPrep   = "prep"
	StationPorter = "porter"
)

// Validate checks day and time formats and that the shift ends after it
// starts. Overnight shifts are entered as two shifts.
func (s *Shift) Validate() error {
	if s.StaffID == 0 {
		return fmt.Errorf("shift requires a staff id")
	}
	if _, err := time.Parse(DayFormat, s.Day); err != nil {
		return fmt.Errorf("invalid day %q: want YYYY-MM-DD", s.Day)
	}
	start, err := time.Parse("15:04", s.Start)
	if err != nil {
		return fmt.Errorf("invalid start %q: want HH:MM", s.Start)
	}
	end, err := time.Parse("15:04", s.End)
	if err != nil {
		return fmt.Errorf("invalid end %q: want HH:MM", s.End)
	}
	if !end.After(start) {
		return fmt.Errorf("shift end %s is not after start %s", s.End, s.Start)
	}
	return nil
}
