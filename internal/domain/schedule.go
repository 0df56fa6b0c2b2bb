package domain

import "time"

// PMFrequency enumerates preventive-maintenance cadences.
type PMFrequency string

const (
	PMFrequencyWeekly     PMFrequency = "WEEKLY"
	PMFrequencyBiweekly   PMFrequency = "BIWEEKLY"
	PMFrequencyMonthly    PMFrequency = "MONTHLY"
	PMFrequencyQuarterly  PMFrequency = "QUARTERLY"
	PMFrequencySemiannual PMFrequency = "SEMIANNUAL"
	PMFrequencyAnnual     PMFrequency = "ANNUAL"
)

// Valid reports whether the frequency is a known value.
func (f PMFrequency) Valid() bool {
	switch f {
	case PMFrequencyWeekly, PMFrequencyBiweekly, PMFrequencyMonthly,
		PMFrequencyQuarterly, PMFrequencySemiannual, PMFrequencyAnnual:
		return true
	}
	return false
}

// Next returns the due date one cadence step after from. The advance is always
// forward; unknown frequencies fall back to monthly.
func (f PMFrequency) Next(from time.Time) time.Time {
	switch f {
	case PMFrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case PMFrequencyBiweekly:
		return from.AddDate(0, 0, 14)
	case PMFrequencyQuarterly:
		return from.AddDate(0, 3, 0)
	case PMFrequencySemiannual:
		return from.AddDate(0, 6, 0)
	case PMFrequencyAnnual:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// PMSchedule is a recurring template that materializes tickets on a cadence.
type PMSchedule struct {
	ID              string
	TenantID        string
	Name            string
	Description     string
	CategoryID      string
	Location        string
	AssetID         *string
	Frequency       PMFrequency
	NextDueDate     time.Time
	LastGeneratedAt *time.Time
	AssignedTo      *string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
