package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPMFrequencyNext(t *testing.T) {
	from := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		frequency PMFrequency
		want      time.Time
	}{
		{PMFrequencyWeekly, time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC)},
		{PMFrequencyBiweekly, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)},
		// AddDate normalizes: Jan 31 + 1 month is Feb 31, which rolls over
		// to Mar 3 in the non-leap 2026.
		{PMFrequencyMonthly, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
		{PMFrequencyQuarterly, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		{PMFrequencySemiannual, time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)},
		{PMFrequencyAnnual, time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(string(tc.frequency), func(t *testing.T) {
			assert.True(t, tc.frequency.Next(from).Equal(tc.want),
				"got %s", tc.frequency.Next(from))
		})
	}
}

func TestPMFrequencyNextUnknownFallsBackToMonthly(t *testing.T) {
	from := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	got := PMFrequency("FORTNIGHTLY").Next(from)
	assert.True(t, got.Equal(time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)))
}

func TestTicketStatusTerminal(t *testing.T) {
	assert.True(t, TicketStatusClosed.Terminal())
	assert.True(t, TicketStatusRejected.Terminal())
	assert.False(t, TicketStatusSubmitted.Terminal())
	assert.False(t, TicketStatusCompleted.Terminal())
}

func TestSeverityForPriority(t *testing.T) {
	assert.Equal(t, IncidentSeverityCritical, SeverityForPriority(TicketPriorityCritical))
	assert.Equal(t, IncidentSeverityHigh, SeverityForPriority(TicketPriorityHigh))
	assert.Equal(t, IncidentSeverityHigh, SeverityForPriority(TicketPriorityLow))
}

func TestCategoryRequiresApproval(t *testing.T) {
	threshold := 1000.0
	gated := Category{ApprovalThreshold: &threshold}
	open := Category{}

	assert.True(t, gated.RequiresApproval(1000))
	assert.True(t, gated.RequiresApproval(2500))
	assert.False(t, gated.RequiresApproval(999.99))
	assert.False(t, open.RequiresApproval(1_000_000))
}

func TestApprovalActive(t *testing.T) {
	assert.True(t, (&CostApproval{Status: ApprovalStatusPending}).Active())
	assert.True(t, (&CostApproval{Status: ApprovalStatusApproved}).Active())
	assert.False(t, (&CostApproval{Status: ApprovalStatusDenied}).Active())
}
