package collector

import (
	"testing"
	"time"

	"github.com/sowmiyavani28/Flight-Analytics-App/models"
)

func ts(hour, minute int) *time.Time {
	t := time.Date(2025, 3, 1, hour, minute, 0, 0, time.UTC)
	return &t
}

func TestComputeDelaySummary(t *testing.T) {
	myq := "MYQ"
	del := "DEL"

	flights := []models.Flight{
		{
			// Departure 20 minutes late.
			OriginIATA:         &myq,
			DestinationIATA:    &del,
			ScheduledDeparture: ts(5, 0),
			ActualDeparture:    ts(5, 20),
			Status:             "Departed",
		},
		{
			// Arrival 10 minutes early: clipped to zero, still counted.
			OriginIATA:       &del,
			DestinationIATA:  &myq,
			ScheduledArrival: ts(9, 0),
			ActualArrival:    ts(8, 50),
			Status:           "Arrived",
		},
		{
			// No actual departure yet: excluded from delay stats.
			OriginIATA:         &myq,
			DestinationIATA:    &del,
			ScheduledDeparture: ts(12, 0),
			Status:             "Expected",
		},
		{
			// Cancelled: counted in canceled_flights only.
			OriginIATA:         &myq,
			DestinationIATA:    &del,
			ScheduledDeparture: ts(15, 0),
			Status:             "Canceled",
		},
		{
			// Different airport on both ends: ignored entirely.
			OriginIATA:         &del,
			DestinationIATA:    &del,
			ScheduledDeparture: ts(16, 0),
			ActualDeparture:    ts(17, 0),
			Status:             "Canceled",
		},
	}

	summary := ComputeDelaySummary(flights, "MYQ", "2025-03-01")

	if summary.AirportIATA != "MYQ" || summary.DelayDate != "2025-03-01" {
		t.Errorf("identity = %s/%s", summary.AirportIATA, summary.DelayDate)
	}
	if summary.TotalFlights != 2 {
		t.Errorf("TotalFlights = %d, want 2", summary.TotalFlights)
	}
	if summary.DelayedFlights != 1 {
		t.Errorf("DelayedFlights = %d, want 1", summary.DelayedFlights)
	}
	if summary.AvgDelayMin != 10 {
		t.Errorf("AvgDelayMin = %v, want 10", summary.AvgDelayMin)
	}
	if summary.MedianDelayMin != 10 {
		t.Errorf("MedianDelayMin = %v, want 10", summary.MedianDelayMin)
	}
	if summary.CanceledFlights != 1 {
		t.Errorf("CanceledFlights = %d, want 1", summary.CanceledFlights)
	}
}

func TestComputeDelaySummaryEmpty(t *testing.T) {
	summary := ComputeDelaySummary(nil, "MYQ", "2025-03-01")
	if summary.TotalFlights != 0 || summary.AvgDelayMin != 0 || summary.MedianDelayMin != 0 {
		t.Errorf("empty summary = %+v, want zeros", summary)
	}
}

func TestIsCancelledStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"Canceled", true},
		{"CanceledUncertain", true},
		{"Cancelled", true},
		{"canceled", true},
		{"Departed", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isCancelledStatus(tt.status); got != tt.want {
			t.Errorf("isCancelledStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{7}, 7},
		{"odd", []float64{30, 0, 10}, 10},
		{"even", []float64{0, 10, 20, 50}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := median(tt.values); got != tt.want {
				t.Errorf("median(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestClipDelay(t *testing.T) {
	if got := clipDelay(-15); got != 0 {
		t.Errorf("clipDelay(-15) = %v, want 0", got)
	}
	if got := clipDelay(42); got != 42 {
		t.Errorf("clipDelay(42) = %v, want 42", got)
	}
}

func TestParseUTC(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2025-03-01 05:00Z", ts(5, 0)},
		{"2025-03-01T05:00Z", ts(5, 0)},
		{"2025-03-01T05:00:00Z", ts(5, 0)},
		{"", nil},
		{"not a time", nil},
	}
	for _, tt := range tests {
		got := parseUTC(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseUTC(%q) = %v, want nil", tt.in, got)
		case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
			t.Errorf("parseUTC(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
