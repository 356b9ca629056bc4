package collector

import (
	"sort"
	"strings"

	"github.com/sowmiyavani28/Flight-Analytics-App/models"
)

// ComputeDelaySummary aggregates one day of flights at one airport into a
// delay summary row. A departure leg counts when both departure
// timestamps are known, an arrival leg when both arrival timestamps are
// known; delays are clipped at zero so early movements do not offset late
// ones.
func ComputeDelaySummary(flights []models.Flight, iata, date string) models.AirportDelay {
	var delays []float64
	canceled := 0

	for _, f := range flights {
		atOrigin := f.OriginIATA != nil && *f.OriginIATA == iata
		atDestination := f.DestinationIATA != nil && *f.DestinationIATA == iata

		if isCancelledStatus(f.Status) && (atOrigin || atDestination) {
			canceled++
		}

		if atOrigin && f.ScheduledDeparture != nil && f.ActualDeparture != nil {
			delays = append(delays, clipDelay(f.ActualDeparture.Sub(*f.ScheduledDeparture).Minutes()))
		}
		if atDestination && f.ScheduledArrival != nil && f.ActualArrival != nil {
			delays = append(delays, clipDelay(f.ActualArrival.Sub(*f.ScheduledArrival).Minutes()))
		}
	}

	delayed := 0
	for _, d := range delays {
		if d > 0 {
			delayed++
		}
	}

	return models.AirportDelay{
		AirportIATA:     iata,
		DelayDate:       date,
		TotalFlights:    len(delays),
		DelayedFlights:  delayed,
		AvgDelayMin:     mean(delays),
		MedianDelayMin:  median(delays),
		CanceledFlights: canceled,
	}
}

// isCancelledStatus matches the spellings the provider uses (Canceled,
// Cancelled, CanceledUncertain).
func isCancelledStatus(status string) bool {
	return strings.HasPrefix(strings.ToLower(status), "cancel")
}

func clipDelay(minutes float64) float64 {
	if minutes < 0 {
		return 0
	}
	return minutes
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
