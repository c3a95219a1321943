package dataset

import (
	"time"

	"github.com/snowcore/pdm-cli/internal/correlation"
	"github.com/snowcore/pdm-cli/internal/cost"
	"github.com/snowcore/pdm-cli/internal/graph"
)

// referenceStart anchors the generated humidity history.
var referenceStart = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

// ReferenceConfidences is the demo anomaly state: a humidity excursion in the
// layup room and a degrading vacuum pump on AUTOCLAVE_01.
func ReferenceConfidences() map[string]float64 {
	return map[string]float64{
		"LAYUP_ROOM":    0.8,
		"LAYUP_BOT_01":  0.6,
		"LAYUP_BOT_02":  0.3,
		"AUTOCLAVE_01":  0.9,
		"AUTOCLAVE_02":  0.2,
		"CNC_MILL_01":   0.7,
		"CNC_MILL_02":   0.1,
		"QC_STATION_01": 0.5,
		"QC_STATION_02": 0.1,
	}
}

// Reference returns the demo plant snapshot with hours of humidity readings
// and the scrap outcome of each batch cured lag later.
func Reference(hours int, lag time.Duration) *Snapshot {
	readings, outcomes := ReferenceHistory(hours, lag)
	return &Snapshot{
		Assets:      graph.ReferenceAssets(),
		Edges:       graph.ReferenceEdges(),
		Profiles:    cost.ReferenceProfiles(),
		Confidences: ReferenceConfidences(),
		Readings:    readings,
		Outcomes:    outcomes,
	}
}

// ReferenceHistory generates hourly humidity readings cycling through
// 48-73% and a scrap outcome lag after each. Scrap frequency climbs with
// humidity: one batch in ten below 60%, one in five up to 65%, one in three
// up to 70% and every other batch above. The sequence is deterministic.
func ReferenceHistory(hours int, lag time.Duration) ([]correlation.Reading, []correlation.Outcome) {
	readings := make([]correlation.Reading, 0, hours)
	outcomes := make([]correlation.Outcome, 0, hours)
	for i := 0; i < hours; i++ {
		at := referenceStart.Add(time.Duration(i) * time.Hour)
		h := 48 + float64((i*7)%26)

		var every int
		switch {
		case h < 60:
			every = 10
		case h < 65:
			every = 5
		case h < 70:
			every = 3
		default:
			every = 2
		}

		readings = append(readings, correlation.Reading{At: at, Value: h})
		outcomes = append(outcomes, correlation.Outcome{At: at.Add(lag), Positive: i%every == 0})
	}
	return readings, outcomes
}
