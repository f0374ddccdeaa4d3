package service

import (
	"time"

	"github.com/shenikar/police_alert_watcher/internal/models"
	"github.com/shenikar/police_alert_watcher/pkg/geo"
)

const (
	// suppressWindow is how long a prior alert keeps suppressing nearby
	// new reports, measured against the current processing time.
	suppressWindow = 3 * time.Hour

	// suppressRadiusMeters is the distance below which a new report is
	// considered a re-sighting of a prior alert.
	suppressRadiusMeters = 200.0
)

// Dedup returns the alerts of newBatch that are genuinely new relative to
// priorBatch, preserving their original order. Two passes run in sequence:
// an identity pass dropping ids already present in priorBatch, then a
// proximity pass dropping survivors that sit within suppressRadiusMeters of
// any prior alert whose report is at most suppressWindow old at now.
//
// Only the prior alert's age is checked, never the new alert's own
// timestamp, and a single matching prior alert suffices to suppress.
func Dedup(now time.Time, newBatch, priorBatch []models.Alert) []models.Alert {
	priorIDs := make(map[string]struct{}, len(priorBatch))
	for _, prior := range priorBatch {
		priorIDs[prior.ID] = struct{}{}
	}

	fresh := make([]models.Alert, 0, len(newBatch))
	for _, alert := range newBatch {
		if _, seen := priorIDs[alert.ID]; seen {
			continue
		}
		if suppressedByProximity(now, alert, priorBatch) {
			continue
		}
		fresh = append(fresh, alert)
	}
	return fresh
}

func suppressedByProximity(now time.Time, alert models.Alert, priorBatch []models.Alert) bool {
	for _, prior := range priorBatch {
		if now.Sub(prior.ReportedAt()) > suppressWindow {
			continue
		}
		dist := geo.Distance(alert.Latitude(), alert.Longitude(), prior.Latitude(), prior.Longitude())
		if dist <= suppressRadiusMeters {
			return true
		}
	}
	return false
}
