package service

import (
	"testing"
	"time"

	"github.com/shenikar/police_alert_watcher/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alertAt(id string, lat, lon float64, since time.Time) models.Alert {
	return models.Alert{
		ID:    id,
		X:     lon,
		Y:     lat,
		Since: since.UnixMilli(),
	}
}

func TestDedup_EmptyPriorKeepsEverything(t *testing.T) {
	now := time.Now()
	newBatch := []models.Alert{
		alertAt("a", 49.0, 12.05, now),
		alertAt("b", 49.1, 12.10, now),
	}

	fresh := Dedup(now, newBatch, nil)

	assert.Equal(t, newBatch, fresh)
}

func TestDedup_EmptyNewBatch(t *testing.T) {
	now := time.Now()
	prior := []models.Alert{alertAt("a", 49.0, 12.05, now)}

	fresh := Dedup(now, nil, prior)

	assert.Empty(t, fresh)
}

func TestDedup_IdentityMatchSuppressed(t *testing.T) {
	now := time.Now()
	// Same id but a completely different position and an ancient prior
	// timestamp: the identity pass alone must drop it.
	prior := []models.Alert{alertAt("a", 10.0, 10.0, now.Add(-48*time.Hour))}
	newBatch := []models.Alert{alertAt("a", 49.0, 12.05, now)}

	fresh := Dedup(now, newBatch, prior)

	assert.Empty(t, fresh)
}

func TestDedup_NeverContainsPriorIDs(t *testing.T) {
	now := time.Now()
	prior := []models.Alert{
		alertAt("a", 10.0, 10.0, now.Add(-48*time.Hour)),
		alertAt("b", 20.0, 20.0, now.Add(-48*time.Hour)),
	}
	newBatch := []models.Alert{
		alertAt("a", 49.0, 12.05, now),
		alertAt("c", 49.1, 12.10, now),
		alertAt("b", 49.2, 12.20, now),
	}

	fresh := Dedup(now, newBatch, prior)

	require.Len(t, fresh, 1)
	assert.Equal(t, "c", fresh[0].ID)
}

func TestDedup_NearbyRecentPriorSuppresses(t *testing.T) {
	now := time.Now()
	// ~55 m away, reported 30 minutes ago: inside both thresholds.
	prior := []models.Alert{alertAt("old", 49.0, 12.05, now.Add(-30*time.Minute))}
	newBatch := []models.Alert{alertAt("new", 49.0005, 12.05, now)}

	fresh := Dedup(now, newBatch, prior)

	assert.Empty(t, fresh)
}

func TestDedup_NearbyStalePriorDoesNotSuppress(t *testing.T) {
	now := time.Now()
	// Same positions, but the prior report is 4 hours old.
	prior := []models.Alert{alertAt("old", 49.0, 12.05, now.Add(-4*time.Hour))}
	newBatch := []models.Alert{alertAt("new", 49.0005, 12.05, now)}

	fresh := Dedup(now, newBatch, prior)

	require.Len(t, fresh, 1)
	assert.Equal(t, "new", fresh[0].ID)
}

func TestDedup_DistantRecentPriorDoesNotSuppress(t *testing.T) {
	now := time.Now()
	// ~1.1 km away, reported just now: outside the radius regardless of age.
	prior := []models.Alert{alertAt("old", 49.0, 12.05, now)}
	newBatch := []models.Alert{alertAt("new", 49.01, 12.05, now)}

	fresh := Dedup(now, newBatch, prior)

	require.Len(t, fresh, 1)
	assert.Equal(t, "new", fresh[0].ID)
}

func TestDedup_PriorAgeMeasuredAgainstNow(t *testing.T) {
	now := time.Now()
	// The new alert's own timestamp is ancient, but suppression only
	// consults the prior alert's age.
	prior := []models.Alert{alertAt("old", 49.0, 12.05, now.Add(-time.Hour))}
	newBatch := []models.Alert{alertAt("new", 49.0005, 12.05, now.Add(-240*time.Hour))}

	fresh := Dedup(now, newBatch, prior)

	assert.Empty(t, fresh)
}

func TestDedup_AnySingleMatchSuffices(t *testing.T) {
	now := time.Now()
	prior := []models.Alert{
		alertAt("far", 10.0, 10.0, now),
		alertAt("stale", 49.0, 12.05, now.Add(-5*time.Hour)),
		alertAt("near", 49.0, 12.05, now.Add(-10*time.Minute)),
	}
	newBatch := []models.Alert{alertAt("new", 49.0005, 12.05, now)}

	fresh := Dedup(now, newBatch, prior)

	assert.Empty(t, fresh)
}

func TestDedup_PreservesOrder(t *testing.T) {
	now := time.Now()
	prior := []models.Alert{alertAt("dup", 0, 0, now.Add(-48*time.Hour))}
	newBatch := []models.Alert{
		alertAt("c", 49.0, 12.05, now),
		alertAt("dup", 49.1, 12.10, now),
		alertAt("a", 49.2, 12.20, now),
		alertAt("b", 49.3, 12.30, now),
	}

	fresh := Dedup(now, newBatch, prior)

	require.Len(t, fresh, 3)
	assert.Equal(t, "c", fresh[0].ID)
	assert.Equal(t, "a", fresh[1].ID)
	assert.Equal(t, "b", fresh[2].ID)
}
