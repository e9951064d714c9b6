package maintenance_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/pinpoint/internal/maintenance"
	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportStore(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filepath.Join(filet.TmpDir(t, ""), "reports")
	reports := maintenance.NewReportStore(dir)

	_, err := reports.LatestScan()
	require.ErrorIs(t, err, maintenance.ErrNoReport)

	older := &models.ScanReport{RunID: "older", GeneratedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	newer := &models.ScanReport{RunID: "newer", GeneratedAt: time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)}

	newerPath, err := reports.WriteScan(newer)
	require.NoError(t, err)
	assert.Equal(t, "geocode-scan-20250502T090000.000Z.json", filepath.Base(newerPath))

	_, err = reports.WriteScan(older)
	require.NoError(t, err)

	t.Run("reports are write-once", func(t *testing.T) {
		_, err := reports.WriteScan(&models.ScanReport{RunID: "clash", GeneratedAt: newer.GeneratedAt})
		require.Error(t, err)

		stored, err := reports.ReadScan(newerPath)
		require.NoError(t, err)
		assert.Equal(t, "newer", stored.RunID)
	})

	t.Run("latest scan ignores summaries", func(t *testing.T) {
		_, err := reports.WriteSummary(&models.RegeocodeSummary{
			RunID: "summary", FinishedAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		latest, err := reports.LatestScan()
		require.NoError(t, err)
		assert.Equal(t, newerPath, latest)
	})

	t.Run("scan path stays inside the reports directory", func(t *testing.T) {
		path, err := reports.ScanPath(filepath.Base(newerPath))
		require.NoError(t, err)
		assert.Equal(t, newerPath, path)

		for _, name := range []string{"../geocode-scan-x.json", "sub/geocode-scan-x.json", "..", "", "notes.json"} {
			_, err = reports.ScanPath(name)
			require.ErrorIs(t, err, maintenance.ErrInvalidReportName, name)
		}
	})

	t.Run("missing report", func(t *testing.T) {
		_, err := reports.ReadScan(filepath.Join(dir, "geocode-scan-missing.json"))
		require.ErrorIs(t, err, maintenance.ErrNoReport)
	})

	t.Run("unreadable report", func(t *testing.T) {
		broken := filepath.Join(dir, "broken.json")
		filet.File(t, broken, "nope")

		_, err := reports.ReadScan(broken)
		require.ErrorContains(t, err, "failed to decode scan report")
	})
}
