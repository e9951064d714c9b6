package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/pinpoint/internal/maintenance"
	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every piece of state at a temporary directory and disables
// all providers, so commands never reach the network.
func isolate(t *testing.T) string {
	t.Helper()
	t.Cleanup(func() { filet.CleanUp(t) })

	dir := filet.TmpDir(t, "")
	t.Setenv("PINPOINT_ENV", envProd)
	t.Setenv("PINPOINT_CACHE_BACKEND", "file")
	t.Setenv("PINPOINT_CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("PINPOINT_REPORTS_DIR", filepath.Join(dir, "reports"))
	t.Setenv("PINPOINT_OVERRIDES_FILE", filepath.Join(dir, "data", "overrides.json"))
	t.Setenv("PINPOINT_NOMINATIM_ENABLED", "false")
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	t.Setenv("MAPBOX_TOKEN", "")
	t.Setenv("OPENCAGE_KEY", "")

	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(t.Context())

	return stdout.String(), err
}

func TestResolve_OverrideWinsWithoutProviders(t *testing.T) {
	isolate(t)

	_, err := run(t, "override", "set", "--address", "12 Oak St Apt 2 11221", "--lat", "40.69", "--lng", "-73.92")
	require.NoError(t, err)

	out, err := run(t, "resolve", "12 Oak St 11221")
	require.NoError(t, err)

	var got resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Point)
	assert.Equal(t, models.OverridePoint(40.69, -73.92), *got.Point)

	out, err = run(t, "override", "list")
	require.NoError(t, err)
	var overrides []models.Override
	require.NoError(t, json.Unmarshal([]byte(out), &overrides))
	require.Len(t, overrides, 1)
	assert.Equal(t, models.OverrideByAddress, overrides[0].Kind)
}

func TestResolve_NotFoundIsCached(t *testing.T) {
	isolate(t)

	out, err := run(t, "resolve", "99 Nowhere Rd")
	require.NoError(t, err)
	assert.Contains(t, out, `"point": null`)

	out, err = run(t, "cache", "get", "99 Nowhere Rd")
	require.NoError(t, err)
	var entry cacheEntryOutput
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, "99_nowhere_rd", entry.Key)
	require.NotNil(t, entry.Record)
	assert.Nil(t, entry.Record.Chosen)

	out, err = run(t, "cache", "list", "--flagged")
	require.NoError(t, err)
	assert.Contains(t, out, "99_nowhere_rd", "a record without a point is flagged")

	out, err = run(t, "cache", "delete", "99 Nowhere Rd")
	require.NoError(t, err)
	assert.Equal(t, "99_nowhere_rd\n", out)

	_, err = run(t, "cache", "get", "99 Nowhere Rd")
	require.ErrorIs(t, err, errNotCached)
}

func TestResolve_DryRunLeavesCacheAlone(t *testing.T) {
	isolate(t)

	out, err := run(t, "resolve", "--dry-run", "5 Elm St Suite 4 11375-1234")
	require.NoError(t, err)

	var got dryRunOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "5 Elm St 113751234", got.Normalized.Query)
	assert.Empty(t, got.Candidates)
	assert.Nil(t, got.Chosen)

	_, err = run(t, "cache", "get", "5 Elm St 11375-1234")
	require.ErrorIs(t, err, errNotCached)
}

func TestScanAndRegeocode(t *testing.T) {
	dir := isolate(t)

	_, err := run(t, "resolve", "1 Lost Ave")
	require.NoError(t, err)

	out, err := run(t, "scan", "--threshold", "0.9")
	require.NoError(t, err)
	var scan scanOutput
	require.NoError(t, json.Unmarshal([]byte(out), &scan))
	assert.Equal(t, 1, scan.Totals.Records)
	assert.Equal(t, 1, scan.Totals.NoChosen)
	assert.True(t, strings.HasPrefix(scan.Report, filepath.Join(dir, "reports")))

	_, err = run(t, "regeocode", "--providers", "google")
	require.ErrorIs(t, err, maintenance.ErrWriteNotAllowed)

	_, err = run(t, "regeocode", "--dry-run", "--providers", "google")
	require.ErrorIs(t, err, maintenance.ErrProviderNotConfigured, "google has no key")

	_, err = run(t, "scan", "--bbox", "1,2,3")
	require.ErrorIs(t, err, models.ErrInvalidBBox)
}

func TestOverrideSet_Validation(t *testing.T) {
	isolate(t)

	_, err := run(t, "override", "set", "--lat", "1", "--lng", "2")
	require.ErrorIs(t, err, errOverrideTarget)

	_, err = run(t, "override", "set", "--job", "J1", "--address", "1 A St", "--lat", "1", "--lng", "2")
	require.ErrorIs(t, err, errOverrideTarget)

	_, err = run(t, "override", "set", "--job", "J1")
	require.Error(t, err, "lat and lng are required")
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		env       string
		debug     bool
		warn      bool
		hasTime   bool
		jsonLines bool
	}{
		{env: envLocal, debug: true, warn: true, hasTime: true},
		{env: envDev, warn: true, hasTime: true, jsonLines: true},
		{env: envProd, warn: true, jsonLines: true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			logger := setupLogger(tt.env, &buf)

			assert.Equal(t, tt.debug, logger.Enabled(t.Context(), slog.LevelDebug))
			assert.Equal(t, tt.warn, logger.Enabled(t.Context(), slog.LevelWarn))

			logger.Warn("hello")
			assert.Equal(t, tt.hasTime, strings.Contains(buf.String(), "time"))
			assert.Equal(t, tt.jsonLines, strings.HasPrefix(buf.String(), "{"))
		})
	}

	t.Run("unknown env logs errors only and says so", func(t *testing.T) {
		var buf bytes.Buffer
		logger := setupLogger("staging", &buf)

		assert.False(t, logger.Enabled(t.Context(), slog.LevelWarn))
		assert.Contains(t, buf.String(), "available_envs")
	})
}
