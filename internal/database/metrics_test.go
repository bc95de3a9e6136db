package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, InitDB(filepath.Join(t.TempDir(), "data", "bot.db")))
	t.Cleanup(func() { _ = CloseDB() })
}

func TestMetric_SaveAndGet(t *testing.T) {
	openTestDB(t)

	v, err := GetMetric("commands_processed")
	require.NoError(t, err)
	require.Zero(t, v)

	require.NoError(t, SaveMetric("commands_processed", 12))
	require.NoError(t, SaveMetric("commands_processed", 15))

	v, err = GetMetric("commands_processed")
	require.NoError(t, err)
	require.Equal(t, 15.0, v)
}

func TestMetric_WithLabels(t *testing.T) {
	openTestDB(t)

	require.NoError(t, SaveMetricWithLabels("messages_per_channel", "42", "PrivateChat-42", 3))
	require.NoError(t, SaveMetricWithLabels("messages_per_channel", "43", "group", 7))
	require.NoError(t, SaveMetric("messages_per_channel", 99))

	got, err := GetMetricsWithLabels("messages_per_channel")
	require.NoError(t, err)
	require.Equal(t, map[string]map[string]float64{
		"42": {"PrivateChat-42": 3},
		"43": {"group": 7},
	}, got)
}
