package detection_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-insights/internal/core/detection"
)

func TestDefaultRules_Valid(t *testing.T) {
	rules := detection.DefaultRules()

	require.NoError(t, rules.Validate())
	for _, status := range []string{"Done", "Resolved", "Closed", "Cerrado", "Resuelto"} {
		assert.True(t, rules.IsTerminal(status), status)
	}
	assert.False(t, rules.IsTerminal("closed"))
	assert.False(t, rules.IsTerminal("In Progress"))
}

func TestLoadRules(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		rules, err := detection.LoadRules("")

		require.NoError(t, err)
		assert.Equal(t, detection.DefaultRules(), rules)
	})

	t.Run("overrides only the given keys", func(t *testing.T) {
		path := writeRulesFile(t, `
terminal_statuses: [Done, Won't Do]
creation_spike:
  window: 12h
  high_factor: 6
stalled:
  floor_hours: 72
`)

		rules, err := detection.LoadRules(path)

		require.NoError(t, err)
		assert.Equal(t, []string{"Done", "Won't Do"}, rules.TerminalStatuses)
		assert.Equal(t, 12*time.Hour, rules.CreationSpike.Window)
		assert.Equal(t, 6.0, rules.CreationSpike.HighFactor)
		assert.Equal(t, 3.0, rules.CreationSpike.MediumFactor)
		assert.Equal(t, 72.0, rules.Stalled.FloorHours)
		assert.Equal(t, 2.0, rules.Stalled.Factor)
		assert.Equal(t, 10, rules.SampleSize)
	})

	t.Run("rejects inverted severity factors", func(t *testing.T) {
		path := writeRulesFile(t, `
assignment:
  overload_factor: 4
  high_factor: 3
`)

		_, err := detection.LoadRules(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "assignment factors")
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := writeRulesFile(t, "creation_spike: [")

		_, err := detection.LoadRules(path)

		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := detection.LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))

		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
