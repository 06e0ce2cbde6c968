package cli

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	for _, path := range [][]string{
		{"start"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"seed"},
		{"worker", "run"},
		{"report", "profit-loss"},
		{"report", "balance-sheet"},
		{"report", "expense-summary"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestRangeFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	addRangeFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--from", "2026-01-01", "--to", "2026-03-31"}))

	q, err := rangeFlags(cmd)
	require.NoError(t, err)
	require.NotNil(t, q.From)
	require.NotNil(t, q.To)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), q.From.Time())

	from, to := q.Bounds()
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestRangeFlagsRejectsBadDate(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	addRangeFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--from", "01/02/2026"}))

	_, err := rangeFlags(cmd)
	assert.ErrorContains(t, err, "--from")
}
