package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/workload-dashboard/internal/config"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()

	for _, name := range []string{"serve", "workload", "overview"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestDateFlag(t *testing.T) {
	cmd := workloadCmd()

	d, err := dateFlag(cmd)
	require.NoError(t, err)
	assert.Equal(t, dateutil.Today(), d)

	require.NoError(t, cmd.Flags().Set("date", "2024-05-08"))
	d, err = dateFlag(cmd)
	require.NoError(t, err)
	assert.Equal(t, dateutil.New(2024, 5, 8), d)

	require.NoError(t, cmd.Flags().Set("date", "08/05/2024"))
	_, err = dateFlag(cmd)
	assert.ErrorContains(t, err, "invalid --date")
}

func TestCapacityFlag(t *testing.T) {
	cfg := &config.Config{DefaultCapacityHours: 7}
	cmd := overviewCmd()

	assert.Equal(t, 7.0, capacityFlag(cmd, cfg))

	require.NoError(t, cmd.Flags().Set("capacity", "5.5"))
	assert.Equal(t, 5.5, capacityFlag(cmd, cfg))
}
