package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ebd/pkg/app"
	"github.com/deploymenttheory/go-ebd/pkg/app/exercise"
	"github.com/deploymenttheory/go-ebd/pkg/app/info"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--quiet"))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestInfoCommand(t *testing.T) {
	out, err := execute(t, "info", "-o", "json", "--drive-size", "2048", "--cipher", "cast5")
	require.NoError(t, err)

	var resp info.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, uint64(2048), resp.SectorCount)
	assert.Equal(t, "cast5", resp.Cipher)
	assert.Equal(t, 8, resp.BlockSize)
	assert.Equal(t, uint64(32), resp.Geometry.Cylinders)
}

func TestExerciseCommand(t *testing.T) {
	out, err := execute(t, "exercise", "-o", "json", "--drive-size", "256", "--workers", "4",
		"--per-request", "8", "--scheduler", "sstf", "--probe", "--timeout", "1m")
	require.NoError(t, err)

	var resp exercise.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Passed)
	assert.Equal(t, "sstf", resp.Scheduler)
	assert.Equal(t, 32, resp.Phases[0].Requests)
}

func TestCommandErrors(t *testing.T) {
	_, err := execute(t, "info", "--scheduler", "elevator")
	require.Error(t, err)
	assert.Equal(t, app.ErrCodeInvalidInput, app.ErrorCode(err))

	_, err = execute(t, "info", "--cipher", "rot13", "--scheduler", "fifo")
	require.Error(t, err)
	assert.Equal(t, app.ErrCodeDeviceInit, app.ErrorCode(err))
}
