package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/internal/primitives"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	p := Default()
	p.CollectingHeartbeatsDurationInBlocks = 0
	p.MinJobExpiresIn = p.MaxJobExpiresIn + 1
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collecting_heartbeats_duration_in_blocks")
	assert.Contains(t, err.Error(), "min_job_expires_in")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	content := "register_worker_deposit = 100\ncollecting_heartbeats_duration_in_blocks = 6\ndisallow_opt_out_attestation = true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("COMPUTEPLANE_MAX_JOBS_PER_POOL", "3")

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, primitives.Balance(100), p.RegisterWorkerDeposit)
	assert.Equal(t, primitives.BlockNumber(6), p.CollectingHeartbeatsDurationInBlocks)
	assert.True(t, p.DisallowOptOutAttestation)
	assert.Equal(t, uint32(3), p.MaxJobsPerPool)
	assert.Equal(t, Default().InputLimit, p.InputLimit)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("handle_unresponsive_per_block_limit: 0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handle_unresponsive_per_block_limit")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
