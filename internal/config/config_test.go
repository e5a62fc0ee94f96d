package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 0.5, cfg.NMS.IoUThreshold, 1e-9)
	assert.Equal(t, 127, cfg.Image.ThresholdValue)
	assert.Equal(t, 255, cfg.Image.MaxValue)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidateLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "trace"
	require.Error(t, cfg.Validate())
}

func TestValidateIoUThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NMS.IoUThreshold = 1.5
	require.Error(t, cfg.Validate())

	cfg.NMS.IoUThreshold = -0.1
	require.Error(t, cfg.Validate())

	cfg.NMS.IoUThreshold = 1.0
	require.NoError(t, cfg.Validate())
}

func TestValidateSoftMethod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NMS.SoftMethod = "quadratic"
	require.Error(t, cfg.Validate())
}

func TestValidateImageValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Image.ThresholdValue = 300
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Image.MaxValue = -1
	require.Error(t, cfg.Validate())
}

func TestValidateServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.MaxBodyMB = 0
	require.Error(t, cfg.Validate())
}
