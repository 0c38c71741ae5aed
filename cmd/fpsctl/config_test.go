package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fps/fps"
)

func TestLoadConfig_Defaults(t *testing.T) {
	fs := newFlagSet()
	require.NoError(t, fs.Parse(nil))

	cfg, err := loadConfig(fs)
	require.NoError(t, err)

	assert.Equal(t, fps.DefaultPortName, cfg.Sensor.Port)
	assert.Equal(t, fps.DefaultBaudRate, cfg.Sensor.Baud)
	assert.Equal(t, fps.DefaultSettleInterval, cfg.Sensor.Settle)
	assert.Equal(t, fps.DefaultMaxDrainRounds, cfg.Sensor.MaxDrainRounds)
	assert.Equal(t, 30*time.Second, cfg.Sensor.CommandTimeout)
	assert.False(t, cfg.Sensor.Simulate)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoadConfig_FileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fps.yaml")
	yaml := `
sensor:
  port: /dev/ttyUSB3
  baud: 57600
  readTimeout: 3s
  maxDrainRounds: 64
logging:
  level: debug
  file:
    filename: /tmp/fps.log
    maxSize: 5
metrics:
  addr: ":9100"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("FPS_SENSOR_SETTLE", "250ms")

	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--config", path, "--baud", "115200", "--simulate"}))

	cfg, err := loadConfig(fs)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB3", cfg.Sensor.Port)
	assert.Equal(t, 115200, cfg.Sensor.Baud, "flag wins over file")
	assert.Equal(t, 3*time.Second, cfg.Sensor.ReadTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Sensor.Settle, "env wins over default")
	assert.Equal(t, 64, cfg.Sensor.MaxDrainRounds)
	assert.True(t, cfg.Sensor.Simulate)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/fps.log", cfg.Logging.File.Filename)
	assert.Equal(t, 5, cfg.Logging.File.MaxSizeMB)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}))

	_, err := loadConfig(fs)
	require.Error(t, err)
}

func TestSensorOptions(t *testing.T) {
	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--baud", "38400", "--settle", "0s"}))

	cfg, err := loadConfig(fs)
	require.NoError(t, err)

	sensorCfg, err := fps.NewConfig(cfg.Sensor.Port, cfg.Sensor.sensorOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 38400, sensorCfg.BaudRate())
	assert.Zero(t, sensorCfg.SettleInterval())
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpsctl.log")

	var stdout testWriter
	log, closer := newLogger(LoggingConfig{Level: "info", File: LumberjackConfig{Filename: path, MaxSizeMB: 1}}, &stdout)
	require.NotNil(t, closer)

	log.Info("hello", "key", "value")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, stdout.String(), `"key":"value"`)
}

func TestNewLogger_StdoutOnly(t *testing.T) {
	var stdout testWriter
	log, closer := newLogger(LoggingConfig{Level: "warn"}, &stdout)
	assert.Nil(t, closer)

	log.Info("dropped")
	log.Warn("kept")
	assert.NotContains(t, stdout.String(), "dropped")
	assert.Contains(t, stdout.String(), "kept")
}
