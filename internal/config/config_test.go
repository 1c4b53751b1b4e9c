package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"signal": { "phoneNumber": "+491701234567", "daemonHost": "10.0.0.1", "daemonPort": 7600 },
		"tak": { "cotUrl": "tcp://takserver:8087", "staleSeconds": 300 }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sigtak_bridge.cfg.json"), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))

	sig := GetSignalConfig()
	assert.Equal(t, "+491701234567", sig.PhoneNumber)
	assert.Equal(t, "10.0.0.1", sig.DaemonHost)
	assert.Equal(t, 7600, sig.DaemonPort)
	assert.True(t, sig.ManageDaemon)

	tak := GetTAKConfig()
	assert.Equal(t, "tcp://takserver:8087", tak.CotURL)
	assert.Equal(t, 5*time.Minute, tak.Stale())
	assert.Equal(t, 50.0, tak.CircularError)
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sigtak_bridge.cfg.json"), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./logs", viper.GetString("logsDir"))
	assert.Equal(t, "127.0.0.1", viper.GetString("signal.daemonHost"))
	assert.Equal(t, 7583, viper.GetInt("signal.daemonPort"))
	assert.Equal(t, true, viper.GetBool("signal.manageDaemon"))
	assert.Equal(t, "udp://239.2.3.1:6969", viper.GetString("tak.cotUrl"))
	assert.Equal(t, 120, viper.GetInt("tak.staleSeconds"))
	assert.Equal(t, 4326, viper.GetInt("geo.inputEPSG"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "sigtak-bridge", viper.GetString("otel.serviceName"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "bridge_stats", viper.GetString("influx.bucket"))
	assert.Equal(t, time.Minute, GetInfluxConfig().ReportInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestGetGeoConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{ "geo": { "inputEPSG": 3857 } }`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sigtak_bridge.cfg.json"), []byte(cfg), 0644))
	require.NoError(t, Load(dir))

	assert.Equal(t, 3857, GetGeoConfig().InputEPSG)
}
