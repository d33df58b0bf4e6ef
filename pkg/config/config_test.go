package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vuegraf.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
{
  "influxDb": {
    "host": "localhost",
    "database": "vuegraf"
  },
  "accounts": [
    {"name": "home", "email": "home@example.com", "password": "secret"}
  ]
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.UpdateIntervalSecs)
	assert.Equal(t, 3600, cfg.DetailedIntervalSecs)
	assert.False(t, cfg.DetailedDataEnabled)
	assert.True(t, cfg.DetailedDataSecondsEnabled)
	assert.True(t, cfg.DetailedDataHoursEnabled)
	assert.Equal(t, 5, cfg.LagSecs)
	assert.Equal(t, 1, cfg.InfluxDB.Version)
	assert.Equal(t, 8086, cfg.InfluxDB.Port)
	assert.True(t, cfg.InfluxDB.SSLVerify)
	assert.Equal(t, time.Minute, cfg.UpdateInterval())
	assert.Equal(t, 5*time.Second, cfg.Lag())
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
{
  "influxDb": {
    "version": 2,
    "url": "https://influx.example.com",
    "token": "t0ken",
    "org": "home",
    "bucket": "vuegraf"
  },
  "accounts": [
    {
      "name": "home",
      "email": "home@example.com",
      "password": "secret",
      "devices": [
        {"name": "Kitchen", "channels": ["Fridge", "Oven"]}
      ]
    }
  ],
  "updateIntervalSecs": 30,
  "detailedDataEnabled": true,
  "detailedDataSecondsEnabled": false,
  "timezone": "America/New_York"
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.UpdateIntervalSecs)
	assert.True(t, cfg.DetailedDataEnabled)
	assert.False(t, cfg.DetailedDataSecondsEnabled)
	assert.Equal(t, 2, cfg.InfluxDB.Version)

	require.Len(t, cfg.Accounts, 1)
	require.Len(t, cfg.Accounts[0].Devices, 1)
	assert.Equal(t, []string{"Fridge", "Oven"}, cfg.Accounts[0].Devices[0].Channels)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no accounts", `{"influxDb": {"host": "localhost", "database": "vuegraf"}}`},
		{"missing credentials", `{"influxDb": {"host": "localhost", "database": "vuegraf"}, "accounts": [{"name": "home"}]}`},
		{"v2 missing token", `{"influxDb": {"version": 2, "url": "http://i"}, "accounts": [{"name": "home", "email": "e", "password": "p"}]}`},
		{"v1 missing host", `{"influxDb": {}, "accounts": [{"name": "home", "email": "e", "password": "p"}]}`},
		{"bad timezone", `{"influxDb": {"host": "h", "database": "d"}, "timezone": "Not/AZone", "accounts": [{"name": "home", "email": "e", "password": "p"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestCappedHistoryDays(t *testing.T) {
	c := &CliConfig{HistoryDays: 45}
	assert.Equal(t, 45, c.CappedHistoryDays())

	c.HistoryDays = 10000
	assert.Equal(t, 720, c.CappedHistoryDays())
}
