package config

import (
	"fmt"
	"time"

	"github.com/koding/multiconfig"
)

// Config is the JSON configuration file. Defaults are applied through
// the `default` tags before the file is loaded on top of them.
type Config struct {
	InfluxDB InfluxDB  `json:"influxDb"`
	Accounts []Account `json:"accounts"`

	UpdateIntervalSecs         int    `json:"updateIntervalSecs" default:"60"`
	DetailedIntervalSecs       int    `json:"detailedIntervalSecs" default:"3600"`
	DetailedDataEnabled        bool   `json:"detailedDataEnabled"`
	DetailedDataSecondsEnabled bool   `json:"detailedDataSecondsEnabled" default:"true"`
	DetailedDataHoursEnabled   bool   `json:"detailedDataHoursEnabled" default:"true"`
	LagSecs                    int    `json:"lagSecs" default:"5"`
	Timezone                   string `json:"timezone"`
}

// Account is one set of cloud credentials plus optional friendly names
// for the circuits behind each device.
type Account struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Devices  []Device `json:"devices"`
}

// Device maps a device display name to an ordered list of channel
// names; position N names channel number N+1.
type Device struct {
	Name     string   `json:"name"`
	Channels []string `json:"channels"`
}

// InfluxDB selects and configures the database connection. Version 2
// uses url/token/org/bucket, version 1 uses host/port/database with
// optional credentials.
type InfluxDB struct {
	Version int `json:"version" default:"1"`

	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`

	Host      string `json:"host"`
	Port      int    `json:"port" default:"8086"`
	User      string `json:"user"`
	Pass      string `json:"pass"`
	Database  string `json:"database"`
	SSLEnable bool   `json:"ssl_enable"`
	SSLVerify bool   `json:"ssl_verify" default:"true"`
}

// Load reads the configuration file at path, applies defaults and
// validates the result.
func Load(path string) (*Config, error) {
	loader := multiconfig.MultiLoader(
		&multiconfig.TagLoader{},
		&multiconfig.JSONLoader{Path: path},
	)
	cfg := &Config{}
	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("error loading config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("no accounts configured")
	}
	for i, a := range c.Accounts {
		if a.Name == "" {
			return fmt.Errorf("account %d: name is required", i)
		}
		if a.Email == "" || a.Password == "" {
			return fmt.Errorf("account %s: email and password are required", a.Name)
		}
	}
	switch c.InfluxDB.Version {
	case 2:
		if c.InfluxDB.URL == "" || c.InfluxDB.Token == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			return fmt.Errorf("influxDb v2 requires url, token, org and bucket")
		}
	default:
		if c.InfluxDB.Host == "" || c.InfluxDB.Database == "" {
			return fmt.Errorf("influxDb v1 requires host and database")
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone, falling back to the
// process local zone when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("error loading timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalSecs) * time.Second
}

func (c *Config) DetailedInterval() time.Duration {
	return time.Duration(c.DetailedIntervalSecs) * time.Second
}

func (c *Config) Lag() time.Duration {
	return time.Duration(c.LagSecs) * time.Second
}
