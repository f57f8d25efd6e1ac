package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/accountability/internal/flagx"
	"github.com/dmitrijs2005/accountability/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations use
// timex.Duration so both "90s" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	DatabaseDSN           string         `json:"database_dsn"`
	Storage               string         `json:"storage"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	GoogleClientID        string         `json:"google_client_id"`
	LogLevel              string         `json:"log_level"`
	CORSOrigins           []string       `json:"cors_origins"`

	AlertsEnabled     bool           `json:"alerts_enabled"`
	AlertTimezone     string         `json:"alert_timezone"`
	AlertMessage      string         `json:"alert_message"`
	AlertInterval     timex.Duration `json:"alert_interval"`
	AlertTickTimeout  timex.Duration `json:"alert_tick_timeout"`
	AlertConcurrency  int            `json:"alert_concurrency"`
	NotifySender      string         `json:"notify_sender"`
	NotifySendTimeout timex.Duration `json:"notify_send_timeout"`

	AWSRegion    string `json:"aws_region"`
	AWSAccessKey string `json:"aws_access_key"`
	AWSSecretKey string `json:"aws_secret_key"`
	AWSEndpoint  string `json:"aws_endpoint"`
	S3Bucket     string `json:"s3_bucket"`

	CascadeDelete bool `json:"cascade_delete"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:      c.EndpointAddrHTTP,
		DatabaseDSN:           c.DatabaseDSN,
		Storage:               c.Storage,
		SecretKey:             c.SecretKey,
		TokenValidityDuration: timex.Duration{Duration: c.TokenValidityDuration},
		GoogleClientID:        c.GoogleClientID,
		LogLevel:              c.LogLevel,
		CORSOrigins:           c.CORSOrigins,
		AlertsEnabled:         c.AlertsEnabled,
		AlertTimezone:         c.AlertTimezone,
		AlertMessage:          c.AlertMessage,
		AlertInterval:         timex.Duration{Duration: c.AlertInterval},
		AlertTickTimeout:      timex.Duration{Duration: c.AlertTickTimeout},
		AlertConcurrency:      c.AlertConcurrency,
		NotifySender:          c.NotifySender,
		NotifySendTimeout:     timex.Duration{Duration: c.NotifySendTimeout},
		AWSRegion:             c.AWSRegion,
		AWSAccessKey:          c.AWSAccessKey,
		AWSSecretKey:          c.AWSSecretKey,
		AWSEndpoint:           c.AWSEndpoint,
		S3Bucket:              c.S3Bucket,
		CascadeDelete:         c.CascadeDelete,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.DatabaseDSN = j.DatabaseDSN
	c.Storage = j.Storage
	c.SecretKey = j.SecretKey
	c.TokenValidityDuration = j.TokenValidityDuration.Duration
	c.GoogleClientID = j.GoogleClientID
	c.LogLevel = j.LogLevel
	c.CORSOrigins = j.CORSOrigins
	c.AlertsEnabled = j.AlertsEnabled
	c.AlertTimezone = j.AlertTimezone
	c.AlertMessage = j.AlertMessage
	c.AlertInterval = j.AlertInterval.Duration
	c.AlertTickTimeout = j.AlertTickTimeout.Duration
	c.AlertConcurrency = j.AlertConcurrency
	c.NotifySender = j.NotifySender
	c.NotifySendTimeout = j.NotifySendTimeout.Duration
	c.AWSRegion = j.AWSRegion
	c.AWSAccessKey = j.AWSAccessKey
	c.AWSSecretKey = j.AWSSecretKey
	c.AWSEndpoint = j.AWSEndpoint
	c.S3Bucket = j.S3Bucket
	c.CascadeDelete = j.CascadeDelete
}

// parseJson overlays the JSON file selected with -c/-config onto config.
// Keys missing from the file keep their current values, since decoding
// starts from a copy of config.
func parseJson(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}
	c.apply(config)

	return nil
}
