package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/accountability/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// loadDotenv is a seam for tests.
var loadDotenv = godotenv.Load

// parseEnv loads the dotenv file (-env-file, or ./.env when present) into the
// process environment without overriding variables already set, then copies
// the recognised variables into config:
//
//	HTTP_ADDRESS, DATABASE_URL, STORAGE, SECRET_KEY, TOKEN_VALIDITY,
//	GOOGLE_OAUTH_CLIENT, LOG_LEVEL, CORS_ORIGINS, ALERTS_ENABLED,
//	ALERT_TIMEZONE, ALERT_MESSAGE, ALERT_INTERVAL, ALERT_TICK_TIMEOUT,
//	ALERT_CONCURRENCY, NOTIFY_SENDER, NOTIFY_SEND_TIMEOUT, AWS_REGION,
//	AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_ENDPOINT_URL, S3_BUCKET,
//	CASCADE_DELETE
func parseEnv(config *Config) error {
	path := flagx.EnvFileFlag()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := loadDotenv(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("HTTP_ADDRESS", &config.EndpointAddrHTTP)
	str("DATABASE_URL", &config.DatabaseDSN)
	str("STORAGE", &config.Storage)
	str("SECRET_KEY", &config.SecretKey)
	dur("TOKEN_VALIDITY", &config.TokenValidityDuration)
	str("GOOGLE_OAUTH_CLIENT", &config.GoogleClientID)
	str("LOG_LEVEL", &config.LogLevel)
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		config.CORSOrigins = splitList(v)
	}

	boolean("ALERTS_ENABLED", &config.AlertsEnabled)
	str("ALERT_TIMEZONE", &config.AlertTimezone)
	str("ALERT_MESSAGE", &config.AlertMessage)
	dur("ALERT_INTERVAL", &config.AlertInterval)
	dur("ALERT_TICK_TIMEOUT", &config.AlertTickTimeout)
	if v, ok := os.LookupEnv("ALERT_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ALERT_CONCURRENCY: %w", err))
		} else {
			config.AlertConcurrency = n
		}
	}
	str("NOTIFY_SENDER", &config.NotifySender)
	dur("NOTIFY_SEND_TIMEOUT", &config.NotifySendTimeout)

	str("AWS_REGION", &config.AWSRegion)
	str("AWS_ACCESS_KEY_ID", &config.AWSAccessKey)
	str("AWS_SECRET_ACCESS_KEY", &config.AWSSecretKey)
	str("AWS_ENDPOINT_URL", &config.AWSEndpoint)
	str("S3_BUCKET", &config.S3Bucket)

	boolean("CASCADE_DELETE", &config.CascadeDelete)

	return errors.Join(errs...)
}
