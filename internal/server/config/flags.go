package config

import (
	"flag"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/accountability/internal/flagx"
)

var knownFlags = []string{
	"-a", "-d", "-s", "-t", "-m", "-g", "-l",
	"-cors", "-alerts", "-alert-tz", "-alert-interval", "-notify",
	"-aws-region", "-aws-endpoint", "-s3-bucket", "-cascade-delete",
}

// parseFlags populates Config fields from command-line flags.
//
//	-a string          HTTP bind address (":8080")
//	-d string          PostgreSQL DSN
//	-s string          JWT HMAC secret key
//	-t duration        session token validity ("168h")
//	-m string          storage: postgres | memory
//	-g string          Google OAuth client ID
//	-l string          log level
//	-cors string       comma separated CORS origins
//	-alerts bool       run the reminder scheduler
//	-alert-tz string   IANA timezone of alert times
//	-alert-interval d  scheduler tick interval
//	-notify string     reminder sender: log | sns
//	-aws-region, -aws-endpoint, -s3-bucket
//	-cascade-delete    delete accomplishments along with their user
//
// Only these flags are looked at, so -c/-config and -env-file do not collide.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.TokenValidityDuration, "t", config.TokenValidityDuration, "session token validity")
	fs.StringVar(&config.Storage, "m", config.Storage, "storage backend")
	fs.StringVar(&config.GoogleClientID, "g", config.GoogleClientID, "Google OAuth client ID")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	cors := fs.String("cors", strings.Join(config.CORSOrigins, ","), "CORS origins")

	fs.BoolVar(&config.AlertsEnabled, "alerts", config.AlertsEnabled, "run alert scheduler")
	fs.StringVar(&config.AlertTimezone, "alert-tz", config.AlertTimezone, "alert timezone")
	fs.DurationVar(&config.AlertInterval, "alert-interval", config.AlertInterval, "alert tick interval")
	fs.StringVar(&config.NotifySender, "notify", config.NotifySender, "notification sender")

	fs.StringVar(&config.AWSRegion, "aws-region", config.AWSRegion, "AWS region")
	fs.StringVar(&config.AWSEndpoint, "aws-endpoint", config.AWSEndpoint, "AWS endpoint override")
	fs.StringVar(&config.S3Bucket, "s3-bucket", config.S3Bucket, "S3 bucket for exports")
	fs.BoolVar(&config.CascadeDelete, "cascade-delete", config.CascadeDelete, "cascade user deletes")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.CORSOrigins = splitList(*cors)
	return nil
}
