package config

import (
	"flag"
	"os"
	"time"

	"github.com/docforge/docforge/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address
//	-d string   PostgreSQL DSN
//	-k string   JWT signing secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, hours
//	-u string   S3 access key
//	-p string   S3 secret key
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-b string   upload bucket
//	-x string   redis address for usage counters
//	-n int      free plan monthly operation cap
//	-l int      simulated engine latency, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-k", "-t", "-r", "-u", "-p", "-g", "-e", "-b", "-x", "-n", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "HTTP bind address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "PostgreSQL DSN")
	fs.StringVar(&config.SecretKey, "k", config.SecretKey, "JWT signing secret")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.UploadBucket, "b", config.UploadBucket, "upload bucket")
	fs.StringVar(&config.RedisAddr, "x", config.RedisAddr, "redis address")
	fs.Int64Var(&config.FreeMonthlyOperations, "n", config.FreeMonthlyOperations, "free plan monthly operation cap")

	accessValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshValidity := fs.Int("r", int(config.RefreshTokenValidityDuration.Hours()), "refresh token validity (in hours)")
	engineLatency := fs.Int("l", int(config.EngineLatency.Seconds()), "engine latency (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessValidity) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshValidity) * time.Hour
	config.EngineLatency = time.Duration(*engineLatency) * time.Second
}
