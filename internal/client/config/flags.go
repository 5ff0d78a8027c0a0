package config

import (
	"flag"
	"os"
	"time"

	"github.com/docforge/docforge/internal/flagx"
)

// parseFlags populates selected client Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   processor API base URL
//	-b string   upload bucket name
//	-u string   S3 access key
//	-p string   S3 secret key
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-o string   downloads directory
//	-w int      delay between sequential downloads, seconds
//	-m int      free-plan file size ceiling, megabytes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-u", "-p", "-g", "-e", "-o", "-w", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerEndpointURL, "a", config.ServerEndpointURL, "processor API base URL")
	fs.StringVar(&config.UploadBucket, "b", config.UploadBucket, "upload bucket")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.DownloadDir, "o", config.DownloadDir, "downloads directory")

	downloadDelay := fs.Int("w", int(config.DownloadDelay.Seconds()), "download delay (in seconds)")
	freeMaxFileSize := fs.Int("m", int(config.FreeMaxFileSize>>20), "free plan size ceiling (in MB)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.DownloadDelay = time.Duration(*downloadDelay) * time.Second
	config.FreeMaxFileSize = int64(*freeMaxFileSize) << 20
}
