// Package config handles configuration for the client component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the DocForge client.
//
// Fields:
//   - ServerEndpointURL: base URL of the processor API.
//   - UploadBucket: object-storage bucket receiving user uploads.
//   - S3AccessKey / S3SecretKey / S3Region / S3BaseEndpoint: object storage
//     access settings (MinIO-compatible).
//   - DownloadDir: local directory receiving finished artifacts.
//   - DownloadDelay: pause between sequential downloads of a multi-output
//     result.
//   - FreeMaxFileSize: per-file byte ceiling for the free plan. This is a
//     policy value, deliberately configurable.
type Config struct {
	ServerEndpointURL string
	UploadBucket      string
	S3AccessKey       string
	S3SecretKey       string
	S3Region          string
	S3BaseEndpoint    string
	DownloadDir       string
	DownloadDelay     time.Duration
	FreeMaxFileSize   int64
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://127.0.0.1:8080"
	c.UploadBucket = "documents"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.DownloadDir = "downloads"
	c.DownloadDelay = 1 * time.Second
	c.FreeMaxFileSize = 10 << 20
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
