package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/docforge/docforge/internal/flagx"
	"github.com/docforge/docforge/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "1s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	ServerEndpointURL string         `json:"server_endpoint_url"`
	UploadBucket      string         `json:"upload_bucket"`
	S3AccessKey       string         `json:"s3_access_key"`
	S3SecretKey       string         `json:"s3_secret_key"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	DownloadDir       string         `json:"download_dir"`
	DownloadDelay     timex.Duration `json:"download_delay"`
	FreeMaxFileSizeMB int64          `json:"free_max_file_size_mb"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags; if absent,
// nothing is loaded. Read or unmarshal errors panic, matching the
// defaults -> JSON -> flags loading sequence where later stages override
// earlier ones.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.ServerEndpointURL = c.ServerEndpointURL
	config.UploadBucket = c.UploadBucket
	config.S3AccessKey = c.S3AccessKey
	config.S3SecretKey = c.S3SecretKey
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.DownloadDir = c.DownloadDir
	config.DownloadDelay = time.Duration(c.DownloadDelay.Duration)
	config.FreeMaxFileSize = c.FreeMaxFileSizeMB << 20
}
