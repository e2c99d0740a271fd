package config

import "time"

// Config holds runtime settings for the upload CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC health endpoint.
//   - BackendURL: base URL of the backend REST API.
//   - OnlineCheckInterval: how often the client probes backend reachability.
//   - DatabasePath: SQLite file holding queue metadata and diagnostics.
//   - UploadURL / UploadPreset: provider endpoint and preset for unsigned
//     uploads; an empty preset disables that strategy.
//   - RequestTimeout: per-attempt timeout of the network strategies.
//   - ConversionTimeout: per-attempt timeout of uploads that need
//     server-side conversion.
//   - MaxRetries / RetryBaseDelay: retry policy applied to each strategy.
//   - MetricsAddr: when set, upload metrics are served on this address.
type Config struct {
	ServerEndpointAddr  string
	BackendURL          string
	OnlineCheckInterval time.Duration
	DatabasePath        string
	UploadURL           string
	UploadPreset        string
	RequestTimeout      time.Duration
	ConversionTimeout   time.Duration
	MaxRetries          int
	RetryBaseDelay      time.Duration
	MetricsAddr         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.BackendURL = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "mediaupload.db"
	c.UploadURL = "https://api.cloudinary.com/v1_1/demo/image/upload"
	c.UploadPreset = ""
	c.RequestTimeout = 120 * time.Second
	c.ConversionTimeout = 180 * time.Second
	c.MaxRetries = 2
	c.RetryBaseDelay = time.Second
	c.MetricsAddr = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
