package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the backend health endpoint
//	-b string   backend REST base URL
//	-i int      online check interval in seconds
//	-f string   local database path
//	-u string   provider upload URL
//	-p string   provider upload preset
//	-r int      retries per strategy
//	-m string   metrics listen address
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-i", "-f", "-u", "-p", "-r", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the backend health endpoint")
	fs.StringVar(&cfg.BackendURL, "b", cfg.BackendURL, "backend REST base URL")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.UploadURL, "u", cfg.UploadURL, "provider upload URL")
	fs.StringVar(&cfg.UploadPreset, "p", cfg.UploadPreset, "provider upload preset")
	fs.IntVar(&cfg.MaxRetries, "r", cfg.MaxRetries, "retries per strategy")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "address to serve metrics on")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
