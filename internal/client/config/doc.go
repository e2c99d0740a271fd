// Package config loads runtime configuration for the upload CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC health endpoint
//	-b string   base URL of the backend REST API
//	-i int      online status check interval (seconds)
//	-f string   path of the local SQLite database
//	-u string   provider upload URL for unsigned uploads
//	-p string   provider upload preset
//	-r int      retries per strategy
//	-m string   address to serve upload metrics on
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "backend_url": "http://127.0.0.1:8080",
//	  "online_check_interval": "3s",
//	  "database_path": "mediaupload.db",
//	  "upload_preset": "unsigned_market",
//	  "request_timeout": "2m",
//	  "max_retries": 2
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
