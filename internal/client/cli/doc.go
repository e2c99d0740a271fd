// Package cli provides the interactive media upload command-line client.
//
// It wires configuration, the local SQLite store, the backend API client,
// the fallback uploader, the offline queue and a connectivity monitor that
// drives the queue. Typical flow: prompt for operator credentials, start the
// monitor, and execute user commands.
//
// Key features:
//   - Login / Logout against the backend
//   - upload: runs the strategy chain with a live progress line
//   - enqueue / queue / process / flush: offline queue management
//   - status / diag: connectivity and failure diagnostics
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
