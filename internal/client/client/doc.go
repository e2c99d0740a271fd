// Package client contains client-side building blocks for talking to the
// trusted media backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): Login,
//     Ping, RequestSignature (the signature provider), PresignStorage and
//     ProxyUpload.
//  2. A concrete HTTP+JSON implementation (see HTTPClient) that injects the
//     bearer access token and maps failures to sentinel errors.
//  3. A gRPC health client (see HealthClient) used by the connectivity
//     monitor.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Failures are exposed through the sentinels in internal/common, matched
// with errors.Is: an unreachable backend matches both common.ErrBackend and
// common.ErrNetwork, a malformed payload matches common.ErrBackend only, and
// a signature outside its validity window matches common.ErrSignatureExpired.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation; a context cancelled with cause
// common.ErrAborted is reported as common.ErrAborted.
package client
