// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// StoreWrite caps the time allowed for a single engine transaction
// against the shared store.
const StoreWrite = 5 * time.Second

// WebsocketWrite caps the time allowed to flush one change-feed frame
// to a subscriber before the connection is considered stalled.
const WebsocketWrite = 10 * time.Second
