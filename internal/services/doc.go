// Package services defines shared utilities consumed by the HTTP handlers
// and external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP status codes.
//   - Context helpers that stamp request correlation identifiers for logging.
//
// Use these helpers when wiring new handler logic so operational behaviour
// (error handling, observability) stays uniform across the API surface.
package services
