// Package services implements the HTTP client for the seat lookup backend.
//
// # Layers
//
// [APIService] is a raw transport: it resolves paths against a base URL, sets JSON headers
// and returns an [APIResponse] with the body and a sniffed JSON value. The `seatx api` command
// uses it directly.
//
// [SeatService] implements [SeatFinder] on top of it and maps each endpoint to typed models:
//   - POST /api/search           → [models.SearchResponse]
//   - GET  /api/progress/{id}    → [models.ProgressResponse]
//   - POST /api/clear-sessions   → [models.ActionResponse]
//   - POST /api/sessions/extend/{id}
//   - GET  /api/export/{id}/options and the export URLs it lists
//   - GET  /api/health           → [models.HealthStatus]
//
// # Error Handling
//
// Failures are wrapped sentinels from the shared package:
//   - [shared.ErrAPIRequest] : transport failure or unexpected status
//   - [shared.ErrSessionNotFound] : 404 on a session resource
//   - [shared.ErrMalformedResponse] : a 2xx body that does not decode
//   - [shared.ErrSearchRejected] : search answered with success=false
//   - [shared.ErrExportUnavailable] : export endpoints answered with {"error": ...}
//   - [shared.ErrServiceUnavailable] : health check failed
//
// The poller in package tasks relies on the ErrSessionNotFound distinction: a 404 means the
// backend has not registered the session yet and is not counted as a failure.
package services
