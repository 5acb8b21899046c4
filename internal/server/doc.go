// Package server provides HTTP routing, middleware and a local stub of the seat-lookup backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging], [Recovery] and [NoCache] cover request logs, panics and cache headers on /api/ paths.
//
// The [BasicRouter] implementation registers "METHOD /path/{wildcard}" patterns on [http.ServeMux].
//
// # Stub Backend
//
// [Stub] answers every endpoint the client consumes:
//
//	POST /api/search               → start a session (or answer at once in immediate mode)
//	GET  /api/progress/{id}        → status, progress, message and results when finished
//	POST /api/clear-sessions       → drop all sessions
//	POST /api/sessions/extend/{id} → refresh a session's expiry
//	GET  /api/export/{id}/options  → WhatsApp share link and PDF download
//	GET  /api/export/{id}/pdf      → generated PDF document
//	GET  /api/health               → status with active session count and storage kind
//
// Seats come from a TOML [Roster]. A session's progress is derived from the time since it was
// created, and [StubOpts.RegisterDelay] keeps new sessions answering 404 for a while to mimic a
// backend that registers sessions late.
//
// # Session Storage
//
// [SessionStore] keeps sessions with a sliding expiry (300 s by default). [NewSessionStore] uses
// [RedisStore] (keys session:{id}) when a Redis server is configured and reachable, and
// falls back to [MemoryStore] otherwise.
package server
