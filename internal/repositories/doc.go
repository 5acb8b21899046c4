// Package repositories implements SQLite persistence for search history.
//
// [SearchRepository] stores one row per submitted lookup together with the latest
// known snapshot of its session (status, progress, message and seat results as JSON).
// Records are soft deleted via deleted_at and excluded from queries by default.
//
// [HistoryAdapter] plugs the repository into the search flow as a tasks.HistoryRecorder.
//
// The [NextSequence] function atomically increments the per-table counter in the
// searches_sequence table so history can be listed as search #1, #2, ...
package repositories
