// Package tasks drives seat lookups against the backend with real-time progress reporting.
//
// # Session Polling
//
// [SessionPoller] owns at most one active search session. Starting a new session
// supersedes the previous one: its handle is stopped and any response still in
// flight for it is discarded. Each poll carries a sequence number so that only
// the newest response is ever applied.
//
// A session moves from searching to completed or errored:
//   - completed when the backend reports results (progress jumps to 100)
//   - errored when the backend reports a failure, when a search settles with no seats,
//     or after [DefaultMaxErrors] consecutive failed polls
//
// A 404 from the progress endpoint means the backend has not registered the session
// yet. It is skipped and never counts as a failure.
//
// # Handles
//
// [Handle] exposes the session as an event stream. Update events are dropped when
// the consumer falls behind; the single Terminal event is always delivered before
// the channel closes. Pause and Resume suspend the ticker without losing state.
//
// # Finder
//
//  1. [Finder.Begin] : validate input, optionally clear previous sessions, submit, then poll
//  2. [Finder.Watch] : attach to an existing session ID
//  3. [Finder.Await] : block until the terminal snapshot
//  4. [Finder.BulkSearch] : many lookups with bounded workers and rate-limited submission
//
// # Progress Reporting
//
// Batch operations report through a [ProgressUpdate] channel. Sends use select
// with default so a slow reader never stalls the lookup.
//
// # History
//
// The optional [HistoryRecorder] stores each submitted search and its outcome.
// Recording errors are logged and otherwise ignored.
package tasks
