// Package models defines domain entities and persistence interfaces for the seatx seat-lookup client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs mirroring the backend wire format
//   - [SearchRequest], [SearchResponse] : search submission
//   - [ProgressResponse] : one poll of a session's status
//   - [SeatResult] : a single seat assignment
//   - [ExportFormat] : an export or share option for a finished session
//   - [Session] : the client-side view of one search attempt
//
// 2. Persistent Entities: database-backed models
//   - [SearchRecord] : search history with outcome and results
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
