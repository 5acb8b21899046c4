// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through a single seat lookup:
//  1. [FormView] : Enter a roll number and exam date
//  2. [SearchingView] : Follow the session's progress bar
//  3. [ResultsView] : Show each seat as a card
//  4. [ExportView] : Pick a backend export or a local file format
//  5. [ErrorView] : Show why the search ended without seats
//
// Poll events arrive one at a time through a command that reads the handle's event channel.
// Events from an older generation are dropped, so a restarted search never shows stale progress.
// Polling pauses while the terminal loses focus and resumes when it regains it.
package ui
