package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchStarted MsgKind = iota
	MsgPollEvent
	MsgPollClosed
	MsgExportOptions
	MsgExportDone
)

type searchStartedData struct {
	attempt int
	search  *tasks.Search
	err     error
}

type exportOptionsData struct {
	formats []models.ExportFormat
	err     error
}

type exportDoneData struct {
	note string
	err  error
}

// searchStartedMsg is the constructor for [MsgSearchStarted]
func searchStartedMsg(attempt int, s *tasks.Search, err error) Msg {
	return Msg{kind: MsgSearchStarted, data: searchStartedData{attempt, s, err}}
}

// pollEventMsg is the constructor for [MsgPollEvent]
func pollEventMsg(e tasks.Event) Msg {
	return Msg{kind: MsgPollEvent, data: e}
}

// pollClosedMsg is the constructor for [MsgPollClosed]; data is the closed handle's generation.
func pollClosedMsg(generation uint64) Msg {
	return Msg{kind: MsgPollClosed, data: generation}
}

// exportOptionsMsg is the constructor for [MsgExportOptions]
func exportOptionsMsg(formats []models.ExportFormat, err error) Msg {
	return Msg{kind: MsgExportOptions, data: exportOptionsData{formats, err}}
}

// exportDoneMsg is the constructor for [MsgExportDone]
func exportDoneMsg(note string, err error) Msg {
	return Msg{kind: MsgExportDone, data: exportDoneData{note, err}}
}
