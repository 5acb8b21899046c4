package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/seatx/internal/formatter"
	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
	"github.com/desertthunder/seatx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FormView ViewState = iota
	SearchingView
	ResultsView
	ExportView
	ErrorView
)

const (
	rollInput = iota
	dateInput
)

// Options configures a [Model].
type Options struct {
	RollNumber string             // Prefilled roll number
	Date       string             // Prefilled exam date
	OutputDir  string             // Where exports are saved
	OpenURL    func(string) error // Opens share links (default: shared.OpenURL)
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	finder *tasks.Finder
	opts   Options
	view   ViewState
	width  int
	height int

	inputs  []textinput.Model
	focus   int
	formErr string

	attempt    int
	search     *tasks.Search
	generation uint64
	session    models.Session
	percent    float64
	blurred    bool
	paused     bool
	bar        progress.Model

	exports    list.Model
	exportNote string
	exportErr  error

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model that searches through finder.
func NewModel(ctx context.Context, finder *tasks.Finder, opts Options) *Model {
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenURL
	}

	roll := textinput.New()
	roll.Placeholder = "RA2211003010123"
	roll.Prompt = "Roll number  "
	roll.CharLimit = 20
	roll.SetValue(opts.RollNumber)
	roll.Focus()

	date := textinput.New()
	date.Placeholder = "YYYY-MM-DD or DD/MM/YYYY"
	date.Prompt = "Exam date    "
	date.CharLimit = 10
	date.SetValue(opts.Date)

	return &Model{
		ctx:    ctx,
		finder: finder,
		opts:   opts,
		view:   FormView,
		inputs: []textinput.Model{roll, date},
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init starts the cursor blinking in the form.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// View returns the current view state.
func (m *Model) View() string {
	header := styles.title.Render("🎓 SRM Exam Seat Finder")

	var body string
	switch m.view {
	case FormView:
		body = m.renderForm()
	case SearchingView:
		body = m.renderSearching()
	case ResultsView:
		body = m.renderResults()
	case ExportView:
		body = m.renderExport()
	case ErrorView:
		body = m.renderError()
	}
	return header + "\n" + body
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-4, 10), 60)
		if len(m.exports.Items()) > 0 {
			m.exports.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.BlurMsg:
		m.pause()
		return m, nil

	case tea.FocusMsg:
		m.resume()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case FormView:
			return m.handleFormKeys(msg)
		case SearchingView:
			return m.handleSearchingKeys(msg)
		case ResultsView:
			return m.handleResultKeys(msg)
		case ExportView:
			return m.handleExportKeys(msg)
		case ErrorView:
			return m.handleErrorKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == FormView {
		return m.updateInputs(msg)
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchStarted:
		data := msg.data.(searchStartedData)
		if m.view != SearchingView || data.attempt != m.attempt {
			if data.search != nil {
				data.search.Handle.Stop()
			}
			return m, nil
		}
		if data.err != nil {
			if tasks.IsUserError(data.err) && !errors.Is(data.err, shared.ErrNoResults) {
				m.view = FormView
				m.formErr = userMessage(data.err)
				return m, m.focusInput(rollInput)
			}
			m.fail(data.err)
			return m, nil
		}

		m.search = data.search
		m.generation = data.search.Handle.Generation()
		if m.blurred {
			m.search.Handle.Pause()
			m.paused = true
		}
		return m, waitForEvent(m.search.Handle)

	case MsgPollEvent:
		e := msg.data.(tasks.Event)
		if m.search == nil || e.Generation != m.generation {
			return m, nil
		}

		m.apply(e.Session)
		if e.Kind == tasks.EventUpdate {
			return m, waitForEvent(m.search.Handle)
		}

		m.finder.RecordOutcome(m.search, e.Session)
		if e.Completed() {
			m.view = ResultsView
		} else {
			m.view = ErrorView
			m.err = tasks.OutcomeError(e.Session)
		}
		return m, nil

	case MsgPollClosed:
		if msg.data.(uint64) != m.generation || m.view != SearchingView {
			return m, nil
		}
		m.fail(shared.ErrSearchStopped)
		return m, nil

	case MsgExportOptions:
		data := msg.data.(exportOptionsData)
		m.exports = list.New(exportItems(data.formats), list.NewDefaultDelegate(), max(m.width-4, 20), max(m.height-8, 12))
		m.exports.Title = "Export"
		m.exports.SetShowStatusBar(false)
		m.exports.SetFilteringEnabled(false)
		m.exportErr = nil
		if data.err != nil {
			m.exportErr = fmt.Errorf("backend exports unavailable: %w", data.err)
		}
		return m, nil

	case MsgExportDone:
		data := msg.data.(exportDoneData)
		m.exportNote = data.note
		m.exportErr = data.err
		return m, nil
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m.quit()
	case key.Matches(msg, m.keys.next):
		return m, m.focusInput((m.focus + 1) % len(m.inputs))
	case key.Matches(msg, m.keys.submit):
		return m.submit()
	}
	return m.updateInputs(msg)
}

func (m *Model) handleSearchingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.back):
		return m.restart(false)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.restart):
		return m.restart(true)
	case key.Matches(msg, m.keys.export):
		m.view = ExportView
		m.exports = list.Model{}
		m.exportNote = ""
		m.exportErr = nil
		return m, fetchExportOptions(m.ctx, m.finder, m.session.ID)
	}
	return m, nil
}

func (m *Model) handleExportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c" || msg.String() == "q":
		return m.quit()
	case key.Matches(msg, m.keys.back):
		m.view = ResultsView
		return m, nil
	case len(m.exports.Items()) == 0:
		return m, nil
	case msg.String() == "enter":
		if item, ok := m.exports.SelectedItem().(exportItem); ok {
			m.exportNote = "Exporting " + item.format.Name + "..."
			m.exportErr = nil
			return m, m.runExport(item)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.exports, cmd = m.exports.Update(msg)
	return m, cmd
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.restart), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.submit):
		return m.restart(false)
	}
	return m, nil
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) focusInput(i int) tea.Cmd {
	m.focus = i
	var cmd tea.Cmd
	for j := range m.inputs {
		if j == i {
			cmd = m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return cmd
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	req, err := models.ValidateSearch(m.inputs[rollInput].Value(), m.inputs[dateInput].Value())
	if err != nil {
		m.formErr = userMessage(err)
		return m, nil
	}

	m.formErr = ""
	m.err = nil
	m.attempt++
	m.generation = 0
	m.view = SearchingView
	m.search = nil
	m.percent = 0
	m.paused = false
	m.session = models.Session{Status: models.StatusSearching, Message: tasks.MsgSearching}

	return m, beginSearch(m.ctx, m.finder, m.attempt, req)
}

// restart stops polling and returns to the form. clear empties the inputs.
func (m *Model) restart(clear bool) (tea.Model, tea.Cmd) {
	m.finder.Poller().Stop()
	m.search = nil
	m.session = models.Session{}
	m.percent = 0
	m.paused = false
	m.err = nil
	m.formErr = ""
	m.view = FormView
	if clear {
		for i := range m.inputs {
			m.inputs[i].Reset()
		}
	}
	return m, m.focusInput(rollInput)
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.finder.Poller().Stop()
	return m, tea.Quit
}

func (m *Model) fail(err error) {
	m.view = ErrorView
	m.err = err
	m.session.Status = models.StatusErrored
	m.session.Message = userMessage(err)
}

// apply stores a snapshot; the progress bar only moves forward.
func (m *Model) apply(s models.Session) {
	m.session = s
	if pct := float64(s.Progress) / 100; pct > m.percent {
		m.percent = pct
	}
}

// pause suspends polling while the terminal is not focused.
func (m *Model) pause() {
	m.blurred = true
	if m.view == SearchingView && m.search != nil && !m.paused {
		m.search.Handle.Pause()
		m.paused = true
	}
}

func (m *Model) resume() {
	m.blurred = false
	if m.paused && m.search != nil {
		m.search.Handle.Resume()
	}
	m.paused = false
}

func beginSearch(ctx context.Context, finder *tasks.Finder, attempt int, req models.SearchRequest) tea.Cmd {
	return func() tea.Msg {
		s, err := finder.Begin(ctx, req.RollNumber, req.Date, tasks.BeginOpts{ClearPrevious: true})
		return searchStartedMsg(attempt, s, err)
	}
}

func waitForEvent(h *tasks.Handle) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-h.Events()
		if !ok {
			return pollClosedMsg(h.Generation())
		}
		return pollEventMsg(e)
	}
}

func fetchExportOptions(ctx context.Context, finder *tasks.Finder, sessionID string) tea.Cmd {
	return func() tea.Msg {
		if sessionID == "" {
			return exportOptionsMsg(nil, shared.ErrExportUnavailable)
		}
		formats, err := finder.Client().ExportOptions(ctx, sessionID)
		return exportOptionsMsg(formats, err)
	}
}

func (m *Model) runExport(item exportItem) tea.Cmd {
	ctx := m.ctx
	client := m.finder.Client()
	results := m.session.Results
	dir := m.opts.OutputDir
	openURL := m.opts.OpenURL

	return func() tea.Msg {
		now := time.Now()
		switch {
		case item.local != "":
			path := filepath.Join(dir, formatter.ExportFilename(results, formatter.Extension(item.local), now))
			saved, err := formatter.WriteExport(results, item.local, path)
			return exportDoneMsg("Saved "+saved, err)

		case item.format.External:
			if err := openURL(item.format.URL); err != nil {
				return exportDoneMsg("", fmt.Errorf("failed to open share link: %w", err))
			}
			return exportDoneMsg("Opened share link in your browser", nil)

		case item.format.Type == "pdf":
			path := filepath.Join(dir, formatter.ExportFilename(results, "pdf", now))
			n, err := formatter.SaveDownload(path, func(w io.Writer) (int64, error) {
				return client.DownloadExport(ctx, item.format.URL, w)
			})
			if err != nil {
				return exportDoneMsg("", err)
			}
			return exportDoneMsg(fmt.Sprintf("Saved %s (%d bytes)", path, n), nil)
		}
		return exportDoneMsg("", fmt.Errorf("%w: unsupported export %q", shared.ErrInvalidArgument, item.format.Type))
	}
}

// userMessage strips the sentinel prefix from validation errors.
func userMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{shared.ErrInvalidInput, shared.ErrSearchRejected} {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}

func (m *Model) renderForm() string {
	var b strings.Builder
	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if m.formErr != "" {
		b.WriteString("\n" + styles.err.Render("✗ "+m.formErr) + "\n")
	}

	helpKeys := []key.Binding{m.keys.submit, m.keys.next, m.keys.quit}
	return fmt.Sprintf("%s\n%s", b.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSearching() string {
	message := m.session.Message
	if message == "" {
		message = tasks.MsgSearching
	}

	status := message
	if m.paused {
		status += styles.help.Render("  (paused)")
	}

	var retry string
	if m.session.ErrorCount > 0 {
		retry = "\n" + styles.warn.Render(fmt.Sprintf("Retrying after %d failed update(s)...", m.session.ErrorCount))
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s%s\n\n%s", status, m.bar.ViewAs(m.percent), retry, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderResults() string {
	results := m.session.Results
	title := styles.ok.Render(fmt.Sprintf("✓ Found %d exam seat(s)", len(results)))

	var cards strings.Builder
	for _, r := range results {
		rows := []string{
			styles.label.Render("Room") + r.RoomNumber,
			styles.label.Render("Seat") + r.SeatNumber,
			styles.label.Render("Date") + r.Date,
			styles.label.Render("Session") + r.SessionLabel(),
			styles.label.Render("Venue") + r.VenueName,
			styles.label.Render("Department") + r.Department,
		}
		cards.WriteString(styles.card.Render(strings.Join(rows, "\n")))
		cards.WriteString("\n")
	}

	var reg string
	if len(results) > 0 {
		reg = styles.help.Render("Registration: "+results[0].RegistrationNumber) + "\n\n"
	}

	helpKeys := []key.Binding{m.keys.export, m.keys.restart, m.keys.quit}
	return fmt.Sprintf("%s\n%s%s\n%s", title, reg, cards.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderExport() string {
	if len(m.exports.Items()) == 0 {
		return "Loading export options..."
	}

	var note string
	switch {
	case m.exportErr != nil:
		note = styles.err.Render("✗ " + m.exportErr.Error())
	case m.exportNote != "":
		note = styles.ok.Render(m.exportNote)
	}

	selectKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "export"))
	helpKeys := []key.Binding{selectKey, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", m.exports.View(), note, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderError() string {
	message := m.session.Message
	if message == "" && m.err != nil {
		message = m.err.Error()
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", styles.err.Render("✗ "+message), m.help.ShortHelpView(helpKeys))
}
