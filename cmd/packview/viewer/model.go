// Package viewer implements the interactive layer viewer: a search form for
// a shipment id and a layer-by-layer view of the packed container.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"packview/cmd/packview/ui"
	"packview/internal/layout"
	"packview/internal/packing"
	"packview/internal/session"
	"packview/internal/watch"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// Mode determines which screen is active
type Mode int

const (
	SearchMode Mode = iota
	LayoutMode
)

// Options configures a viewer Model.
type Options struct {
	Fetcher      packing.Fetcher
	Session      *session.Session
	Styles       ui.Styles
	MaxCellWidth int
	Timeout      time.Duration

	// InitialID, when set, is fetched on start.
	InitialID string

	// Reloads, when set, delivers layouts re-read from a watched file.
	Reloads <-chan watch.Reload

	Logger *zap.Logger
}

// layoutMsg is the result of one fetch.
type layoutMsg struct {
	token      session.Token
	shipmentID string
	grid       *layout.Grid
	err        error
}

// boxMsg is the result of a box details lookup.
type boxMsg struct {
	box     layout.BoxID
	details *packing.BoxDetails
	err     error
}

// reloadMsg carries a watched file reload.
type reloadMsg watch.Reload

// Model is the bubbletea model for the viewer.
type Model struct {
	fetcher packing.Fetcher
	session *session.Session
	styles  ui.Styles
	keys    keyMap
	help    help.Model
	input   textinput.Model
	spinner spinner.Model
	logger  *zap.Logger
	reloads <-chan watch.Reload

	mode         Mode
	loading      bool
	loadingID    string
	initialID    string
	timeout      time.Duration
	maxCellWidth int
	layout       ui.LayoutConfig

	frame     session.Frame
	cursorRow int
	cursorCol int

	// Box details for the most recent lookup.
	detailsBox layout.BoxID
	details    *packing.BoxDetails
	detailsErr error

	err        error
	status     string
	statusWarn bool
}

// New creates a viewer Model.
func New(o Options) Model {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Shipment ID (e.g. SHIP-1A2B3C4D)"
	ti.Prompt = "│ "
	ti.CharLimit = 256
	ti.Width = 40
	ti.PromptStyle = o.Styles.Prompt
	ti.TextStyle = o.Styles.Body
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = o.Styles.Spinner

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxCell := o.MaxCellWidth
	if maxCell <= 0 {
		maxCell = 4
	}

	return Model{
		fetcher:      o.Fetcher,
		session:      o.Session,
		styles:       o.Styles,
		keys:         defaultKeyMap(),
		help:         help.New(),
		input:        ti,
		spinner:      sp,
		logger:       logger,
		reloads:      o.Reloads,
		mode:         SearchMode,
		initialID:    strings.TrimSpace(o.InitialID),
		timeout:      timeout,
		maxCellWidth: maxCell,
	}
}

// Init starts the cursor blink, the initial fetch and the reload listener.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.initialID != "" {
		cmds = append(cmds, func() tea.Msg { return submitMsg(m.initialID) })
	}
	if m.reloads != nil {
		cmds = append(cmds, waitForReload(m.reloads))
	}
	return tea.Batch(cmds...)
}

// submitMsg starts a fetch as if the id had been typed.
type submitMsg string

// fetch returns the command that retrieves a layout for tok.
func (m Model) fetch(tok session.Token, shipmentID string) tea.Cmd {
	fetcher, timeout := m.fetcher, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		g, err := fetcher.FetchLayout(ctx, shipmentID)
		return layoutMsg{token: tok, shipmentID: shipmentID, grid: g, err: err}
	}
}

func waitForReload(ch <-chan watch.Reload) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return reloadMsg(r)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayoutConfig(msg.Width, msg.Height)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.mode == LayoutMode {
			return m.handleLayoutKey(msg)
		}
		return m.handleSearchKey(msg)

	case submitMsg:
		m.input.SetValue(string(msg))
		return m.submit(string(msg))

	case layoutMsg:
		return m.handleLayout(msg)

	case boxMsg:
		if msg.box != m.detailsBox {
			return m, nil
		}
		m.details, m.detailsErr = msg.details, msg.err
		if msg.err != nil {
			m.logger.Warn("box lookup failed", zap.String("box_id", string(msg.box)), zap.Error(msg.err))
		}
		return m, nil

	case reloadMsg:
		m = m.handleReload(watch.Reload(msg))
		return m, waitForReload(m.reloads)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.submit(m.input.Value())
	case tea.KeyEsc:
		if m.loading {
			// Abandon the fetch in flight; its answer will be stale.
			m.session.Discard()
			m.loading = false
			m.warn(fmt.Sprintf("Cancelled %s", m.loadingID))
			return m, nil
		}
		m.err = nil
		m.input.Reset()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit begins a fetch for id. A fetch already in flight becomes stale.
func (m Model) submit(id string) (tea.Model, tea.Cmd) {
	id = strings.TrimSpace(id)
	if id == "" {
		m.err = fmt.Errorf("enter a shipment id")
		return m, nil
	}
	tok := m.session.Begin(id)
	m.loading = true
	m.loadingID = id
	m.err = nil
	m.status, m.statusWarn = "", false
	m.logger.Info("fetching layout", zap.String("shipment_id", id))
	return m, tea.Batch(m.spinner.Tick, m.fetch(tok, id))
}

func (m Model) handleLayout(msg layoutMsg) (tea.Model, tea.Cmd) {
	if !m.session.Current(msg.token) {
		m.session.Accept(msg.token, msg.shipmentID, msg.grid)
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		var fe *packing.FetchError
		if errors.As(msg.err, &fe) {
			m.logger.Warn("fetch failed", zap.String("detail", fe.Describe()))
		} else {
			m.logger.Warn("layout rejected", zap.String("shipment_id", msg.shipmentID), zap.Error(msg.err))
		}
		m.err = msg.err
		return m, nil
	}
	if !m.session.Accept(msg.token, msg.shipmentID, msg.grid) {
		m.err = session.ErrNoLayout
		return m, nil
	}
	return m.enterLayout(), nil
}

func (m Model) handleReload(r watch.Reload) Model {
	if r.Err != nil {
		m.err = r.Err
		return m
	}
	id := m.session.ShipmentID()
	if id == "" {
		id = m.initialID
	}
	layer := m.session.Navigator().Current()
	if err := m.session.Load(id, r.Grid); err != nil {
		m.err = err
		return m
	}
	// Stay on the same layer when the new layout still has it.
	_ = m.session.Navigator().Jump(layer)
	m.err = nil
	m.status, m.statusWarn = "Layout reloaded", false
	return m.enterLayout()
}

// enterLayout switches to the layout view and renders the current layer.
func (m Model) enterLayout() Model {
	m.mode = LayoutMode
	m.input.Blur()
	m.cursorRow, m.cursorCol = 0, 0
	m = m.clearDetails()
	return m.render()
}

func (m Model) clearDetails() Model {
	m.detailsBox, m.details, m.detailsErr = layout.Empty, nil, nil
	return m
}

func (m *Model) warn(msg string) {
	m.status, m.statusWarn = msg, true
}

// render re-renders the current layer. Intensities are drawn here, once per
// layer change, so redraws do not flicker.
func (m Model) render() Model {
	f, err := m.session.Render()
	if err != nil {
		m.err = err
		return m
	}
	m.frame = f
	m.cursorRow = clamp(m.cursorRow, 0, len(f.Rows)-1)
	if len(f.Rows) > 0 {
		m.cursorCol = clamp(m.cursorCol, 0, len(f.Rows[0])-1)
	}
	nav := m.session.Navigator()
	m.keys.PrevLayer.SetEnabled(!nav.AtStart())
	m.keys.NextLayer.SetEnabled(!nav.AtEnd())
	return m
}

func (m Model) handleLayoutKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	nav := m.session.Navigator()
	m.status, m.statusWarn = "", false

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NewSearch):
		m.session.Discard()
		m.mode = SearchMode
		m.frame = session.Frame{}
		m = m.clearDetails()
		m.err = nil
		m.input.Reset()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.NextLayer):
		if nav.Next() {
			m = m.render()
		}
	case key.Matches(msg, m.keys.PrevLayer):
		if nav.Previous() {
			m = m.render()
		}
	case key.Matches(msg, m.keys.FirstLayer):
		nav.First()
		m = m.render()
	case key.Matches(msg, m.keys.LastLayer):
		nav.Last()
		m = m.render()

	case key.Matches(msg, m.keys.Up):
		m.cursorRow = max(m.cursorRow-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cursorRow = min(m.cursorRow+1, len(m.frame.Rows)-1)
	case key.Matches(msg, m.keys.Left):
		m.cursorCol = max(m.cursorCol-1, 0)
	case key.Matches(msg, m.keys.Right):
		if len(m.frame.Rows) > 0 {
			m.cursorCol = min(m.cursorCol+1, len(m.frame.Rows[0])-1)
		}

	case key.Matches(msg, m.keys.Copy):
		cell, ok := m.selected()
		switch {
		case !ok || cell.Box.IsEmpty():
			m.warn("Empty cell, nothing to copy")
		default:
			if err := clipboardWriteAll(string(cell.Box)); err != nil {
				m.warn(fmt.Sprintf("Copy failed: %v", err))
			} else {
				m.status = fmt.Sprintf("Copied box id %s", cell.Box)
			}
		}

	case key.Matches(msg, m.keys.Details):
		return m.lookupBox()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// lookupBox fetches details for the box under the cursor. Only the latest
// lookup is kept.
func (m Model) lookupBox() (tea.Model, tea.Cmd) {
	cell, ok := m.selected()
	if !ok || cell.Box.IsEmpty() {
		m.warn("Empty cell, no box details")
		return m, nil
	}
	bf, ok := m.fetcher.(packing.BoxFetcher)
	if !ok {
		m.warn("Box details need the packing service")
		return m, nil
	}
	if cell.Box == m.detailsBox && m.details != nil {
		return m, nil
	}
	m.detailsBox, m.details, m.detailsErr = cell.Box, nil, nil
	box, timeout := cell.Box, m.timeout
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		d, err := bf.FetchBox(ctx, string(box))
		return boxMsg{box: box, details: d, err: err}
	}
}

// selected returns the cell under the cursor.
func (m Model) selected() (session.Cell, bool) {
	if m.cursorRow < 0 || m.cursorRow >= len(m.frame.Rows) {
		return session.Cell{}, false
	}
	row := m.frame.Rows[m.cursorRow]
	if m.cursorCol < 0 || m.cursorCol >= len(row) {
		return session.Cell{}, false
	}
	return row[m.cursorCol], true
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

// Run starts the viewer full screen and blocks until it exits.
func Run(o Options) error {
	p := tea.NewProgram(New(o), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
