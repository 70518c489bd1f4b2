// Package tui is a terminal panel for loading surface layers and toggling their visibility.
package tui

import (
	"context"
	"fmt"

	"github.com/woozymasta/olsview/internal/surface"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	table "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// Load sets understood by the panel.
const (
	setAll       = "all"
	setBuildings = "buildings"
	setRoads     = "roads"
)

// categories lists the panel rows in display order.
var categories = []struct {
	category surface.Category
	label    string
}{
	{surface.CategoryApproach, "Approach surface"},
	{surface.CategoryOLS, "OLS surfaces"},
	{surface.CategoryBuildings, "Buildings"},
	{surface.CategoryRoads, "Roads"},
	{surface.CategoryNatural, "Natural"},
	{surface.CategoryTransport, "Transport"},
}

// loadDoneMsg carries the registry snapshot taken after a load finished.
type loadDoneMsg struct {
	visibility map[surface.Category]bool
	set        string
	stats      surface.Stats
	loaded     int
	ok         bool
}

// Model drives one surface manager. While a load runs the manager belongs to
// the load command and every other action is refused.
type Model struct {
	ctx     context.Context
	manager *surface.Manager
	onReset func()

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	tbl     table.Model

	visibility map[surface.Category]bool
	stats      surface.Stats

	status string
	width  int
	height int
	busy   bool
}

// New returns a panel for m. onReset, when set, runs after the registry is reset.
func New(ctx context.Context, m *surface.Manager, onReset func()) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "Bucket", Width: 10},
			{Title: "Primitives", Width: 10},
		}),
		table.WithHeight(len(surface.Buckets)+1),
	)

	model := Model{
		ctx:     ctx,
		manager: m,
		onReset: onReset,
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: sp,
		tbl:     tbl,
		status:  "olsview ready",
	}
	model.refresh()
	return model
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadDoneMsg:
		m.busy = false
		m.visibility = msg.visibility
		m.stats = msg.stats
		m.fillTable()
		if msg.ok {
			m.status = fmt.Sprintf("%s: %d primitives loaded", msg.set, msg.loaded)
		} else {
			m.status = fmt.Sprintf("%s: load aborted after %d primitives", msg.set, msg.loaded)
		}

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if m.busy {
			m.status = "busy: wait for the current load"
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Approach):
			m.toggle(surface.CategoryApproach)
		case key.Matches(msg, m.keys.OLS):
			m.toggle(surface.CategoryOLS)
		case key.Matches(msg, m.keys.Buildings):
			m.toggle(surface.CategoryBuildings)
		case key.Matches(msg, m.keys.Roads):
			m.toggle(surface.CategoryRoads)
		case key.Matches(msg, m.keys.LoadAll):
			return m.startLoad(setAll)
		case key.Matches(msg, m.keys.LoadBuildings):
			return m.startLoad(setBuildings)
		case key.Matches(msg, m.keys.LoadRoads):
			return m.startLoad(setRoads)
		case key.Matches(msg, m.keys.Reset):
			m.manager.Reset()
			if m.onReset != nil {
				m.onReset()
			}
			m.refresh()
			m.status = "registry reset"
		}
	}

	return m, nil
}

func (m *Model) toggle(c surface.Category) {
	visible := m.manager.ToggleVisibility(c)
	m.refresh()
	m.status = fmt.Sprintf("%s: %s", c, onOff(visible))
}

func (m Model) startLoad(set string) (tea.Model, tea.Cmd) {
	m.busy = true
	m.status = "loading " + set
	return m, tea.Batch(m.spinner.Tick, m.loadCmd(set))
}

// loadCmd runs the loader for set off the update loop.
func (m Model) loadCmd(set string) tea.Cmd {
	mgr, ctx := m.manager, m.ctx
	return func() tea.Msg {
		before := mgr.Stats().Total
		ok := true
		switch set {
		case setAll:
			ok = mgr.LoadAll(ctx)
		case setBuildings:
			mgr.LoadBuildings(ctx)
		case setRoads:
			mgr.LoadRoads(ctx)
		}

		stats := mgr.Stats()
		return loadDoneMsg{
			set:        set,
			ok:         ok,
			loaded:     stats.Total - before,
			stats:      stats,
			visibility: mgr.VisibilityState(),
		}
	}
}

// refresh snapshots the manager so View never touches it during a load.
func (m *Model) refresh() {
	m.visibility = m.manager.VisibilityState()
	m.stats = m.manager.Stats()
	m.fillTable()
}

func (m *Model) fillTable() {
	counts := map[surface.Bucket]int{
		surface.BucketApproach: m.stats.Approach,
		surface.BucketDXF:      m.stats.DXF,
		surface.BucketReseaux:  m.stats.Reseaux,
	}

	rows := make([]table.Row, 0, len(surface.Buckets)+1)
	for _, b := range surface.Buckets {
		rows = append(rows, table.Row{string(b), fmt.Sprintf("%d", counts[b])})
	}
	rows = append(rows, table.Row{"total", fmt.Sprintf("%d", m.stats.Total)})
	m.tbl.SetRows(rows)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
