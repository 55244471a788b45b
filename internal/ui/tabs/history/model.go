// Package history provides the history tab for the selected pantry item.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stockpace/internal/app"
	"github.com/j-veylop/stockpace/internal/models"
)

const loadTimeout = 10 * time.Second

// Source loads the history and forecast band of an item.
type Source interface {
	ItemHistory(ctx context.Context, itemID string, tr models.TimeRange) (*models.ItemHistory, error)
	ForecastBand(itemID string) (predicted, lower, upper []float64, err error)
}

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle 7/30/90 days"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// forecastBand holds the three forecast series.
type forecastBand struct {
	predicted []float64
	lower     []float64
	upper     []float64
}

// historyLoadedMsg is sent when history data is loaded.
type historyLoadedMsg struct {
	itemID    string
	timeRange models.TimeRange
	history   *models.ItemHistory
	band      forecastBand
}

// historyErrorMsg is sent when there's an error loading history.
type historyErrorMsg struct {
	itemID string
	err    string
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	source   Source
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	timeRange   models.TimeRange
	itemID      string
	historyData *models.ItemHistory
	band        forecastBand
	loading     bool
	lastRefresh time.Time
	errorMsg    string
}

// New creates a new history model.
func New(state *app.State, source Source) *Model {
	return &Model{
		state:     state,
		source:    source,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: models.TimeRange30Days,
	}
}

// Init initializes the history tab. Data is loaded when the tab is shown.
func (m *Model) Init() tea.Cmd {
	return nil
}

// nextRange cycles through the 7, 30 and 90 day windows.
func nextRange(tr models.TimeRange) models.TimeRange {
	next := tr.Next()
	if next == models.TimeRangeAllTime {
		return models.TimeRange7Days
	}
	return next
}

// load starts loading the selected item's history.
func (m *Model) load() tea.Cmd {
	advice := m.state.GetSelectedAdvice()
	if advice == nil {
		m.itemID = ""
		m.historyData = nil
		m.loading = false
		return nil
	}
	if m.source == nil {
		m.errorMsg = "history is unavailable"
		return nil
	}

	m.itemID = advice.Item.ID
	m.loading = true

	source, itemID, tr := m.source, m.itemID, m.timeRange
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		history, err := source.ItemHistory(ctx, itemID, tr)
		if err != nil {
			return historyErrorMsg{itemID: itemID, err: err.Error()}
		}

		// A missing forecast only hides the band.
		predicted, lower, upper, _ := source.ForecastBand(itemID)

		return historyLoadedMsg{
			itemID:    itemID,
			timeRange: tr,
			history:   history,
			band:      forecastBand{predicted: predicted, lower: lower, upper: upper},
		}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.itemID != m.itemID || msg.timeRange != m.timeRange {
			return m, nil
		}
		m.historyData = msg.history
		m.band = msg.band
		m.loading = false
		m.lastRefresh = time.Now()
		m.errorMsg = ""

	case historyErrorMsg:
		if msg.itemID != m.itemID {
			return m, nil
		}
		m.loading = false
		m.errorMsg = msg.err
		return m, app.NotifyError(fmt.Sprintf("History error: %s", msg.err))

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory {
			return m, m.load()
		}

	case app.SelectedItemChangedMsg, app.AdviceLoadedMsg:
		return m, m.reloadIfChanged()

	case app.RefreshMsg:
		return m, m.load()

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	}

	return m, nil
}

// reloadIfChanged reloads when the shared selection points at another item
// or nothing has been loaded yet.
func (m *Model) reloadIfChanged() tea.Cmd {
	advice := m.state.GetSelectedAdvice()
	if advice == nil {
		return m.load()
	}
	if m.historyData == nil || advice.Item.ID != m.itemID {
		return m.load()
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.ToggleRange) {
		m.timeRange = nextRange(m.timeRange)
		return m.load()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.Up,
		m.keys.Down,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange},
		{m.keys.Up, m.keys.Down},
	}
}
