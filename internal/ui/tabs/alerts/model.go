// Package alerts provides the tab listing active restock recommendations and
// recent stock alerts.
package alerts

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/stockpace/internal/app"
	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/ui/components"
	"github.com/j-veylop/stockpace/internal/ui/styles"
)

// keyMap defines the key bindings specific to the alerts tab.
type keyMap struct {
	Acknowledge key.Binding
	Dismiss     key.Binding
	MarkRead    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Acknowledge: key.NewBinding(
			key.WithKeys("a", "enter"),
			key.WithHelp("a", "acknowledge"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "dismiss"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark alerts read"),
		),
	}
}

// Model represents the alerts tab state.
type Model struct {
	state          *app.State
	table          table.Model
	spinner        components.LoadingSpinner
	keys           keyMap
	recs           []models.StoredRecommendation
	width          int
	height         int
	confirmDismiss bool
	dismissTarget  models.StoredRecommendation
}

// New creates a new alerts model.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columnsFor(24)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	return &Model{
		state:   state,
		table:   t,
		spinner: components.NewSpinner("Loading recommendations..."),
		keys:    defaultKeyMap(),
	}
}

func columnsFor(itemWidth int) []table.Column {
	return []table.Column{
		{Title: "Item", Width: itemWidth},
		{Title: "Urgency", Width: 10},
		{Title: "Action", Width: 16},
		{Title: "Days", Width: 6},
		{Title: "Pace/Market", Width: 13},
		{Title: "Status", Width: 8},
	}
}

// Init initializes the alerts tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the alerts tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if m.confirmDismiss {
		return m, m.updateDismissConfirm(msg)
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Acknowledge):
			if rec, ok := m.selected(); ok && rec.AcknowledgedAt == nil {
				cmds = append(cmds, actionCmd(rec, app.ActionAcknowledge))
			}
		case key.Matches(msg, m.keys.Dismiss):
			if rec, ok := m.selected(); ok {
				m.confirmDismiss = true
				m.dismissTarget = rec
			}
		case key.Matches(msg, m.keys.MarkRead):
			if m.state.UnreadAlerts() > 0 {
				cmds = append(cmds, func() tea.Msg { return app.MarkAlertsReadMsg{} })
			}
		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			cmds = append(cmds, cmd)
		}

	case app.RecommendationsLoadedMsg, app.TabSwitchMsg:
		m.updateTableData()
	}

	return m, tea.Batch(cmds...)
}

func actionCmd(rec models.StoredRecommendation, action app.RecommendationAction) tea.Cmd {
	msg := app.RecommendationActionMsg{ID: rec.ID, ItemName: rec.ItemName, Action: action}
	return func() tea.Msg { return msg }
}

func (m *Model) updateDismissConfirm(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		m.confirmDismiss = false
		return actionCmd(m.dismissTarget, app.ActionDismiss)
	case "n", "N", "esc":
		m.confirmDismiss = false
		m.dismissTarget = models.StoredRecommendation{}
	}
	return nil
}

// selected returns the recommendation under the table cursor.
func (m *Model) selected() (models.StoredRecommendation, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.recs) {
		return models.StoredRecommendation{}, false
	}
	return m.recs[idx], true
}

// sortByUrgency orders recommendations most urgent first, then by the
// fewest days remaining.
func sortByUrgency(recs []models.StoredRecommendation) {
	slices.SortStableFunc(recs, func(a, b models.StoredRecommendation) int {
		if c := cmp.Compare(b.Urgency, a.Urgency); c != 0 {
			return c
		}
		return cmp.Compare(a.EstimatedDaysRemaining, b.EstimatedDaysRemaining)
	})
}

// updateTableData rebuilds the table rows from the shared state.
func (m *Model) updateTableData() {
	recs := m.state.GetRecommendations()
	sortByUrgency(recs)
	m.recs = recs

	rows := make([]table.Row, 0, len(recs))
	for _, rec := range recs {
		status := "new"
		if rec.AcknowledgedAt != nil {
			status = "seen"
		}

		rows = append(rows, table.Row{
			rec.ItemName,
			styles.UrgencyIcon(rec.Urgency) + " " + rec.Urgency.String(),
			rec.Action.String(),
			strconv.Itoa(rec.EstimatedDaysRemaining),
			formatPace(rec.UserPace, rec.MarketPace),
			status,
		})
	}

	m.table.SetRows(rows)
	if cursor := m.table.Cursor(); cursor >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func formatPace(user, market float64) string {
	if market <= 0 {
		return fmt.Sprintf("%.2f/-", user)
	}
	return fmt.Sprintf("%.2f/%.2f", user, market)
}

// SetSize sets the available size for the alerts tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max((height-10)/2, 3))

	itemWidth := min(max(width-75, 16), 36)
	m.table.SetColumns(columnsFor(itemWidth))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Acknowledge,
		m.keys.Dismiss,
		m.keys.MarkRead,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Acknowledge, m.keys.Dismiss},
		{m.keys.MarkRead},
	}
}
