// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/services"
	"github.com/j-veylop/stockpace/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	TabDashboard TabID = iota
	TabAlerts
	TabHistory
	TabInfo
)

var tabNames = []string{"Dashboard", "Alerts", "History", "Info"}

// String returns the string representation of the TabID.
func (t TabID) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return "Unknown"
	}
	return tabNames[t]
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Tab, tea.Cmd)
	View() string
	SetSize(width, height int)
	ShortHelp() []key.Binding
	FullHelp() [][]key.Binding
}

// InputTab is implemented by tabs that can hold keyboard focus in a text
// field. While CapturingInput is true, keys bypass the global bindings.
type InputTab interface {
	CapturingInput() bool
}

// KeyMap defines the global keybindings.
type KeyMap struct {
	Tab1     key.Binding
	Tab2     key.Binding
	Tab3     key.Binding
	Tab4     key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Refresh  key.Binding
	Evaluate key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "dashboard")),
		Tab2:     key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "alerts")),
		Tab3:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "history")),
		Tab4:     key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "info")),
		NextTab:  key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab/→", "next tab")),
		PrevTab:  key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab/←", "prev tab")),
		Refresh:  key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		Evaluate: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "re-evaluate")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4},
		{k.NextTab, k.PrevTab},
		{k.Refresh, k.Evaluate, k.Help, k.Quit},
	}
}

// Styles defines the application chrome styles.
type Styles struct {
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	Badge       lipgloss.Style

	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	Content   lipgloss.Style
	Toast     lipgloss.Style
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#00875F", Dark: "#00AF87"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	return Styles{
		TabBar: lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).BorderForeground(subtle),
		ActiveTab:   lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2),
		InactiveTab: lipgloss.NewStyle().Foreground(subtle).Padding(0, 2),
		Badge:       lipgloss.NewStyle().Foreground(errorColor).Bold(true),

		NotificationSuccess: lipgloss.NewStyle().Foreground(success).Padding(0, 1),
		NotificationError:   lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1),
		NotificationWarning: lipgloss.NewStyle().Foreground(warning).Padding(0, 1),
		NotificationInfo:    lipgloss.NewStyle().Foreground(info).Padding(0, 1),

		Content:   lipgloss.NewStyle().Padding(1, 2),
		Toast:     styles.ToastStyle,
		Title:     lipgloss.NewStyle().Bold(true).Foreground(highlight),
		Subtle:    lipgloss.NewStyle().Foreground(subtle),
		Highlight: lipgloss.NewStyle().Foreground(highlight),
	}
}

// Model is the main application model.
type Model struct {
	activeTab TabID
	tabs      []Tab

	state    *State
	services *services.Manager
	keymap   KeyMap
	styles   Styles

	spinner spinner.Model

	width  int
	height int

	showHelp bool
	ready    bool

	eventChannel chan services.ServiceEvent
}

// NewModel initializes a new application model. Tabs are attached with
// SetTabs.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &Model{
		activeTab: TabDashboard,
		tabs:      make([]Tab, len(tabNames)),
		state:     NewState(),
		services:  mgr,
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetServices returns the service manager.
func (m *Model) GetServices() *services.Manager {
	return m.services
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// IsReady returns true if the model is ready (window size received).
func (m *Model) IsReady() bool {
	return m.ready
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Evaluating pantry...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services), loadInitialData(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
	case tea.KeyMsg:
		if m.activeTabCapturesInput() && msg.Type != tea.KeyCtrlC {
			break
		}
		cmd, handled := m.handleKeyMsg(msg)
		if handled {
			return m, cmd
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	default:
		cmds = append(cmds, m.handleAppMsg(msg)...)
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, defaultTickCmd())
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case ServiceEventMsg:
		if cmd := m.handleServiceEvent(msg.Event); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if m.eventChannel != nil {
			cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
		}
	case AdviceLoadedMsg:
		cmds = append(cmds, m.handleAdviceLoaded(msg)...)
	case RecommendationsLoadedMsg:
		cmds = append(cmds, m.handleRecommendationsLoaded(msg)...)
	case RecommendationActionMsg:
		if m.services != nil {
			cmds = append(cmds, recommendationActionCmd(m.services, msg))
		}
	case RecommendationActionResultMsg:
		cmds = append(cmds, m.handleRecommendationActionResult(msg)...)
	case MarkAlertsReadMsg:
		if m.services != nil {
			cmds = append(cmds, markAlertsReadCmd(m.services))
		}
	case ItemActionMsg:
		if m.services != nil {
			cmds = append(cmds, itemActionCmd(m.services, msg))
		}
	case ItemActionResultMsg:
		cmds = append(cmds, m.handleItemActionResult(msg))
	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()
	case StartLoadingMsg:
		m.state.SetLoading(msg.Resource, true)
		m.state.SetLoadingNotification("Refreshing...")
	case StopLoadingMsg:
		m.stopLoading(msg.Resource)
	case ErrorMsg:
		if msg.Error != nil {
			cmds = append(cmds, notifyErrorCmd(msg.Error.Error()))
		}
	case RefreshMsg:
		cmds = append(cmds, m.handleRefresh(msg)...)
	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.updateTabSizes()
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) stopLoading(resource string) {
	m.state.SetLoading(resource, false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
}

func (m *Model) handleAdviceLoaded(msg AdviceLoadedMsg) []tea.Cmd {
	m.state.SetLoading(ResourceInitial, false)
	m.stopLoading(ResourceAdvice)
	m.state.SetAdvice(msg.Advice)
	m.state.SetStats(msg.Stats)

	if msg.Err != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Evaluation failed: %v", msg.Err))}
	}
	return nil
}

func (m *Model) handleRecommendationsLoaded(msg RecommendationsLoadedMsg) []tea.Cmd {
	m.stopLoading(ResourceRecommendations)
	if msg.Err != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to load recommendations: %v", msg.Err))}
	}
	m.state.SetRecommendations(msg.Recommendations, msg.Alerts)
	return nil
}

func (m *Model) handleRecommendationActionResult(msg RecommendationActionResultMsg) []tea.Cmd {
	if msg.Err != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to update recommendation: %v", msg.Err))}
	}

	cmds := []tea.Cmd{notifySuccessCmd(fmt.Sprintf("%s %s", recommendationLabel(msg.ItemName), msg.Action))}
	if m.services != nil {
		cmds = append(cmds, loadRecommendationsCmd(m.services))
	}
	return cmds
}

func recommendationLabel(itemName string) string {
	if itemName == "" {
		return "Recommendation"
	}
	return "Recommendation for " + itemName
}

func (m *Model) handleItemActionResult(msg ItemActionResultMsg) tea.Cmd {
	if msg.Err != nil {
		return notifyErrorCmd(fmt.Sprintf("Failed to update %s: %v", msg.ItemName, msg.Err))
	}

	switch msg.Op {
	case OpConsume:
		return notifyInfoCmd(fmt.Sprintf("Used %d × %s", msg.Quantity, msg.ItemName))
	case OpRestock:
		return notifySuccessCmd(fmt.Sprintf("Restocked %s (+%d)", msg.ItemName, msg.Quantity))
	case OpAdd:
		return notifySuccessCmd(fmt.Sprintf("Added %s", msg.Item.Name))
	case OpDelete:
		return notifySuccessCmd(fmt.Sprintf("Removed %s", msg.ItemName))
	}
	return nil
}

func (m *Model) handleRefresh(msg RefreshMsg) []tea.Cmd {
	if m.services == nil {
		return nil
	}

	var cmds []tea.Cmd
	switch msg.Resource {
	case "all":
		m.state.SetLoading(ResourceAdvice, true)
		m.state.SetLoading(ResourceRecommendations, true)
		cmds = append(cmds, loadAdviceCmd(m.services), loadRecommendationsCmd(m.services))
	case ResourceAdvice:
		m.state.SetLoading(ResourceAdvice, true)
		cmds = append(cmds, evaluateCmd(m.services))
	case ResourceRecommendations:
		m.state.SetLoading(ResourceRecommendations, true)
		cmds = append(cmds, loadRecommendationsCmd(m.services))
	default:
		return nil
	}
	m.state.SetLoadingNotification("Refreshing...")
	return cmds
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.RecommendationsUpdatedEvent:
		m.state.SetLoading(ResourceInitial, false)
		m.state.SetAdvice(e.Advice)

		var cmds []tea.Cmd
		if len(e.Skipped) > 0 {
			cmds = append(cmds, notifyWarningCmd(fmt.Sprintf("%d item(s) skipped: invalid data", len(e.Skipped))))
		}
		if m.services != nil {
			cmds = append(cmds, loadRecommendationsCmd(m.services))
		}
		return tea.Batch(cmds...)

	case services.AlertEvent:
		notify := notifyWarningCmd
		if e.Urgency == models.UrgencyCritical {
			notify = notifyErrorCmd
		}
		cmds := []tea.Cmd{notify(e.Notification.Message)}
		if m.services != nil {
			cmds = append(cmds, loadRecommendationsCmd(m.services))
		}
		return tea.Batch(cmds...)

	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))

	case services.StatsEvent:
		m.state.SetStats(e.Stats)

	case services.ItemsChangedEvent:
		return notifyInfoCmd(fmt.Sprintf("Pantry changed: %d items", len(e.Items)))
	}

	return nil
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) activeTabCapturesInput() bool {
	if int(m.activeTab) >= len(m.tabs) || m.tabs[m.activeTab] == nil {
		return false
	}
	input, ok := m.tabs[m.activeTab].(InputTab)
	return ok && input.CapturingInput()
}

func (m *Model) updateTabSizes() {
	contentHeight := max(m.height-5, 0)
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

func switchTabCmd(tab TabID) tea.Cmd {
	return func() tea.Msg {
		return TabSwitchMsg{Tab: tab}
	}
}

// handleKeyMsg handles global keys. It reports whether the key was consumed;
// unconsumed keys are passed on to the active tab.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.showHelp {
		if key.Matches(msg, m.keymap.Help, m.keymap.Escape) {
			m.showHelp = false
		}
		if key.Matches(msg, m.keymap.Quit) {
			return tea.Quit, true
		}
		return nil, true
	}

	n := len(m.tabs)
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit, true
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = true
		return nil, true
	case key.Matches(msg, m.keymap.Tab1):
		return switchTabCmd(TabDashboard), true
	case key.Matches(msg, m.keymap.Tab2):
		return switchTabCmd(TabAlerts), true
	case key.Matches(msg, m.keymap.Tab3):
		return switchTabCmd(TabHistory), true
	case key.Matches(msg, m.keymap.Tab4):
		return switchTabCmd(TabInfo), true
	case key.Matches(msg, m.keymap.NextTab) && n > 0:
		return switchTabCmd(TabID((int(m.activeTab) + 1) % n)), true
	case key.Matches(msg, m.keymap.PrevTab) && n > 0:
		return switchTabCmd(TabID((int(m.activeTab) - 1 + n) % n)), true
	case key.Matches(msg, m.keymap.Refresh):
		return func() tea.Msg { return RefreshMsg{Resource: "all"} }, true
	case key.Matches(msg, m.keymap.Evaluate):
		return func() tea.Msg { return RefreshMsg{Resource: ResourceAdvice} }, true
	}

	return nil, false
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	} else {
		b.WriteString(m.renderPlaceholder())
	}

	mainView := b.String()

	if m.showHelp {
		mainView = overlayCentered(mainView, m.renderHelp(), m.width, m.height)
	}

	if toasts := m.renderNotifications(); len(toasts) > 0 {
		return overlayToasts(mainView, toasts, m.width)
	}

	return mainView
}

func (m *Model) renderNavbar() string {
	tabs := make([]string, 0, len(tabNames))

	for i, name := range tabNames {
		if TabID(i) == TabAlerts {
			if unread := m.state.UnreadAlerts(); unread > 0 {
				name += " " + m.styles.Badge.Render(fmt.Sprintf("(%d)", unread))
			}
		}
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	return m.styles.TabBar.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	toasts := make([]string, 0, len(notifications))
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style, prefix = m.styles.NotificationSuccess, "[OK]"
		case NotificationError:
			style, prefix = m.styles.NotificationError, "[ERR]"
		case NotificationWarning:
			style, prefix = m.styles.NotificationWarning, "[WARN]"
		case NotificationLoading:
			style, prefix = m.styles.NotificationInfo, m.spinner.View()
		default:
			style, prefix = m.styles.NotificationInfo, "[INFO]"
		}

		toasts = append(toasts, m.styles.Toast.Render(style.Render(prefix+" "+n.Message)))
	}

	return toasts
}

func (m *Model) renderHelp() string {
	lines := []string{
		m.styles.Title.Render("Keyboard Shortcuts"),
		"",
		m.styles.Highlight.Render("Navigation"),
		"  1-4        Switch tabs",
		"  Tab        Next tab",
		"  Shift+Tab  Previous tab",
		"",
		m.styles.Highlight.Render("Actions"),
		"  r          Refresh data",
		"  e          Re-evaluate pantry",
		"  ?          Toggle help",
		"  q/Ctrl+C   Quit",
		"",
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		if tabHelp := m.tabs[m.activeTab].ShortHelp(); len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(m.activeTab.String()+" Tab"))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
			lines = append(lines, "")
		}
	}

	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderPlaceholder() string {
	content := fmt.Sprintf(
		"Tab %d: %s\n\n%s",
		m.activeTab+1,
		m.activeTab,
		m.styles.Subtle.Render("This tab is not available."),
	)
	return m.styles.Content.Render(content)
}
