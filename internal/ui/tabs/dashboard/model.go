// Package dashboard provides the pantry overview tab.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stockpace/internal/app"
	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/ui/components"
)

const animationDuration = 1.5 // seconds

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	NextItem  key.Binding
	PrevItem  key.Binding
	FirstItem key.Binding
	LastItem  key.Binding
	Consume   key.Binding
	Restock   key.Binding
	Add       key.Binding
	Delete    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextItem: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next item"),
		),
		PrevItem: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev item"),
		),
		FirstItem: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first item"),
		),
		LastItem: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last item"),
		),
		Consume: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "use one"),
		),
		Restock: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "restock"),
		),
		Add: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "add item"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "remove item"),
		),
	}
}

// AnimationState tracks the state of an animation.
type AnimationState struct {
	StartTime      time.Time
	CurrentPercent float64
	TargetPercent  float64
	StartPercent   float64
}

// Model represents the dashboard tab state.
type Model struct {
	state      *app.State
	animations map[string]*AnimationState
	spinner    components.LoadingSpinner
	keys       keyMap
	viewport   viewport.Model
	stockBar   components.StockBar
	form       addForm
	horizon    int

	width          int
	height         int
	adding         bool
	confirmDelete  bool
	deleteTarget   models.Item
	animationFrame int
}

// New creates a new dashboard model. horizon is the forecast window in days
// used to scale the days-remaining bars.
func New(state *app.State, horizon int) *Model {
	return &Model{
		state:      state,
		spinner:    components.NewSpinner("Evaluating pantry..."),
		stockBar:   components.NewStockBar(40),
		form:       newAddForm(),
		horizon:    max(horizon, 1),
		keys:       defaultKeyMap(),
		viewport:   viewport.New(0, 0),
		animations: make(map[string]*AnimationState),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), animationTickCmd())
}

// CapturingInput reports whether the add form holds keyboard focus.
func (m *Model) CapturingInput() bool {
	return m.adding
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if m.adding {
		return m, m.updateAddForm(msg)
	}
	if m.confirmDelete {
		return m, m.updateDeleteConfirm(msg)
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case animationTickMsg:
		cmds = append(cmds, m.handleAnimationTick(msg))

	case app.StartLoadingMsg:
		cmds = append(cmds, animationTickCmd())

	case app.AdviceLoadedMsg, app.ServiceEventMsg, app.TabSwitchMsg:
		m.syncAnimationTargets(time.Now())
		cmds = append(cmds, animationTickCmd())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAnimationTick(msg animationTickMsg) tea.Cmd {
	m.animationFrame++
	now := time.Time(msg)

	animating := m.syncAnimationTargets(now)
	m.stepAnimations(now)

	if animating || m.state.AnyLoading() {
		return animationTickCmd()
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	count := m.state.GetItemCount()
	selected := m.state.GetSelectedIndex()

	switch {
	case key.Matches(msg, m.keys.NextItem):
		if count > 0 {
			return m.selectItem((selected + 1) % count)
		}
	case key.Matches(msg, m.keys.PrevItem):
		if count > 0 {
			return m.selectItem((selected - 1 + count) % count)
		}
	case key.Matches(msg, m.keys.FirstItem):
		if count > 0 {
			return m.selectItem(0)
		}
	case key.Matches(msg, m.keys.LastItem):
		if count > 0 {
			return m.selectItem(count - 1)
		}
	case key.Matches(msg, m.keys.Consume):
		return m.itemAction(app.OpConsume, 1)
	case key.Matches(msg, m.keys.Restock):
		return m.itemAction(app.OpRestock, m.restockQuantity())
	case key.Matches(msg, m.keys.Add):
		m.adding = true
		return m.form.reset()
	case key.Matches(msg, m.keys.Delete):
		if advice := m.state.GetSelectedAdvice(); advice != nil {
			m.confirmDelete = true
			m.deleteTarget = advice.Item
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// selectItem moves the shared selection and announces the new item.
func (m *Model) selectItem(idx int) tea.Cmd {
	m.state.SetSelectedIndex(idx)
	advice := m.state.GetSelectedAdvice()
	if advice == nil {
		return nil
	}
	itemID := advice.Item.ID
	return func() tea.Msg {
		return app.SelectedItemChangedMsg{ItemID: itemID}
	}
}

func (m *Model) itemAction(op app.ItemOperation, quantity int) tea.Cmd {
	advice := m.state.GetSelectedAdvice()
	if advice == nil {
		return nil
	}
	if op == app.OpConsume && advice.Item.CurrentQuantity <= 0 {
		return app.NotifyError(advice.Item.Name + " is out of stock")
	}

	msg := app.ItemActionMsg{
		Op:       op,
		ItemID:   advice.Item.ID,
		ItemName: advice.Item.Name,
		Quantity: quantity,
	}
	return func() tea.Msg { return msg }
}

// restockQuantity is the advisor's suggested purchase, or a single unit.
func (m *Model) restockQuantity() int {
	advice := m.state.GetSelectedAdvice()
	if advice == nil {
		return 1
	}
	if timing := advice.Recommendation.AdditionalInfo.TimingRecommendation; timing != nil && timing.SuggestedQuantity > 0 {
		return timing.SuggestedQuantity
	}
	return 1
}

func (m *Model) updateDeleteConfirm(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		m.confirmDelete = false
		item := m.deleteTarget
		m.deleteTarget = models.Item{}
		return func() tea.Msg {
			return app.ItemActionMsg{Op: app.OpDelete, ItemID: item.ID, ItemName: item.Name}
		}
	case "n", "N", "esc":
		m.confirmDelete = false
		m.deleteTarget = models.Item{}
	}
	return nil
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// syncAnimationTargets points every item's animation at its current stock
// level and reports whether any bar still has to move.
func (m *Model) syncAnimationTargets(now time.Time) (animating bool) {
	for _, advice := range m.state.GetAdvice() {
		if m.updateAnimationState(advice.Item.ID, components.StockPercent(advice.Item), now) {
			animating = true
		}
	}
	return animating
}

func (m *Model) updateAnimationState(animKey string, target float64, now time.Time) bool {
	state, exists := m.animations[animKey]
	if !exists {
		state = &AnimationState{StartTime: now}
		m.animations[animKey] = state
	}

	if target != state.TargetPercent {
		state.StartPercent = state.CurrentPercent
		state.TargetPercent = target
		state.StartTime = now
	}

	return state.CurrentPercent != state.TargetPercent
}

func (m *Model) stepAnimations(now time.Time) {
	for _, state := range m.animations {
		if state.CurrentPercent == state.TargetPercent {
			continue
		}
		elapsed := now.Sub(state.StartTime).Seconds()
		if elapsed >= animationDuration {
			state.CurrentPercent = state.TargetPercent
			continue
		}
		progress := elapsed / animationDuration
		ease := 1.0 - (1.0-progress)*(1.0-progress)
		state.CurrentPercent = state.StartPercent + (state.TargetPercent-state.StartPercent)*ease
	}
}

// displayPercent is the animated stock level for an item.
func (m *Model) displayPercent(item models.Item) float64 {
	if anim, ok := m.animations[item.ID]; ok {
		return anim.CurrentPercent
	}
	return components.StockPercent(item)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.adding {
		return m.form.shortHelp()
	}
	return []key.Binding{
		m.keys.NextItem,
		m.keys.PrevItem,
		m.keys.Consume,
		m.keys.Restock,
		m.keys.Add,
		m.keys.Delete,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.NextItem, m.keys.PrevItem},
		{m.keys.FirstItem, m.keys.LastItem},
		{m.keys.Consume, m.keys.Restock},
		{m.keys.Add, m.keys.Delete},
	}
}
