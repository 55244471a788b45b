package dashboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stockpace/internal/app"
	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/validation"
)

// formField represents which field is focused in the add item form.
type formField int

const (
	fieldName formField = iota
	fieldCategory
	fieldUnit
	fieldQuantity
	fieldMinimum
	fieldTarget
	fieldSubmit
	fieldCancel
	fieldCount
)

var fieldLabels = [...]string{
	fieldName:     "Name",
	fieldCategory: "Category",
	fieldUnit:     "Unit",
	fieldQuantity: "Quantity on hand",
	fieldMinimum:  "Minimum threshold",
	fieldTarget:   "Target stock (optional)",
}

// addForm collects a new pantry item.
type addForm struct {
	inputs  []textinput.Model
	focused formField
	err     string
}

func newAddForm() addForm {
	placeholders := [...]string{
		fieldName:     "Paper towels",
		fieldCategory: "household",
		fieldUnit:     "rolls",
		fieldQuantity: "0",
		fieldMinimum:  "2",
		fieldTarget:   "",
	}

	inputs := make([]textinput.Model, fieldSubmit)
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Width = 30
		in.CharLimit = 100
		if formField(i) >= fieldQuantity {
			in.CharLimit = 6
			in.Validate = digitsOnly
		}
		inputs[i] = in
	}

	return addForm{inputs: inputs}
}

func digitsOnly(s string) error {
	for _, r := range s {
		if r < '0' || r > '9' {
			return errors.New("digits only")
		}
	}
	return nil
}

// reset clears the form and focuses the first field.
func (f *addForm) reset() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.err = ""
	f.focused = fieldName
	f.updateFocus()
	return textinput.Blink
}

func (f *addForm) move(delta int) tea.Cmd {
	n := int(fieldCount)
	f.focused = formField((int(f.focused) + delta + n) % n)
	f.updateFocus()
	return textinput.Blink
}

func (f *addForm) updateFocus() {
	for i := range f.inputs {
		if formField(i) == f.focused {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func (f *addForm) value(field formField) string {
	return strings.TrimSpace(f.inputs[field].Value())
}

// item builds and validates the item described by the form.
func (f *addForm) item() (models.Item, error) {
	item := models.Item{
		Name:     f.value(fieldName),
		Category: f.value(fieldCategory),
		Unit:     f.value(fieldUnit),
	}

	var err error
	if item.CurrentQuantity, err = intField(f.value(fieldQuantity)); err != nil {
		return models.Item{}, fmt.Errorf("quantity: %w", err)
	}
	if item.MinimumThreshold, err = intField(f.value(fieldMinimum)); err != nil {
		return models.Item{}, fmt.Errorf("minimum: %w", err)
	}
	if raw := f.value(fieldTarget); raw != "" {
		target, err := intField(raw)
		if err != nil {
			return models.Item{}, fmt.Errorf("target: %w", err)
		}
		item.TargetStockLevel = &target
	}

	if err := validation.Struct(item); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

func intField(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// updateAddForm handles keys while the add form is open.
func (m *Model) updateAddForm(msg tea.Msg) tea.Cmd {
	f := &m.form

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.closeForm()
			return nil
		case "tab", "down":
			return f.move(1)
		case "shift+tab", "up":
			return f.move(-1)
		case "enter":
			switch f.focused {
			case fieldSubmit:
				return m.submitForm()
			case fieldCancel:
				m.closeForm()
				return nil
			default:
				return f.move(1)
			}
		}
	}

	if f.focused >= fieldSubmit {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return cmd
}

func (m *Model) submitForm() tea.Cmd {
	item, err := m.form.item()
	if err != nil {
		m.form.err = err.Error()
		return nil
	}

	m.closeForm()
	return func() tea.Msg {
		return app.ItemActionMsg{Op: app.OpAdd, ItemName: item.Name, Item: item}
	}
}

func (m *Model) closeForm() {
	m.adding = false
	m.form.err = ""
	for i := range m.form.inputs {
		m.form.inputs[i].Blur()
	}
}

func (f *addForm) shortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}
