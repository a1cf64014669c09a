package browse

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/ui/styles"
)

type formResult int

const (
	formEditing formResult = iota
	formSubmitted
	formCancelled
)

// formFields are the text inputs of the model form, in focus order. The
// submit and cancel buttons follow them.
var formFields = []struct {
	label       string
	placeholder string
	limit       int
}{
	{"Name", "ResNet-50 fine-tuned", 80},
	{"Framework", "PyTorch", 40},
	{"Use Case", "Image Classification", 60},
	{"Dataset", "ImageNet", 80},
	{"Description", "What the model does", 500},
	{"Image URL", "https://...", 300},
}

const (
	fieldSubmit = iota + 6
	fieldCancel
	fieldCount
)

// modelForm collects the fields for publishing or editing a model.
type modelForm struct {
	err       error
	editingID string
	inputs    []textinput.Model
	focused   int
}

// newModelForm returns an empty form, or one prefilled from rec for editing.
func newModelForm(rec *models.ModelRecord) *modelForm {
	f := &modelForm{inputs: make([]textinput.Model, len(formFields))}
	for i, field := range formFields {
		in := textinput.New()
		in.Placeholder = field.placeholder
		in.CharLimit = field.limit
		in.Width = 50
		f.inputs[i] = in
	}

	if rec != nil {
		f.editingID = rec.ID
		in := models.InputFromRecord(*rec)
		values := []string{in.Name, in.Framework, in.UseCase, in.Dataset, in.Description, in.Image}
		for i, v := range values {
			f.inputs[i].SetValue(v)
		}
	}

	f.setFocus(0)
	return f
}

// Editing reports whether the form edits an existing model.
func (f *modelForm) Editing() bool {
	return f.editingID != ""
}

// Input returns the trimmed form values.
func (f *modelForm) Input() models.NewModelInput {
	v := func(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }
	return models.NewModelInput{
		Name:        v(0),
		Framework:   v(1),
		UseCase:     v(2),
		Dataset:     v(3),
		Description: v(4),
		Image:       v(5),
	}
}

// Update handles a key for the form.
func (f *modelForm) Update(msg tea.KeyMsg) (formResult, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return formCancelled, nil

	case "tab", "down":
		f.setFocus((f.focused + 1) % fieldCount)
		return formEditing, textinput.Blink

	case "shift+tab", "up":
		f.setFocus((f.focused - 1 + fieldCount) % fieldCount)
		return formEditing, textinput.Blink

	case "enter":
		switch f.focused {
		case fieldCancel:
			return formCancelled, nil
		case fieldSubmit:
			if err := f.Input().Validate(); err != nil {
				f.err = err
				return formEditing, nil
			}
			return formSubmitted, nil
		default:
			f.setFocus(f.focused + 1)
			return formEditing, textinput.Blink
		}
	}

	if f.focused >= len(f.inputs) {
		return formEditing, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	f.err = nil
	return formEditing, cmd
}

func (f *modelForm) setFocus(i int) {
	f.focused = i
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

// View renders the form as a modal card.
func (f *modelForm) View(width int) string {
	cardWidth := min(max(width-10, 50), 80)

	title := "Publish Model"
	submit := " Publish "
	if f.Editing() {
		title = "Edit Model"
		submit = " Save "
	}

	rows := []string{styles.CardTitleStyle.Render(title), ""}

	for i, field := range formFields {
		label := styles.BlurredStyle.Render("  " + field.label + ":")
		inputStyle := styles.BlurredBorderStyle
		if f.focused == i {
			label = styles.FocusedStyle.Render("> " + field.label + ":")
			inputStyle = styles.FocusedBorderStyle
		}
		rows = append(rows, label, inputStyle.Width(cardWidth-10).Render(f.inputs[i].View()))
	}
	rows = append(rows, "")

	submitStyle := styles.ButtonInactiveStyle
	cancelStyle := styles.ButtonInactiveStyle
	if f.focused == fieldSubmit {
		submitStyle = styles.ButtonActiveStyle
	}
	if f.focused == fieldCancel {
		cancelStyle = styles.ButtonActiveStyle
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center,
		submitStyle.Render(submit),
		"  ",
		cancelStyle.Render(" Cancel "),
	))

	if f.err != nil {
		rows = append(rows, "", styles.ErrorTextStyle.Render(f.err.Error()))
	}

	rows = append(rows, "", styles.HelpStyle.Render("Tab: next field | Enter: submit | Esc: cancel"))

	return styles.ModalContentStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
