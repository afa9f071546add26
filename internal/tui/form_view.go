package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NinjaCats/deadline-katana/internal/settings"
)

var (
	fieldLabelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	fieldSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	fieldValueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
)

// browsable lists the fields backed by a repository picker dialog.
var browsable = map[string]bool{
	settings.FieldMachineList:  true,
	settings.FieldLimitGroups:  true,
	settings.FieldDependencies: true,
}

// formView handles navigation and editing of the settings form.
type formView struct {
	app       *App
	selection int
	editing   bool
	editor    textinput.Model
}

func newFormView(app *App) *formView {
	editor := textinput.New()
	editor.Prompt = ""
	editor.CharLimit = 512
	view := &formView{app: app, editor: editor}
	view.clampSelection(1)
	return view
}

func (v *formView) fields() []settings.Field {
	return v.app.form.Fields()
}

// fieldEnabled reports whether a field currently takes input. The render
// node picker only applies in single node mode.
func (v *formView) fieldEnabled(field settings.Field) bool {
	if field.Name == settings.FieldRenderNode {
		return v.app.form.Choice(settings.FieldSubmitMode) == settings.SubmitModeSingle
	}
	return true
}

// clampSelection moves the selection onto the nearest enabled field,
// scanning in direction dir (+1 or -1).
func (v *formView) clampSelection(dir int) {
	fields := v.fields()
	if len(fields) == 0 {
		return
	}
	if v.selection < 0 {
		v.selection = 0
	}
	if v.selection >= len(fields) {
		v.selection = len(fields) - 1
	}
	for i := 0; i < len(fields); i++ {
		if v.fieldEnabled(fields[v.selection]) {
			return
		}
		v.selection += dir
		if v.selection < 0 {
			v.selection = len(fields) - 1
		}
		if v.selection >= len(fields) {
			v.selection = 0
		}
	}
}

func (v *formView) move(delta int) {
	fields := v.fields()
	if len(fields) == 0 {
		return
	}
	v.selection += delta
	if v.selection < 0 {
		v.selection = len(fields) - 1
	}
	if v.selection >= len(fields) {
		v.selection = 0
	}
	v.clampSelection(delta)
}

func (v *formView) selected() (settings.Field, bool) {
	fields := v.fields()
	if v.selection < 0 || v.selection >= len(fields) {
		return settings.Field{}, false
	}
	return fields[v.selection], true
}

func (v *formView) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if v.editing {
			var cmd tea.Cmd
			v.editor, cmd = v.editor.Update(msg)
			return cmd
		}
		return nil
	}
	if v.editing {
		return v.updateEditing(key)
	}

	field, haveField := v.selected()
	switch key.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		v.move(-1)
	case "down", "j":
		v.move(1)
	case "left", "h":
		if haveField {
			v.adjust(field, -1)
		}
	case "right", "l":
		if haveField {
			v.adjust(field, 1)
		}
	case "enter", " ":
		if haveField {
			return v.activate(field)
		}
	case "b":
		if haveField && browsable[field.Name] {
			return v.app.browseField(field.Name)
		}
	case "s":
		return v.app.submitPressed()
	}
	return nil
}

func (v *formView) updateEditing(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "enter":
		field, ok := v.selected()
		if !ok {
			v.editing = false
			return nil
		}
		if err := v.app.form.Set(field.Name, v.editor.Value()); err != nil {
			v.app.statusMsg = err.Error()
			return nil
		}
		v.editing = false
		v.editor.Blur()
		v.app.statusMsg = ""
		return nil
	case "esc":
		v.editing = false
		v.editor.Blur()
		v.app.statusMsg = ""
		return nil
	}
	var cmd tea.Cmd
	v.editor, cmd = v.editor.Update(key)
	return cmd
}

// adjust cycles choices and toggles bools with left/right.
func (v *formView) adjust(field settings.Field, delta int) {
	switch field.Kind {
	case settings.KindChoice:
		v.cycleChoice(field, delta)
	case settings.KindBool:
		v.toggleBool(field)
	}
}

// activate is enter/space on the selected field: text and int fields open
// the editor, bools toggle, choices cycle forward.
func (v *formView) activate(field settings.Field) tea.Cmd {
	switch field.Kind {
	case settings.KindText:
		return v.beginEdit(v.app.form.Text(field.Name))
	case settings.KindInt:
		return v.beginEdit(fmt.Sprintf("%d", v.app.form.Int(field.Name)))
	case settings.KindBool:
		v.toggleBool(field)
	case settings.KindChoice:
		v.cycleChoice(field, 1)
	}
	return nil
}

func (v *formView) beginEdit(current string) tea.Cmd {
	v.editing = true
	v.editor.SetValue(current)
	v.editor.CursorEnd()
	return v.editor.Focus()
}

func (v *formView) toggleBool(field settings.Field) {
	next := !v.app.form.Bool(field.Name)
	if err := v.app.form.SetBool(field.Name, next); err != nil {
		v.app.statusMsg = err.Error()
		return
	}
	if field.Name == settings.FieldIncludeImageWrite {
		v.refreshRenderNodes(next)
	}
}

// refreshRenderNodes rebuilds the render node choice list to follow the
// include ImageWrite toggle.
func (v *formView) refreshRenderNodes(includeImageWrite bool) {
	nodes := v.app.scene.OutputNodes(includeImageWrite)
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	if err := v.app.form.SetChoiceOptions(settings.FieldRenderNode, names); err != nil {
		v.app.statusMsg = err.Error()
	}
}

func (v *formView) cycleChoice(field settings.Field, delta int) {
	// Re-read the field: choice lists can change between renders.
	field, ok := v.app.form.Field(field.Name)
	if !ok || len(field.Choices) == 0 {
		return
	}
	current := v.app.form.Choice(field.Name)
	idx := 0
	for i, c := range field.Choices {
		if c == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(field.Choices)) % len(field.Choices)
	if err := v.app.form.SetChoice(field.Name, field.Choices[idx]); err != nil {
		v.app.statusMsg = err.Error()
	}
}

func (v *formView) View() string {
	var lines []string
	section := ""
	for i, field := range v.fields() {
		if field.Section != section {
			section = field.Section
			lines = append(lines, "", sectionStyle.Render(section))
		}
		lines = append(lines, v.renderFieldLine(i, field))
	}
	lines = append(lines, "", helpStyle.Render(v.helpLine()))
	return strings.Join(lines, "\n")
}

func (v *formView) renderFieldLine(idx int, field settings.Field) string {
	indicator := "  "
	labelStyle := fieldLabelStyle
	if idx == v.selection {
		indicator = "> "
		labelStyle = fieldSelectedStyle
	}
	label := labelStyle.Render(fmt.Sprintf("%-22s", field.Label))

	if idx == v.selection && v.editing {
		return fmt.Sprintf("%s%s %s", indicator, label, v.editor.View())
	}

	value := v.renderValue(field)
	if !v.fieldEnabled(field) {
		return fmt.Sprintf("%s%s %s", indicator, label, dimStyle.Render(value+"  (single node mode only)"))
	}
	return fmt.Sprintf("%s%s %s", indicator, label, fieldValueStyle.Render(value))
}

func (v *formView) renderValue(field settings.Field) string {
	switch field.Kind {
	case settings.KindText:
		return v.app.form.Text(field.Name)
	case settings.KindChoice:
		return fmt.Sprintf("< %s >", v.app.form.Choice(field.Name))
	case settings.KindInt:
		return fmt.Sprintf("%d", v.app.form.Int(field.Name))
	case settings.KindBool:
		if v.app.form.Bool(field.Name) {
			return "[x]"
		}
		return "[ ]"
	}
	return ""
}

func (v *formView) helpLine() string {
	if v.editing {
		return "enter=apply  esc=cancel"
	}
	help := "up/down=move  left/right=change  enter=edit  s=submit  q=quit"
	if field, ok := v.selected(); ok && browsable[field.Name] {
		help += "  b=browse"
	}
	return help
}
