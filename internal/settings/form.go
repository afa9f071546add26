package settings

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Form holds the submitter's field set plus the current value of every
// field. Access is typed: asking a bool field for text is an error, which
// keeps widget wiring honest.
type Form struct {
	fields []Field
	index  map[string]int
	values map[string]any
}

// NewForm builds the canonical field set and seeds defaults from the
// repository info and scene facts in info.
func NewForm(info FormInfo) *Form {
	fields := buildFields(info)
	f := &Form{
		fields: fields,
		index:  make(map[string]int, len(fields)),
		values: make(map[string]any, len(fields)),
	}
	for i, field := range fields {
		f.index[field.Name] = i
		f.values[field.Name] = defaultValue(field)
	}

	f.values[FieldJobName] = strings.TrimSpace(info.JobName)
	f.values[FieldFrameRange] = strings.TrimSpace(info.FrameRange)
	f.values[FieldUseWorkingDir] = true
	return f
}

// DefaultJobName derives the form's initial job name from the scene file:
// the base name up to the first dot.
func DefaultJobName(sceneFile string) string {
	base := filepath.Base(strings.TrimSpace(sceneFile))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	name, _, _ := strings.Cut(base, ".")
	return name
}

func defaultValue(field Field) any {
	switch field.Kind {
	case KindText:
		return ""
	case KindChoice:
		if len(field.Choices) > 0 {
			return field.Choices[0]
		}
		return ""
	case KindInt:
		return clamp(0, field.Min, field.Max)
	case KindBool:
		return false
	}
	return nil
}

// Fields returns the field set in display order.
func (f *Form) Fields() []Field {
	out := make([]Field, len(f.fields))
	copy(out, f.fields)
	return out
}

// Field returns the named field definition.
func (f *Form) Field(name string) (Field, bool) {
	idx, ok := f.index[name]
	if !ok {
		return Field{}, false
	}
	return f.fields[idx], true
}

func (f *Form) fieldOfKind(name string, kind Kind) (Field, error) {
	field, ok := f.Field(name)
	if !ok {
		return Field{}, fmt.Errorf("settings: unknown field %s", name)
	}
	if field.Kind != kind {
		return Field{}, fmt.Errorf("settings: field %s is %s, not %s", name, field.Kind, kind)
	}
	return field, nil
}

// Text returns a text field's value. Unknown names return "".
func (f *Form) Text(name string) string {
	if v, ok := f.values[name].(string); ok {
		return v
	}
	return ""
}

// SetText sets a text field.
func (f *Form) SetText(name, value string) error {
	if _, err := f.fieldOfKind(name, KindText); err != nil {
		return err
	}
	f.values[name] = value
	return nil
}

// Choice returns a choice field's current selection.
func (f *Form) Choice(name string) string {
	if v, ok := f.values[name].(string); ok {
		return v
	}
	return ""
}

// SetChoice selects a value on a choice field. Values outside the choice
// list are rejected.
func (f *Form) SetChoice(name, value string) error {
	field, err := f.fieldOfKind(name, KindChoice)
	if err != nil {
		return err
	}
	if len(field.Choices) > 0 && !containsChoice(field.Choices, value) {
		return fmt.Errorf("settings: %q is not a valid choice for %s", value, name)
	}
	f.values[name] = value
	return nil
}

// SetChoiceOptions replaces a choice field's option list. The selection
// resets to the first option unless the current value survives the
// change. This backs the render node list, which follows the include
// ImageWrite toggle.
func (f *Form) SetChoiceOptions(name string, options []string) error {
	idx, ok := f.index[name]
	if !ok {
		return fmt.Errorf("settings: unknown field %s", name)
	}
	if f.fields[idx].Kind != KindChoice {
		return fmt.Errorf("settings: field %s is %s, not %s", name, f.fields[idx].Kind, KindChoice)
	}
	f.fields[idx].Choices = append([]string(nil), options...)
	if !containsChoice(options, f.Choice(name)) {
		if len(options) > 0 {
			f.values[name] = options[0]
		} else {
			f.values[name] = ""
		}
	}
	return nil
}

// Int returns an integer field's value.
func (f *Form) Int(name string) int {
	if v, ok := f.values[name].(int); ok {
		return v
	}
	return 0
}

// SetInt sets an integer field, clamping into the field's range.
func (f *Form) SetInt(name string, value int) error {
	field, err := f.fieldOfKind(name, KindInt)
	if err != nil {
		return err
	}
	f.values[name] = clamp(value, field.Min, field.Max)
	return nil
}

// Bool returns a boolean field's value.
func (f *Form) Bool(name string) bool {
	if v, ok := f.values[name].(bool); ok {
		return v
	}
	return false
}

// SetBool sets a boolean field.
func (f *Form) SetBool(name string, value bool) error {
	if _, err := f.fieldOfKind(name, KindBool); err != nil {
		return err
	}
	f.values[name] = value
	return nil
}

// Set parses raw according to the field's kind and applies it. This backs
// -set key=value command line overrides.
func (f *Form) Set(name, raw string) error {
	field, ok := f.Field(name)
	if !ok {
		return fmt.Errorf("settings: unknown field %s", name)
	}
	switch field.Kind {
	case KindText:
		return f.SetText(name, raw)
	case KindChoice:
		return f.SetChoice(name, raw)
	case KindInt:
		parsed, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("settings: field %s wants an integer: %w", name, err)
		}
		return f.SetInt(name, parsed)
	case KindBool:
		parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("settings: field %s wants a boolean: %w", name, err)
		}
		return f.SetBool(name, parsed)
	}
	return fmt.Errorf("settings: field %s has unknown kind %s", name, field.Kind)
}

// StickyValues returns the current value of every sticky field, keyed by
// field name. The result is what gets persisted between sessions.
func (f *Form) StickyValues() map[string]any {
	out := make(map[string]any)
	for _, field := range f.fields {
		if !field.Sticky {
			continue
		}
		out[field.Name] = f.values[field.Name]
	}
	return out
}

// ApplySticky restores previously saved values. Unknown keys, non-sticky
// keys, wrong types, and stale choices are all skipped so an old or
// hand-edited sticky file can never block a submission session.
func (f *Form) ApplySticky(saved map[string]any) {
	for name, raw := range saved {
		field, ok := f.Field(name)
		if !ok || !field.Sticky {
			continue
		}
		switch field.Kind {
		case KindText:
			if v, ok := raw.(string); ok {
				_ = f.SetText(name, v)
			}
		case KindChoice:
			if v, ok := raw.(string); ok {
				_ = f.SetChoice(name, v)
			}
		case KindInt:
			switch v := raw.(type) {
			case float64:
				_ = f.SetInt(name, int(v))
			case int:
				_ = f.SetInt(name, v)
			}
		case KindBool:
			if v, ok := raw.(bool); ok {
				_ = f.SetBool(name, v)
			}
		}
	}
}

// Submission snapshots the form into the typed struct job building wants.
func (f *Form) Submission() Submission {
	return Submission{
		JobName:           f.Text(FieldJobName),
		Comment:           f.Text(FieldComment),
		Department:        f.Text(FieldDepartment),
		Pool:              f.Choice(FieldPool),
		SecondaryPool:     f.Choice(FieldSecondaryPool),
		Group:             f.Choice(FieldGroup),
		Priority:          f.Int(FieldPriority),
		TaskTimeout:       f.Int(FieldTaskTimeout),
		ConcurrentTasks:   f.Int(FieldConcurrentTasks),
		LimitTasksToCPUs:  f.Bool(FieldLimitTasksToCPUs),
		MachineLimit:      f.Int(FieldMachineLimit),
		IsBlacklist:       f.Bool(FieldIsBlacklist),
		MachineList:       f.Text(FieldMachineList),
		LimitGroups:       f.Text(FieldLimitGroups),
		Dependencies:      f.Text(FieldDependencies),
		OnJobComplete:     f.Choice(FieldOnJobComplete),
		SubmitSuspended:   f.Bool(FieldSubmitSuspended),
		FrameRange:        f.Text(FieldFrameRange),
		SubmitScene:       f.Bool(FieldSubmitScene),
		FramesPerTask:     f.Int(FieldFramesPerTask),
		UseWorkingDir:     f.Bool(FieldUseWorkingDir),
		SubmitMode:        f.Choice(FieldSubmitMode),
		IncludeImageWrite: f.Bool(FieldIncludeImageWrite),
		RenderNode:        f.Choice(FieldRenderNode),
		FrameDependent:    f.Bool(FieldFrameDependent),
	}
}

func containsChoice(choices []string, value string) bool {
	for _, c := range choices {
		if c == value {
			return true
		}
	}
	return false
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if max > min && v > max {
		return max
	}
	return v
}
