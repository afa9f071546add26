package settings

import (
	"strings"
	"testing"
)

func testInfo() FormInfo {
	return FormInfo{
		Pools:       []string{"none", "lighting", "comp"},
		Groups:      []string{"none", "katana"},
		MaxPriority: 80,
		JobName:     "seq010_lighting",
		FrameRange:  "1-100",
		RenderNodes: []string{"beauty", "shadow"},
	}
}

func TestNewFormDefaults(t *testing.T) {
	form := NewForm(testInfo())
	if got := form.Text(FieldJobName); got != "seq010_lighting" {
		t.Fatalf("job name = %q", got)
	}
	if got := form.Text(FieldFrameRange); got != "1-100" {
		t.Fatalf("frame range = %q", got)
	}
	if got := form.Choice(FieldPool); got != "none" {
		t.Fatalf("default pool = %q, want first pool", got)
	}
	if got := form.Choice(FieldSecondaryPool); got != "none" {
		t.Fatalf("default secondary pool = %q, want first pool", got)
	}
	poolField, _ := form.Field(FieldPool)
	secondField, _ := form.Field(FieldSecondaryPool)
	if strings.Join(secondField.Choices, ",") != strings.Join(poolField.Choices, ",") {
		t.Fatalf("secondary pool choices = %v, want the pool list", secondField.Choices)
	}
	if got := form.Int(FieldPriority); got != 0 {
		t.Fatalf("default priority = %d, want 0", got)
	}
	if got := form.Int(FieldConcurrentTasks); got != 1 {
		t.Fatalf("default concurrent tasks = %d, want minimum 1", got)
	}
	if got := form.Int(FieldFramesPerTask); got != 1 {
		t.Fatalf("default frames per task = %d, want minimum 1", got)
	}
	if !form.Bool(FieldUseWorkingDir) {
		t.Fatalf("use working directory should default on")
	}
	if form.Bool(FieldFrameDependent) {
		t.Fatalf("frame dependent should default off")
	}
	if got := form.Choice(FieldSubmitMode); got != SubmitModeAll {
		t.Fatalf("default submit mode = %q", got)
	}
}

func TestDefaultJobName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/shots/seq010/lighting.katana", "lighting"},
		{"/shots/seq010/lighting.v002.katana", "lighting"},
		{"lighting.katana", "lighting"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := DefaultJobName(tc.in); got != tc.want {
			t.Fatalf("DefaultJobName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTypedAccessRejectsKindMismatch(t *testing.T) {
	form := NewForm(testInfo())
	if err := form.SetText(FieldSubmitScene, "yes"); err == nil {
		t.Fatalf("expected kind mismatch error for SetText on a bool field")
	}
	if err := form.SetBool(FieldJobName, true); err == nil {
		t.Fatalf("expected kind mismatch error for SetBool on a text field")
	}
	if err := form.SetInt(FieldPool, 3); err == nil {
		t.Fatalf("expected kind mismatch error for SetInt on a choice field")
	}
}

func TestSetChoiceRejectsUnknownValue(t *testing.T) {
	form := NewForm(testInfo())
	if err := form.SetChoice(FieldPool, "caustics"); err == nil {
		t.Fatalf("expected error for unknown pool")
	}
	if err := form.SetChoice(FieldPool, "comp"); err != nil {
		t.Fatalf("SetChoice valid pool: %v", err)
	}
	if got := form.Choice(FieldPool); got != "comp" {
		t.Fatalf("pool = %q, want comp", got)
	}
}

func TestSetIntClampsIntoRange(t *testing.T) {
	form := NewForm(testInfo())
	if err := form.SetInt(FieldPriority, 500); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	if got := form.Int(FieldPriority); got != 80 {
		t.Fatalf("priority = %d, want clamped 80", got)
	}
	if err := form.SetInt(FieldConcurrentTasks, 0); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	if got := form.Int(FieldConcurrentTasks); got != 1 {
		t.Fatalf("concurrent tasks = %d, want clamped 1", got)
	}
}

func TestSetParsesByKind(t *testing.T) {
	form := NewForm(testInfo())
	if err := form.Set(FieldPriority, "42"); err != nil {
		t.Fatalf("Set priority: %v", err)
	}
	if got := form.Int(FieldPriority); got != 42 {
		t.Fatalf("priority = %d, want 42", got)
	}
	if err := form.Set(FieldSubmitScene, "true"); err != nil {
		t.Fatalf("Set submit scene: %v", err)
	}
	if !form.Bool(FieldSubmitScene) {
		t.Fatalf("submit scene should be true")
	}
	if err := form.Set(FieldPriority, "high"); err == nil {
		t.Fatalf("expected parse error for non-integer priority")
	}
	if err := form.Set("NoSuchField", "x"); err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestStickyValuesExcludeNonStickyFields(t *testing.T) {
	form := NewForm(testInfo())
	saved := form.StickyValues()
	if _, present := saved[FieldJobName]; present {
		t.Fatalf("job name should not be sticky")
	}
	if _, present := saved[FieldFrameRange]; present {
		t.Fatalf("frame range should not be sticky")
	}
	if _, present := saved[FieldDepartment]; !present {
		t.Fatalf("department should be sticky")
	}
	if _, present := saved[FieldPool]; !present {
		t.Fatalf("pool should be sticky")
	}
}

func TestApplyStickyRestoresValues(t *testing.T) {
	first := NewForm(testInfo())
	if err := first.SetText(FieldDepartment, "lighting"); err != nil {
		t.Fatal(err)
	}
	if err := first.SetChoice(FieldPool, "comp"); err != nil {
		t.Fatal(err)
	}
	if err := first.SetBool(FieldSubmitScene, true); err != nil {
		t.Fatal(err)
	}
	if err := first.SetInt(FieldPriority, 66); err != nil {
		t.Fatal(err)
	}

	second := NewForm(testInfo())
	second.ApplySticky(first.StickyValues())
	if got := second.Text(FieldDepartment); got != "lighting" {
		t.Fatalf("department = %q", got)
	}
	if got := second.Choice(FieldPool); got != "comp" {
		t.Fatalf("pool = %q", got)
	}
	if !second.Bool(FieldSubmitScene) {
		t.Fatalf("submit scene should be restored")
	}
	if got := second.Int(FieldPriority); got != 66 {
		t.Fatalf("priority = %d", got)
	}
}

func TestApplyStickySkipsStaleAndMalformedEntries(t *testing.T) {
	form := NewForm(testInfo())
	form.ApplySticky(map[string]any{
		FieldPool:     "retired-pool",
		FieldPriority: "not-a-number",
		FieldJobName:  "should-not-apply",
		"Mystery":     true,
	})
	if got := form.Choice(FieldPool); got != "none" {
		t.Fatalf("stale pool should keep default, got %q", got)
	}
	if got := form.Int(FieldPriority); got != 0 {
		t.Fatalf("malformed priority should keep default, got %d", got)
	}
	if got := form.Text(FieldJobName); got != "seq010_lighting" {
		t.Fatalf("non-sticky job name should keep default, got %q", got)
	}
}

func TestApplyStickyCoercesJSONNumbers(t *testing.T) {
	form := NewForm(testInfo())
	form.ApplySticky(map[string]any{FieldPriority: float64(12)})
	if got := form.Int(FieldPriority); got != 12 {
		t.Fatalf("priority = %d, want 12", got)
	}
}

func TestSubmissionSnapshot(t *testing.T) {
	form := NewForm(testInfo())
	if err := form.SetChoice(FieldSubmitMode, SubmitModeSingle); err != nil {
		t.Fatal(err)
	}
	if err := form.SetChoice(FieldRenderNode, "shadow"); err != nil {
		t.Fatal(err)
	}
	snap := form.Submission()
	if !snap.SingleNode() {
		t.Fatalf("snapshot should report single node mode")
	}
	if snap.RenderNode != "shadow" {
		t.Fatalf("render node = %q", snap.RenderNode)
	}
	if snap.JobName != "seq010_lighting" || snap.Priority != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSetChoiceOptions(t *testing.T) {
	form := NewForm(testInfo())
	if err := form.SetChoice(FieldRenderNode, "shadow"); err != nil {
		t.Fatal(err)
	}
	if err := form.SetChoiceOptions(FieldRenderNode, []string{"beauty", "shadow", "comp"}); err != nil {
		t.Fatal(err)
	}
	if got := form.Choice(FieldRenderNode); got != "shadow" {
		t.Fatalf("surviving selection = %q, want shadow kept", got)
	}
	if err := form.SetChoiceOptions(FieldRenderNode, []string{"beauty"}); err != nil {
		t.Fatal(err)
	}
	if got := form.Choice(FieldRenderNode); got != "beauty" {
		t.Fatalf("dropped selection should reset to first option, got %q", got)
	}
	if err := form.SetChoiceOptions(FieldJobName, nil); err == nil {
		t.Fatalf("expected kind mismatch error for text field")
	}
}
