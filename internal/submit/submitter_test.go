package submit

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/NinjaCats/deadline-katana/internal/job"
	"github.com/NinjaCats/deadline-katana/internal/scene"
	"github.com/NinjaCats/deadline-katana/internal/settings"
)

// stubFarm plays the role of deadlinecommand. It identifies the node
// being submitted by reading RenderNode back out of the plugin info
// file it was handed.
type stubFarm struct {
	t         *testing.T
	nextID    int
	calls     []string
	files     [][]string
	failFor   map[string]bool
	silentFor map[string]bool
}

func (f *stubFarm) SubmitJob(files ...string) (string, error) {
	f.files = append(f.files, files)
	info, err := job.ReadDescriptorFile(files[1])
	if err != nil {
		f.t.Fatalf("read plugin info: %v", err)
	}
	node, _ := info.Get("RenderNode")
	f.calls = append(f.calls, node)
	if f.failFor[node] {
		return "Error: could not connect to repository", fmt.Errorf("deadline: command exited with code 1")
	}
	if f.silentFor[node] {
		return "Submitting to Repository...\nDone.", nil
	}
	f.nextID++
	return fmt.Sprintf("Submitting to Repository...\nJobID=job-%03d\nDone.", f.nextID), nil
}

func testScene() scene.Scene {
	return scene.Scene{
		Version:       1,
		SourceFile:    "/shows/katana/shots/seq010.katana",
		KatanaVersion: 7,
		Nodes: []scene.Node{
			{Name: "beauty", Type: scene.NodeTypeRender, Outputs: []string{"/out/beauty.0001.exr"}},
			{Name: "shadow", Type: scene.NodeTypeRender, FarmRange: &scene.FrameRange{Start: 10, End: 20}},
			{Name: "comp", Type: scene.NodeTypeRender, DependsOn: []string{"beauty", "shadow"}},
		},
	}
}

func testValues() settings.Submission {
	return settings.Submission{
		JobName:       "seq010",
		Pool:          "none",
		Group:         "none",
		OnJobComplete: "Nothing",
		FrameRange:    "1-100",
		FramesPerTask: 1,
		SubmitMode:    settings.SubmitModeAll,
	}
}

func newTestSubmitter(farm *stubFarm) *Submitter {
	return New(farm)
}

func TestRunAllSubmitsInDependencyOrder(t *testing.T) {
	farm := &stubFarm{t: t}
	tempDir := t.TempDir()
	summary, err := newTestSubmitter(farm).Run(Options{
		Values:  testValues(),
		Scene:   testScene(),
		TempDir: tempDir,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(farm.calls, []string{"beauty", "shadow", "comp"}) {
		t.Fatalf("submission order = %v", farm.calls)
	}
	if !summary.OK() || summary.Submitted() != 3 {
		t.Fatalf("summary = %+v", summary)
	}
	for i, want := range []string{"job-001", "job-002", "job-003"} {
		if summary.Results[i].JobID != want {
			t.Fatalf("result %d job id = %q, want %q", i, summary.Results[i].JobID, want)
		}
	}

	compInfo, err := job.ReadDescriptorFile(filepath.Join(tempDir, job.InfoFileName(2)))
	if err != nil {
		t.Fatalf("read comp job info: %v", err)
	}
	if deps, _ := compInfo.Get("JobDependencies"); deps != "job-001,job-002" {
		t.Fatalf("comp JobDependencies = %q", deps)
	}
	if batch, ok := compInfo.Get("BatchName"); !ok || batch != "seq010" {
		t.Fatalf("comp BatchName = %q, %v", batch, ok)
	}
	if name, _ := compInfo.Get("Name"); name != "seq010 - comp" {
		t.Fatalf("comp Name = %q", name)
	}

	shadowInfo, err := job.ReadDescriptorFile(filepath.Join(tempDir, job.InfoFileName(1)))
	if err != nil {
		t.Fatalf("read shadow job info: %v", err)
	}
	if frames, _ := shadowInfo.Get("Frames"); frames != "10-20" {
		t.Fatalf("shadow Frames = %q, want its farm range", frames)
	}
}

func TestRunAllSkipsDependentsOfFailedNode(t *testing.T) {
	farm := &stubFarm{t: t, failFor: map[string]bool{"shadow": true}}
	summary, err := newTestSubmitter(farm).Run(Options{
		Values:  testValues(),
		Scene:   testScene(),
		TempDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(farm.calls, []string{"beauty", "shadow"}) {
		t.Fatalf("submission attempts = %v", farm.calls)
	}
	if summary.Submitted() != 1 || summary.Failed() != 1 || summary.Skipped() != 1 {
		t.Fatalf("counts = %d/%d/%d", summary.Submitted(), summary.Failed(), summary.Skipped())
	}
	comp := summary.Results[2]
	if comp.Node != "comp" || comp.Status != StatusSkipped {
		t.Fatalf("comp result = %+v", comp)
	}
	if !strings.Contains(comp.Reason, `dependency "shadow"`) {
		t.Fatalf("comp reason = %q", comp.Reason)
	}
	if summary.OK() {
		t.Fatalf("summary should not be OK after a failure")
	}
}

func TestRunAllSkipsTransitively(t *testing.T) {
	sc := testScene()
	sc.Nodes = append(sc.Nodes, scene.Node{
		Name: "grade", Type: scene.NodeTypeRender, DependsOn: []string{"comp"},
	})
	farm := &stubFarm{t: t, failFor: map[string]bool{"beauty": true}}
	summary, err := newTestSubmitter(farm).Run(Options{
		Values:  testValues(),
		Scene:   sc,
		TempDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// shadow has no path through beauty, so it still goes out.
	if !reflect.DeepEqual(farm.calls, []string{"beauty", "shadow"}) {
		t.Fatalf("submission attempts = %v", farm.calls)
	}
	if summary.Skipped() != 2 {
		t.Fatalf("skipped = %d, want comp and grade", summary.Skipped())
	}
	grade := summary.Results[3]
	if grade.Status != StatusSkipped || !strings.Contains(grade.Reason, `dependency "comp"`) {
		t.Fatalf("grade result = %+v", grade)
	}
}

func TestRunAllCycleAbortsBeforeSubmitting(t *testing.T) {
	sc := testScene()
	sc.Nodes = []scene.Node{
		{Name: "a", Type: scene.NodeTypeRender, DependsOn: []string{"b"}},
		{Name: "b", Type: scene.NodeTypeRender, DependsOn: []string{"a"}},
	}
	farm := &stubFarm{t: t}
	_, err := newTestSubmitter(farm).Run(Options{
		Values:  testValues(),
		Scene:   sc,
		TempDir: t.TempDir(),
	})
	var graphErr *GraphError
	if !errors.As(err, &graphErr) {
		t.Fatalf("expected *GraphError, got %v", err)
	}
	if len(farm.calls) != 0 {
		t.Fatalf("no jobs should go out on an unorderable graph, got %v", farm.calls)
	}
}

func TestRunSingleNode(t *testing.T) {
	values := testValues()
	values.SubmitMode = settings.SubmitModeSingle
	values.RenderNode = "shadow"
	farm := &stubFarm{t: t}
	tempDir := t.TempDir()
	summary, err := newTestSubmitter(farm).Run(Options{
		Values:  values,
		Scene:   testScene(),
		TempDir: tempDir,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(farm.calls, []string{"shadow"}) {
		t.Fatalf("submission attempts = %v", farm.calls)
	}
	if summary.Results[0].JobID != "job-001" {
		t.Fatalf("result = %+v", summary.Results[0])
	}

	info, err := job.ReadDescriptorFile(filepath.Join(tempDir, job.InfoFileName(-1)))
	if err != nil {
		t.Fatalf("read job info: %v", err)
	}
	if name, _ := info.Get("Name"); name != "seq010" {
		t.Fatalf("lone job name = %q, want no node suffix", name)
	}
	if frames, _ := info.Get("Frames"); frames != "1-100" {
		t.Fatalf("lone job Frames = %q, want the form range", frames)
	}
	if _, ok := info.Get("BatchName"); ok {
		t.Fatalf("lone job should not carry a BatchName")
	}
}

func TestRunSingleNodeUnknown(t *testing.T) {
	values := testValues()
	values.SubmitMode = settings.SubmitModeSingle
	values.RenderNode = "missing"
	_, err := newTestSubmitter(&stubFarm{t: t}).Run(Options{
		Values:  values,
		Scene:   testScene(),
		TempDir: t.TempDir(),
	})
	if err == nil || !strings.Contains(err.Error(), "not an eligible") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunPreflight(t *testing.T) {
	unsaved := testScene()
	unsaved.SourceFile = ""

	bypassed := testScene()
	for i := range bypassed.Nodes {
		bypassed.Nodes[i].Bypassed = true
	}

	noFrames := testValues()
	noFrames.FrameRange = "  "

	cases := []struct {
		name   string
		values settings.Submission
		scene  scene.Scene
		title  string
	}{
		{"unsaved scene", testValues(), unsaved, "No Scene File Found"},
		{"no output nodes", testValues(), bypassed, "No Output Nodes"},
		{"no frame range", noFrames, testScene(), "No Frame Range Specified"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			farm := &stubFarm{t: t}
			_, err := newTestSubmitter(farm).Run(Options{
				Values:  tc.values,
				Scene:   tc.scene,
				TempDir: t.TempDir(),
			})
			var preflight *PreflightError
			if !errors.As(err, &preflight) {
				t.Fatalf("expected *PreflightError, got %v", err)
			}
			if preflight.Title != tc.title {
				t.Fatalf("title = %q, want %q", preflight.Title, tc.title)
			}
			if len(farm.calls) != 0 {
				t.Fatalf("preflight failure must not submit, got %v", farm.calls)
			}
		})
	}
}

func TestRunMarksFailedWhenOutputHasNoJobID(t *testing.T) {
	farm := &stubFarm{t: t, silentFor: map[string]bool{"beauty": true}}
	summary, err := newTestSubmitter(farm).Run(Options{
		Values:  testValues(),
		Scene:   testScene(),
		TempDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	beauty := summary.Results[0]
	if beauty.Status != StatusFailed || beauty.Err == nil {
		t.Fatalf("beauty result = %+v", beauty)
	}
	if !strings.Contains(beauty.Output, "Done.") {
		t.Fatalf("raw output should be kept, got %q", beauty.Output)
	}
}

func TestRunShipsSceneFileWhenRequested(t *testing.T) {
	values := testValues()
	values.SubmitScene = true
	sc := testScene()
	farm := &stubFarm{t: t}
	if _, err := newTestSubmitter(farm).Run(Options{
		Values:  values,
		Scene:   sc,
		TempDir: t.TempDir(),
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	first := farm.files[0]
	if len(first) != 3 || first[2] != sc.SourceFile {
		t.Fatalf("submitted files = %v", first)
	}
}

func TestRunReportsProgress(t *testing.T) {
	var seen []string
	farm := &stubFarm{t: t}
	_, err := newTestSubmitter(farm).Run(Options{
		Values:  testValues(),
		Scene:   testScene(),
		TempDir: t.TempDir(),
		Progress: func(node string, index, total int) {
			seen = append(seen, fmt.Sprintf("%s %d/%d", node, index+1, total))
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"beauty 1/3", "shadow 2/3", "comp 3/3"}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("progress = %v", seen)
	}
}

func TestSummaryMessage(t *testing.T) {
	one := Summary{Results: []Result{{
		Node: "beauty", Status: StatusSubmitted, JobID: "job-001",
		Output: "Submitting to Repository...\nJobID=job-001\nDone.",
	}}}
	if msg := one.Message(); !strings.Contains(msg, "Done submitting 1 job(s).") || !strings.Contains(msg, "JobID=job-001") {
		t.Fatalf("single message = %q", msg)
	}

	many := Summary{Results: []Result{
		{Node: "a", Status: StatusSubmitted},
		{Node: "b", Status: StatusSubmitted},
	}}
	if msg := many.Message(); !strings.Contains(msg, "Done submitting 2 job(s).") || !strings.Contains(msg, "consult the submit log") {
		t.Fatalf("multi message = %q", msg)
	}
}

func TestIsPathLocal(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{`C:\shots\seq010.katana`, true},
		{"d:/shots/seq010.katana", true},
		{"E:FILE", true},
		{"/mnt/shows/seq010.katana", false},
		{"x:/shots/seq010.katana", false},
	}
	for _, tc := range cases {
		if got := IsPathLocal(tc.path); got != tc.want {
			t.Fatalf("IsPathLocal(%q) = %v", tc.path, got)
		}
	}
}

func TestNeedsLocalSceneConfirm(t *testing.T) {
	sc := testScene()
	sc.SourceFile = `C:\shots\seq010.katana`
	values := testValues()
	if !NeedsLocalSceneConfirm(values, sc) {
		t.Fatalf("local scene without shipping should need confirmation")
	}
	values.SubmitScene = true
	if NeedsLocalSceneConfirm(values, sc) {
		t.Fatalf("shipping the scene should not need confirmation")
	}
}
