package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/NinjaCats/deadline-katana/internal/config"
	"github.com/NinjaCats/deadline-katana/internal/deadline"
	"github.com/NinjaCats/deadline-katana/internal/logbook"
	"github.com/NinjaCats/deadline-katana/internal/scene"
	"github.com/NinjaCats/deadline-katana/internal/settings"
	"github.com/NinjaCats/deadline-katana/internal/submit"
	"github.com/NinjaCats/deadline-katana/plugins"
)

func main() {
	scenePath := flag.String("scene", "", "path to the scene description (defaults to the project scene)")
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	renderNode := flag.String("node", "", "submit only this render node instead of the whole scene")
	dryRun := flag.Bool("dry-run", false, "print the submission order without submitting")
	allowLocal := flag.Bool("allow-local-scene", false, "submit even when the scene file is on a local drive")
	sets := keyValueFlag{}
	flag.Var(&sets, "set", "job setting override (field=value, repeatable)")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	project, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitWorkDir(project); err != nil {
		die("init project work dir: %v", err)
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		die("load project config: %v", err)
	}

	lb, err := logbook.New(cfg.SubmitLogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: submit log unavailable: %v\n", err)
		lb = nil
	}
	defer lb.Close()

	client := deadline.New(deadline.WithLogbook(lb))
	fmt.Println("Grabbing submitter info...")
	info, err := client.SubmissionInfo()
	if err != nil {
		die("get submitter info from Deadline: %v", err)
	}
	cfg.ApplyFarmHome(info.UserHomeDir)

	sc, err := scene.LoadSceneFile(cfg.ScenePath(*scenePath))
	if err != nil {
		die("load scene description: %v", err)
	}
	hooks, err := plugins.LoadProjectHooks(cfg)
	if err != nil {
		die("load project hooks: %v", err)
	}

	form := settings.NewForm(settings.FormInfo{
		Pools:       info.Pools,
		Groups:      info.Groups,
		MaxPriority: info.MaxPriority,
		JobName:     settings.DefaultJobName(sc.SourceFile),
		FrameRange:  frameRangeFor(sc),
		// The whole node list so -node and overrides validate against
		// every output node, not just the Render ones.
		RenderNodes: nodeNames(sc.OutputNodes(true)),
	})
	sticky := settings.NewStickyStore(cfg.StickySettingsPath(), lb)
	sticky.Load(form)

	for key, value := range sets {
		if err := form.Set(key, value); err != nil {
			die("apply -set %s: %v", key, err)
		}
	}
	if *renderNode != "" {
		if err := form.SetChoice(settings.FieldSubmitMode, settings.SubmitModeSingle); err != nil {
			die("select single node mode: %v", err)
		}
		if err := form.SetChoice(settings.FieldRenderNode, *renderNode); err != nil {
			die("select render node: %v", err)
		}
	}
	sticky.Save(form)

	values := form.Submission()
	if err := submit.Preflight(values, sc); err != nil {
		die("%v", err)
	}
	if submit.NeedsLocalSceneConfirm(values, sc) && !*allowLocal {
		die("%s\n(pass -allow-local-scene to submit anyway)", submit.LocalSceneQuestion)
	}

	if *dryRun {
		if err := printPlan(values, sc); err != nil {
			die("%v", err)
		}
		return
	}

	extraLines, groupBatch := plugins.ExtraJobLines(hooks)
	runner := submit.New(client, submit.WithLogbook(lb))
	summary, err := runner.Run(submit.Options{
		Values:     values,
		Scene:      sc,
		TempDir:    cfg.FarmTempDir(),
		ExtraLines: extraLines,
		GroupBatch: groupBatch,
		Progress: func(node string, index, total int) {
			fmt.Printf("Submitting job %d of %d: %s\n", index+1, total, node)
		},
	})
	if err != nil {
		die("%v", err)
	}

	for _, res := range summary.Results {
		switch res.Status {
		case submit.StatusSubmitted:
			fmt.Printf("  submitted  %-20s %s\n", res.Node, res.JobID)
		case submit.StatusFailed:
			fmt.Printf("  failed     %-20s %v\n", res.Node, res.Err)
		case submit.StatusSkipped:
			fmt.Printf("  skipped    %-20s %s\n", res.Node, res.Reason)
		}
	}
	fmt.Println(summary.Message())
	if !summary.OK() {
		os.Exit(1)
	}
}

// printPlan shows what a real run would submit, in order.
func printPlan(values settings.Submission, sc scene.Scene) error {
	if values.SingleNode() {
		fmt.Printf("Dry run: 1 job would be submitted:\n  1. %s\n", values.RenderNode)
		return nil
	}
	ordered, err := submit.Plan(sc.OutputNodes(values.IncludeImageWrite))
	if err != nil {
		return err
	}
	fmt.Printf("Dry run: %d job(s) would be submitted:\n", len(ordered))
	for i, node := range ordered {
		if len(node.DependsOn) > 0 {
			fmt.Printf("  %d. %s (after %s)\n", i+1, node.Name, strings.Join(node.DependsOn, ", "))
		} else {
			fmt.Printf("  %d. %s\n", i+1, node.Name)
		}
	}
	return nil
}

func frameRangeFor(sc scene.Scene) string {
	if sc.FrameRange.IsZero() {
		return ""
	}
	return sc.FrameRange.String()
}

func nodeNames(nodes []scene.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

type keyValueFlag map[string]string

func (kv *keyValueFlag) String() string {
	if kv == nil || len(*kv) == 0 {
		return ""
	}
	var pairs []string
	for key, value := range *kv {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, value))
	}
	return strings.Join(pairs, ", ")
}

func (kv *keyValueFlag) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("expected field=value, got %q", value)
	}
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return fmt.Errorf("override field is empty in %q", value)
	}
	if *kv == nil {
		*kv = keyValueFlag{}
	}
	(*kv)[key] = parts[1]
	return nil
}
