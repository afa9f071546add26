// cmd/deadline-katana/main.go
//
// This is the entry point for the interactive Katana submitter.
// Run it next to a saved Katana scene description and it opens the
// submission panel.
//
// Flow:
// 1. Load the project config and open the submit log
// 2. Ask the Deadline repository for pools, groups and limits
// 3. Load the scene description and sticky settings into the form
// 4. Launch the TUI

package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/NinjaCats/deadline-katana/internal/config"
	"github.com/NinjaCats/deadline-katana/internal/deadline"
	"github.com/NinjaCats/deadline-katana/internal/logbook"
	"github.com/NinjaCats/deadline-katana/internal/scene"
	"github.com/NinjaCats/deadline-katana/internal/settings"
	"github.com/NinjaCats/deadline-katana/internal/tui"
	"github.com/NinjaCats/deadline-katana/plugins"
)

func main() {
	scenePath := flag.String("scene", "", "path to the scene description (defaults to the project scene)")
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
	}
	project, err := filepath.Abs(project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving project dir: %v\n", err)
		os.Exit(1)
	}
	if err := config.InitWorkDir(project); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing project work dir: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading project config: %v\n", err)
		os.Exit(1)
	}

	lb, err := logbook.New(cfg.SubmitLogPath())
	if err != nil {
		// The submitter still works without its log file.
		fmt.Fprintf(os.Stderr, "Warning: submit log unavailable: %v\n", err)
		lb = nil
	}
	defer lb.Close()

	client := deadline.New(deadline.WithLogbook(lb))

	fmt.Println("Grabbing submitter info...")
	info, err := client.SubmissionInfo()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get submitter info from Deadline:\n\n%v\n", err)
		os.Exit(1)
	}
	cfg.ApplyFarmHome(info.UserHomeDir)

	sc, err := scene.LoadSceneFile(cfg.ScenePath(*scenePath))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error loading scene description: %v\n", err)
			os.Exit(1)
		}
		// No scene yet. The panel opens anyway and preflight explains
		// what is missing when the user hits submit.
		lb.Warn("No scene description at %s", cfg.ScenePath(*scenePath))
		sc = scene.Scene{}
	}

	hooks, err := plugins.LoadProjectHooks(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading project hooks: %v\n", err)
		os.Exit(1)
	}

	form := settings.NewForm(settings.FormInfo{
		Pools:       info.Pools,
		Groups:      info.Groups,
		MaxPriority: info.MaxPriority,
		JobName:     settings.DefaultJobName(sc.SourceFile),
		FrameRange:  defaultFrameRange(sc),
		RenderNodes: nodeNames(sc.OutputNodes(false)),
	})
	sticky := settings.NewStickyStore(cfg.StickySettingsPath(), lb)
	sticky.Load(form)

	app, err := tui.NewApp(tui.Deps{
		Config:  cfg,
		Logbook: lb,
		Client:  client,
		Scene:   sc,
		Form:    form,
		Sticky:  sticky,
		Hooks:   hooks,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting submitter: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func defaultFrameRange(sc scene.Scene) string {
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
