// internal/tui/app.go
//
// This is the submitter panel TUI. It uses bubbletea, which follows The
// Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NinjaCats/deadline-katana/internal/config"
	"github.com/NinjaCats/deadline-katana/internal/deadline"
	"github.com/NinjaCats/deadline-katana/internal/job"
	"github.com/NinjaCats/deadline-katana/internal/logbook"
	"github.com/NinjaCats/deadline-katana/internal/scene"
	"github.com/NinjaCats/deadline-katana/internal/settings"
	"github.com/NinjaCats/deadline-katana/internal/submit"
	"github.com/NinjaCats/deadline-katana/plugins"
)

// appState represents which "screen" we're on
type appState int

const (
	stateForm         appState = iota // The settings form
	stateMessage                      // A blocking notice, press enter to dismiss
	stateConfirmLocal                 // Local scene yes/no question
	stateSubmitting                   // Jobs going out
	stateResults                      // Per-node outcome list
)

var (
	titleStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	sectionStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	helpStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	dimStyle             = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	statusStyleSubmitted = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	statusStyleFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	statusStyleSkipped   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	detailTextStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// Selectors are the repository picker dialogs reachable from list fields.
// Each takes the field's current value and reports the picked value, or
// ok=false when the artist cancelled.
type Selectors struct {
	MachineList  func(current string) (string, bool, error)
	LimitGroups  func(current string) (string, bool, error)
	Dependencies func(current string) (string, bool, error)
}

// Deps carries the wired collaborators the panel runs on.
type Deps struct {
	Config  *config.Config
	Logbook *logbook.Logbook
	Client  *deadline.Client
	Scene   scene.Scene
	Form    *settings.Form
	Sticky  *settings.StickyStore
	Hooks   []plugins.HookFile
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithCommander overrides the farm client used to submit jobs.
func WithCommander(cmd submit.Commander) AppOption {
	return func(a *App) {
		if cmd != nil {
			a.cmd = cmd
		}
	}
}

// WithSelectors overrides the repository picker dialogs. Nil members keep
// their defaults.
func WithSelectors(sel Selectors) AppOption {
	return func(a *App) {
		if sel.MachineList != nil {
			a.selectors.MachineList = sel.MachineList
		}
		if sel.LimitGroups != nil {
			a.selectors.LimitGroups = sel.LimitGroups
		}
		if sel.Dependencies != nil {
			a.selectors.Dependencies = sel.Dependencies
		}
	}
}

type selectorResultMsg struct {
	field string
	value string
	ok    bool
	err   error
}

type submitProgressMsg struct {
	node  string
	index int
	total int
}

type submitDoneMsg struct {
	summary submit.Summary
	err     error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	logbook *logbook.Logbook
	scene   scene.Scene
	form    *settings.Form
	sticky  *settings.StickyStore

	cmd       submit.Commander
	selectors Selectors

	// Hook contributions, flattened once at startup.
	extraLines []job.Pair
	groupBatch bool

	formView *formView

	// Window size (we get this from bubbletea)
	width  int
	height int

	statusMsg string

	// Message screen content
	msgTitle string
	msgBody  string

	// Pending submission while the local scene question is on screen
	pendingValues settings.Submission

	// Submission run state
	progressCh   chan submitProgressMsg
	doneCh       chan submitDoneMsg
	currentNode  string
	currentIndex int
	currentTotal int
	summary      submit.Summary
}

// NewApp creates a new App instance around the wired session deps.
func NewApp(deps Deps, opts ...AppOption) (*App, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("tui: config is required")
	}
	if deps.Form == nil {
		return nil, fmt.Errorf("tui: form is required")
	}
	extraLines, groupBatch := plugins.ExtraJobLines(deps.Hooks)
	app := &App{
		state:      stateForm,
		config:     deps.Config,
		logbook:    deps.Logbook,
		scene:      deps.Scene,
		form:       deps.Form,
		sticky:     deps.Sticky,
		extraLines: extraLines,
		groupBatch: groupBatch,
	}
	if deps.Client != nil {
		app.cmd = deps.Client
		app.selectors = Selectors{
			MachineList:  deps.Client.SelectMachineList,
			LimitGroups:  deps.Client.SelectLimitGroups,
			Dependencies: deps.Client.SelectDependencies,
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.formView = newFormView(app)
	// Rebuild the render node choices from the include ImageWrite state,
	// which restored sticky values may have flipped before construction.
	app.formView.refreshRenderNodes(app.form.Bool(settings.FieldIncludeImageWrite))
	app.logInfo("Session opened for %s", deps.Scene.SourceFile)
	return app, nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case selectorResultMsg:
		a.handleSelectorResult(msg)
		return a, nil

	case submitProgressMsg:
		a.currentNode = msg.node
		a.currentIndex = msg.index
		a.currentTotal = msg.total
		return a, a.waitProgress()

	case submitDoneMsg:
		return a, a.handleSubmitDone(msg)

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.state {
		case stateForm:
			return a, a.formView.Update(msg)
		case stateMessage:
			if key == "enter" || key == "esc" {
				a.state = stateForm
			}
			return a, nil
		case stateConfirmLocal:
			switch key {
			case "y", "Y", "enter":
				return a, a.beginSubmission(a.pendingValues)
			case "n", "N", "esc":
				a.state = stateForm
				a.statusMsg = "Submission cancelled"
			}
			return a, nil
		case stateSubmitting:
			return a, nil
		case stateResults:
			switch key {
			case "enter", "esc":
				a.state = stateForm
				a.statusMsg = ""
			case "q":
				return a, tea.Quit
			}
			return a, nil
		}
	}

	if a.state == stateForm {
		return a, a.formView.Update(msg)
	}
	return a, nil
}

// submitPressed starts the submit sequence: sticky values are saved
// first so they survive even a failed preflight, then the form is
// snapshotted and checked before anything reaches the farm.
func (a *App) submitPressed() tea.Cmd {
	a.sticky.Save(a.form)
	values := a.form.Submission()

	if a.cmd == nil {
		return a.showMessage("No Farm Client", "The Deadline client is not configured for this session.")
	}
	if err := submit.Preflight(values, a.scene); err != nil {
		a.logWarn("Preflight: %v", err)
		var pf *submit.PreflightError
		if errors.As(err, &pf) {
			return a.showMessage(pf.Title, pf.Message)
		}
		return a.showMessage("Submission Blocked", err.Error())
	}
	if submit.NeedsLocalSceneConfirm(values, a.scene) {
		a.pendingValues = values
		a.state = stateConfirmLocal
		return nil
	}
	return a.beginSubmission(values)
}

func (a *App) showMessage(title, body string) tea.Cmd {
	a.state = stateMessage
	a.msgTitle = title
	a.msgBody = body
	return nil
}

func (a *App) beginSubmission(values settings.Submission) tea.Cmd {
	a.state = stateSubmitting
	a.statusMsg = ""
	a.currentNode = ""
	a.currentIndex = 0
	a.currentTotal = 0

	progress := make(chan submitProgressMsg, 8)
	done := make(chan submitDoneMsg, 1)
	a.progressCh = progress
	a.doneCh = done

	runner := submit.New(a.cmd, submit.WithLogbook(a.logbook))
	opts := submit.Options{
		Values:     values,
		Scene:      a.scene,
		TempDir:    a.config.FarmTempDir(),
		ExtraLines: a.extraLines,
		GroupBatch: a.groupBatch,
		Progress: func(node string, index, total int) {
			progress <- submitProgressMsg{node: node, index: index, total: total}
		},
	}
	a.logInfo("Submitting Katana render job(s) to Deadline")
	go func() {
		summary, err := runner.Run(opts)
		close(progress)
		done <- submitDoneMsg{summary: summary, err: err}
	}()
	return tea.Batch(a.waitProgress(), a.waitDone())
}

func (a *App) waitProgress() tea.Cmd {
	ch := a.progressCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if msg, ok := <-ch; ok {
			return msg
		}
		return nil
	}
}

func (a *App) waitDone() tea.Cmd {
	ch := a.doneCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return <-ch
	}
}

func (a *App) handleSubmitDone(msg submitDoneMsg) tea.Cmd {
	a.progressCh = nil
	a.doneCh = nil
	if msg.err != nil {
		a.logError("Submission run failed: %v", msg.err)
		var pf *submit.PreflightError
		if errors.As(msg.err, &pf) {
			return a.showMessage(pf.Title, pf.Message)
		}
		return a.showMessage("Submission Failed", msg.err.Error())
	}
	a.summary = msg.summary
	a.state = stateResults
	a.logInfo("Run finished: %d submitted, %d failed, %d skipped",
		msg.summary.Submitted(), msg.summary.Failed(), msg.summary.Skipped())
	return nil
}

func (a *App) browseField(name string) tea.Cmd {
	var sel func(string) (string, bool, error)
	switch name {
	case settings.FieldMachineList:
		sel = a.selectors.MachineList
	case settings.FieldLimitGroups:
		sel = a.selectors.LimitGroups
	case settings.FieldDependencies:
		sel = a.selectors.Dependencies
	}
	if sel == nil {
		return nil
	}
	current := a.form.Text(name)
	a.statusMsg = "Waiting for the repository picker..."
	return func() tea.Msg {
		value, ok, err := sel(current)
		return selectorResultMsg{field: name, value: value, ok: ok, err: err}
	}
}

func (a *App) handleSelectorResult(msg selectorResultMsg) {
	if msg.err != nil {
		a.statusMsg = fmt.Sprintf("Picker failed: %v", msg.err)
		a.logError("Picker for %s failed: %v", msg.field, msg.err)
		return
	}
	if !msg.ok {
		a.statusMsg = "Picker cancelled"
		return
	}
	if err := a.form.SetText(msg.field, msg.value); err != nil {
		a.statusMsg = err.Error()
		return
	}
	a.statusMsg = ""
}

// View renders the current state to a string.
func (a *App) View() string {
	var content string
	switch a.state {
	case stateForm:
		content = a.formView.View()
	case stateMessage:
		content = a.renderMessage()
	case stateConfirmLocal:
		content = a.renderConfirmLocal()
	case stateSubmitting:
		content = a.renderSubmitting()
	case stateResults:
		content = a.renderResults()
	}

	sections := []string{a.renderHeader(), content}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	if a.statusMsg != "" {
		sections = append(sections, helpStyle.Render(a.statusMsg))
	}
	return strings.Join(sections, "\n") + "\n"
}

func (a *App) renderHeader() string {
	title := titleStyle.Render("KATANA SUBMITTER")
	file := a.scene.SourceFile
	if file == "" {
		file = "(scene not saved)"
	}
	return title + "\n" + detailTextStyle.Render(file)
}

func (a *App) renderMessage() string {
	lines := []string{
		"",
		sectionStyle.Render(a.msgTitle),
		"",
		a.msgBody,
		"",
		helpStyle.Render("enter=back"),
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderConfirmLocal() string {
	lines := []string{
		"",
		sectionStyle.Render("Local Katana Scene Submission"),
		"",
		submit.LocalSceneQuestion,
		"",
		helpStyle.Render("y=submit anyway  n=cancel"),
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderSubmitting() string {
	line := "Submitting..."
	if a.currentNode != "" {
		line = fmt.Sprintf("Submitting job %d of %d: %s", a.currentIndex+1, a.currentTotal, a.currentNode)
	}
	return "\n" + line
}

func (a *App) renderResults() string {
	lines := []string{"", sectionStyle.Render("Submission Results"), ""}
	for _, res := range a.summary.Results {
		switch res.Status {
		case submit.StatusSubmitted:
			lines = append(lines, fmt.Sprintf("  %s %s  %s",
				statusStyleSubmitted.Render("submitted"), res.Node, detailTextStyle.Render(res.JobID)))
		case submit.StatusFailed:
			lines = append(lines, fmt.Sprintf("  %s %s  %s",
				statusStyleFailed.Render("failed"), res.Node, errorStyle.Render(fmt.Sprintf("%v", res.Err))))
		case submit.StatusSkipped:
			lines = append(lines, fmt.Sprintf("  %s %s  %s",
				statusStyleSkipped.Render("skipped"), res.Node, dimStyle.Render(res.Reason)))
		}
	}
	lines = append(lines, "", a.summary.Message(), "", helpStyle.Render("enter=back  q=quit"))
	return strings.Join(lines, "\n")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	if total > len(lines) {
		head += dimStyle.Render(fmt.Sprintf("  (%d earlier lines)", total-len(lines)))
	}
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(head + "\n" + body)
}
