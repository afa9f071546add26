package submit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/NinjaCats/deadline-katana/internal/deadline"
	"github.com/NinjaCats/deadline-katana/internal/job"
	"github.com/NinjaCats/deadline-katana/internal/logbook"
	"github.com/NinjaCats/deadline-katana/internal/scene"
	"github.com/NinjaCats/deadline-katana/internal/settings"
)

// Commander submits descriptor files to the farm and returns the raw
// command output. *deadline.Client satisfies it.
type Commander interface {
	SubmitJob(files ...string) (string, error)
}

// Status classifies the outcome for one output node.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result records what happened to one node during a run.
type Result struct {
	Node   string
	Status Status

	// JobID is the farm's identifier, set on submitted results.
	JobID string

	// Output is the raw submission output, kept for the results screen
	// and the log.
	Output string

	// Reason explains a skipped result.
	Reason string

	// Err holds the failure on failed results.
	Err error
}

// Summary collects the results of one run in submission order.
type Summary struct {
	Results []Result
}

func (s Summary) count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

func (s Summary) Submitted() int { return s.count(StatusSubmitted) }
func (s Summary) Failed() int    { return s.count(StatusFailed) }
func (s Summary) Skipped() int   { return s.count(StatusSkipped) }

// OK reports whether every planned job was submitted.
func (s Summary) OK() bool { return s.Failed() == 0 && s.Skipped() == 0 }

// Message renders the closing text for the results dialog. A lone
// submission shows its raw output in place; larger runs point at the
// submit log instead.
func (s Summary) Message() string {
	msg := fmt.Sprintf("Done submitting %d job(s).", s.Submitted())
	if len(s.Results) == 1 && s.Results[0].Status == StatusSubmitted {
		return msg + "\n" + s.Results[0].Output
	}
	return msg + "\nPlease consult the submit log for complete details."
}

// PreflightError reports a submission blocked before any job was
// created. Title and Message are shown to the artist as-is.
type PreflightError struct {
	Title   string
	Message string
}

func (e *PreflightError) Error() string { return e.Message }

// LocalSceneQuestion is the confirmation put to the artist when the
// scene sits on a local drive and is not shipping with the job.
const LocalSceneQuestion = "The Katana scene is local and is not being submitted with the job. Deadline Workers may not be able to find the Katana file. Do you wish to submit anyway?"

// IsPathLocal reports whether the path starts with a Windows drive
// letter farm workers are unlikely to reach.
func IsPathLocal(path string) bool {
	p := strings.ToLower(path)
	return strings.HasPrefix(p, "c:") || strings.HasPrefix(p, "d:") || strings.HasPrefix(p, "e:")
}

// NeedsLocalSceneConfirm reports whether the caller should put the
// LocalSceneQuestion to the artist before running.
func NeedsLocalSceneConfirm(values settings.Submission, sc scene.Scene) bool {
	return !values.SubmitScene && IsPathLocal(sc.SourceFile)
}

// Options carries one run's inputs.
type Options struct {
	Values settings.Submission
	Scene  scene.Scene

	// TempDir receives the descriptor files. The files stay behind
	// after the run for troubleshooting, matching where the farm keeps
	// its own scratch files.
	TempDir string

	// ExtraLines and GroupBatch come from integration hooks.
	ExtraLines []job.Pair
	GroupBatch bool

	// Progress, when set, is called before each node is submitted.
	Progress func(node string, index, total int)
}

// Submitter drives one or more node submissions through a Commander.
type Submitter struct {
	cmd Commander
	log *logbook.Logbook
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithLogbook routes run logging into log.
func WithLogbook(log *logbook.Logbook) Option {
	return func(s *Submitter) { s.log = log }
}

// New builds a Submitter around cmd.
func New(cmd Commander, opts ...Option) *Submitter {
	s := &Submitter{cmd: cmd}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run submits jobs for the scene per the form values. Preflight
// problems come back as a *PreflightError before anything is written.
// Once jobs start, individual failures do not abort the run: nodes
// depending on a failed node are skipped and independent nodes carry
// on, with the outcomes collected in the Summary.
func (s *Submitter) Run(opts Options) (Summary, error) {
	eligible := opts.Scene.OutputNodes(opts.Values.IncludeImageWrite)
	if err := preflight(opts, eligible); err != nil {
		return Summary{}, err
	}
	if opts.TempDir == "" {
		return Summary{}, fmt.Errorf("submit: no temp directory configured")
	}
	if err := os.MkdirAll(opts.TempDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("submit: create temp dir: %w", err)
	}

	if opts.Values.SingleNode() {
		return s.runSingle(opts, eligible)
	}
	return s.runAll(opts, eligible)
}

// Preflight reports the first blocking problem with a would-be
// submission, or nil. The UI runs this before putting the local scene
// question to the artist; Run repeats it.
func Preflight(values settings.Submission, sc scene.Scene) error {
	return preflight(Options{Values: values, Scene: sc}, sc.OutputNodes(values.IncludeImageWrite))
}

func preflight(opts Options, eligible []scene.Node) error {
	if opts.Scene.SourceFile == "" {
		return &PreflightError{
			Title:   "No Scene File Found",
			Message: "No Katana file has been set. Please save your work and reopen the submitter.",
		}
	}
	if len(eligible) == 0 {
		return &PreflightError{
			Title:   "No Output Nodes",
			Message: "No enabled Render or ImageWrite nodes found in project file. Ensure project file contains at least one such node.",
		}
	}
	if strings.TrimSpace(opts.Values.FrameRange) == "" {
		return &PreflightError{
			Title:   "No Frame Range Specified",
			Message: "No Frame Range been set. Please specify at least one frame to render.",
		}
	}
	return nil
}

func (s *Submitter) runSingle(opts Options, eligible []scene.Node) (Summary, error) {
	var node scene.Node
	found := false
	for _, n := range eligible {
		if n.Name == opts.Values.RenderNode {
			node = n
			found = true
			break
		}
	}
	if !found {
		return Summary{}, fmt.Errorf("submit: render node %q is not an eligible output node", opts.Values.RenderNode)
	}
	if opts.Progress != nil {
		opts.Progress(node.Name, 0, 1)
	}
	res := s.submitNode(opts, node, -1, 1, "")
	return Summary{Results: []Result{res}}, nil
}

func (s *Submitter) runAll(opts Options, eligible []scene.Node) (Summary, error) {
	ordered, err := Plan(eligible)
	if err != nil {
		return Summary{}, err
	}

	jobIDs := make(map[string]string, len(ordered))
	summary := Summary{Results: make([]Result, 0, len(ordered))}
	for i, node := range ordered {
		// Deps precede their dependents in the plan, so a dep without
		// a job ID by now failed or was itself skipped.
		if dep := missingDep(node, jobIDs); dep != "" {
			reason := fmt.Sprintf("dependency %q was not submitted", dep)
			s.log.Warn("skipping %s: %s", node.Name, reason)
			summary.Results = append(summary.Results, Result{
				Node:   node.Name,
				Status: StatusSkipped,
				Reason: reason,
			})
			continue
		}
		if opts.Progress != nil {
			opts.Progress(node.Name, i, len(ordered))
		}
		res := s.submitNode(opts, node, i, len(ordered), dependencyIDs(node, jobIDs))
		if res.Status == StatusSubmitted {
			jobIDs[node.Name] = res.JobID
		}
		summary.Results = append(summary.Results, res)
	}
	return summary, nil
}

func missingDep(node scene.Node, ids map[string]string) string {
	for _, dep := range node.DependsOn {
		if _, ok := ids[dep]; !ok {
			return dep
		}
	}
	return ""
}

// dependencyIDs joins the job IDs of the node's dependencies in the
// order the node declares them.
func dependencyIDs(node scene.Node, ids map[string]string) string {
	parts := make([]string, 0, len(node.DependsOn))
	for _, dep := range node.DependsOn {
		parts = append(parts, ids[dep])
	}
	return strings.Join(parts, ",")
}

func (s *Submitter) submitNode(opts Options, node scene.Node, index, total int, depIDs string) Result {
	res := Result{Node: node.Name}
	fail := func(err error) Result {
		res.Status = StatusFailed
		res.Err = err
		s.log.Error("submit %s: %v", node.Name, err)
		return res
	}

	params := job.Params{
		Values:        opts.Values,
		Scene:         opts.Scene,
		Node:          node,
		JobIndex:      index,
		TotalJobs:     total,
		DependencyIDs: depIDs,
		UseFarmRange:  index >= 0,
		ExtraLines:    opts.ExtraLines,
		GroupBatch:    opts.GroupBatch,
	}

	jobPath := filepath.Join(opts.TempDir, job.InfoFileName(index))
	pluginPath := filepath.Join(opts.TempDir, job.PluginFileName(index))
	if err := job.BuildJobInfo(params).WriteFile(jobPath); err != nil {
		return fail(err)
	}
	if err := job.BuildPluginInfo(params).WriteFile(pluginPath); err != nil {
		return fail(err)
	}

	files := []string{jobPath, pluginPath}
	if opts.Values.SubmitScene {
		files = append(files, opts.Scene.SourceFile)
	}

	s.log.Info("submitting job for %s", node.Name)
	output, err := s.cmd.SubmitJob(files...)
	res.Output = output
	if err != nil {
		return fail(err)
	}
	id, err := deadline.ParseJobID(output)
	if err != nil {
		s.log.Detail(logbook.LevelError, fmt.Sprintf("submit %s: no job ID in output", node.Name), output)
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	res.Status = StatusSubmitted
	res.JobID = id
	s.log.Info("submitted %s as job %s", node.Name, id)
	return res
}
