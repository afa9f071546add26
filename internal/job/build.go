package job

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/NinjaCats/deadline-katana/internal/scene"
	"github.com/NinjaCats/deadline-katana/internal/settings"
)

// Params carries everything needed to build the descriptor pair for one
// output node's job.
type Params struct {
	Values settings.Submission
	Scene  scene.Scene
	Node   scene.Node

	// JobIndex is this job's slot when several nodes are submitted in one
	// run; -1 for a lone job. Indexed jobs get " - <node>" name suffixes
	// and numbered descriptor files.
	JobIndex  int
	TotalJobs int

	// DependencyIDs holds comma separated Deadline job IDs assigned to
	// this node's scene dependencies earlier in the run.
	DependencyIDs string

	// UseFarmRange takes the frame range from the node's farm override
	// instead of the form value.
	UseFarmRange bool

	// ExtraLines are integration hook contributions, appended after the
	// output filename lines.
	ExtraLines []Pair

	// GroupBatch forces a batch name even for a lone job. Hooks set this
	// when they group related submissions.
	GroupBatch bool
}

func (p Params) jobName() string {
	name := p.Values.JobName
	if p.JobIndex >= 0 {
		name += " - " + p.Node.Name
	}
	return name
}

func (p Params) frames() string {
	if p.UseFarmRange && p.Node.FarmRange != nil {
		return p.Node.FarmRange.String()
	}
	return p.Values.FrameRange
}

// BuildJobInfo assembles the job info descriptor for one node. Line order
// matches what the farm plugins were written against, so new keys belong
// at the end of their section rather than wherever is convenient.
func BuildJobInfo(p Params) *Descriptor {
	v := p.Values
	d := &Descriptor{}

	d.Add("Plugin", "Katana")
	d.Add("Name", p.jobName())
	d.Add("Comment", v.Comment)
	d.Add("Department", v.Department)
	d.Add("Pool", v.Pool)
	d.Add("SecondaryPool", v.SecondaryPool)
	d.Add("Group", v.Group)
	d.AddInt("Priority", v.Priority)
	d.AddInt("TaskTimeoutMinutes", v.TaskTimeout)
	d.AddInt("ConcurrentTasks", v.ConcurrentTasks)
	d.AddBool("LimitConcurrentTasksToNumberOfCpus", v.LimitTasksToCPUs)
	d.AddInt("MachineLimit", v.MachineLimit)
	if v.IsBlacklist {
		d.Add("Blacklist", v.MachineList)
	} else {
		d.Add("Whitelist", v.MachineList)
	}
	d.Add("LimitGroups", v.LimitGroups)
	d.Add("JobDependencies", mergeDependencyIDs(v.Dependencies, p.DependencyIDs))
	d.AddBool("IsFrameDependent", v.FrameDependent)
	d.Add("OnJobComplete", v.OnJobComplete)
	if v.SubmitSuspended {
		d.Add("InitialStatus", "Suspended")
	}
	d.AddInt("ChunkSize", v.FramesPerTask)
	d.Add("Frames", p.frames())
	if p.TotalJobs > 1 {
		d.Add("BatchName", v.JobName)
	}
	for i, output := range p.Node.Outputs {
		dir, file := filepath.Split(output)
		d.Add(fmt.Sprintf("OutputFilename%d", i), dir+PadFramePath(file))
	}
	d.AddPairs(p.ExtraLines)
	if p.GroupBatch && p.TotalJobs == 1 {
		d.Add("BatchName", v.JobName)
	}
	return d
}

// BuildPluginInfo assembles the plugin info descriptor for one node. When
// the scene ships with the job the KatanaFile line is omitted; the farm
// plugin finds the copied scene in the job's aux files instead.
func BuildPluginInfo(p Params) *Descriptor {
	d := &Descriptor{}
	if !p.Values.SubmitScene {
		d.Add("KatanaFile", p.Scene.SourceFile)
	}
	d.AddInt("Version", p.Scene.KatanaVersion)
	if p.Values.UseWorkingDir {
		d.Add("WorkingDirectory", workingDir(p.Scene))
	} else {
		d.Add("WorkingDirectory", "")
	}
	d.Add("RenderNode", p.Node.Name)
	return d
}

func workingDir(s scene.Scene) string {
	if s.WorkingDir != "" {
		return s.WorkingDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return ""
}

func mergeDependencyIDs(formDeps, runDeps string) string {
	switch {
	case formDeps != "" && runDeps != "":
		return formDeps + "," + runDeps
	case formDeps != "":
		return formDeps
	default:
		return runDeps
	}
}
