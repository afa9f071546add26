package settings

// Kind identifies how a field's value is typed and edited.
type Kind string

const (
	KindText   Kind = "text"
	KindChoice Kind = "choice"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
)

// Canonical field names. These double as sticky settings keys, so renaming
// one silently orphans every artist's saved value for it.
const (
	FieldJobName           = "JobName"
	FieldComment           = "Comment"
	FieldDepartment        = "Department"
	FieldPool              = "Pool"
	FieldSecondaryPool     = "SecondaryPool"
	FieldGroup             = "Group"
	FieldPriority          = "Priority"
	FieldTaskTimeout       = "TaskTimeout"
	FieldConcurrentTasks   = "ConcurrentTasks"
	FieldLimitTasksToCPUs  = "LimitConcurrentTasksToNumberOfCpus"
	FieldMachineLimit      = "MachineLimit"
	FieldIsBlacklist       = "IsBlacklist"
	FieldMachineList       = "MachineList"
	FieldLimitGroups       = "LimitGroups"
	FieldDependencies      = "Dependencies"
	FieldOnJobComplete     = "OnJobComplete"
	FieldSubmitSuspended   = "InitialStatus"
	FieldFrameRange        = "FrameRange"
	FieldSubmitScene       = "SubmitScene"
	FieldFramesPerTask     = "FramesPerTask"
	FieldUseWorkingDir     = "UseWorkingDirectory"
	FieldSubmitMode        = "RenderNodeSubmission"
	FieldIncludeImageWrite = "IncludeImageWrite"
	FieldRenderNode        = "RenderNode"
	FieldFrameDependent    = "IsFrameDependent"
)

// Form sections in display order.
const (
	SectionJobDescription = "Job Description"
	SectionJobOptions     = "Job Options"
	SectionKatanaOptions  = "Katana Options"
)

// Submission mode choices.
const (
	SubmitModeAll    = "Submit All Render Nodes As Separate Jobs"
	SubmitModeSingle = "Select Render Node"
)

// Field describes one submitter setting: its kind, where it appears on the
// form, and whether its value survives between sessions.
type Field struct {
	Name    string
	Label   string
	Help    string
	Section string
	Kind    Kind
	Sticky  bool

	// Choices constrains KindChoice fields. An empty list leaves the
	// value unconstrained.
	Choices []string

	// Min and Max bound KindInt fields. Values outside are clamped.
	Min int
	Max int
}

// FormInfo carries everything needed to build the field set: repository
// facts from a submission info query plus scene-derived defaults.
type FormInfo struct {
	Pools       []string
	Groups      []string
	MaxPriority int
	JobName     string
	FrameRange  string
	RenderNodes []string
}

func buildFields(info FormInfo) []Field {
	maxPriority := info.MaxPriority
	if maxPriority <= 0 {
		maxPriority = 100
	}

	return []Field{
		{
			Name: FieldJobName, Label: "Job Name", Section: SectionJobDescription, Kind: KindText,
			Help: "The name of your job.",
		},
		{
			Name: FieldComment, Label: "Comment", Section: SectionJobDescription, Kind: KindText, Sticky: true,
			Help: "A simple description of your job. This is optional.",
		},
		{
			Name: FieldDepartment, Label: "Department", Section: SectionJobDescription, Kind: KindText, Sticky: true,
			Help: "The department you belong to. This is optional.",
		},

		{
			Name: FieldPool, Label: "Pool", Section: SectionJobOptions, Kind: KindChoice, Sticky: true,
			Choices: info.Pools,
			Help:    "The pool that your job will be submitted to.",
		},
		{
			Name: FieldSecondaryPool, Label: "Secondary Pool", Section: SectionJobOptions, Kind: KindChoice, Sticky: true,
			Choices: info.Pools,
			Help:    "Workers may dequeue from the secondary pool when the primary pool is idle.",
		},
		{
			Name: FieldGroup, Label: "Group", Section: SectionJobOptions, Kind: KindChoice, Sticky: true,
			Choices: info.Groups,
			Help:    "The group that your job will be submitted to.",
		},
		{
			Name: FieldPriority, Label: "Priority", Section: SectionJobOptions, Kind: KindInt, Sticky: true,
			Min: 0, Max: maxPriority,
			Help: "A job can have a priority between 0 and the repository maximum.",
		},
		{
			Name: FieldTaskTimeout, Label: "Task Timeout", Section: SectionJobOptions, Kind: KindInt, Sticky: true,
			Min: 0, Max: 10000,
			Help: "The number of minutes a Worker has to render a task before it times out. 0 disables the timeout.",
		},
		{
			Name: FieldConcurrentTasks, Label: "Concurrent Tasks", Section: SectionJobOptions, Kind: KindInt, Sticky: true,
			Min: 1, Max: 16,
			Help: "The number of tasks that can render concurrently on a single Worker.",
		},
		{
			Name: FieldLimitTasksToCPUs, Label: "Limit Tasks To Worker's CPUs", Section: SectionJobOptions, Kind: KindBool, Sticky: true,
			Help: "Cap concurrent tasks at the Worker's CPU count.",
		},
		{
			Name: FieldMachineLimit, Label: "Machine Limit", Section: SectionJobOptions, Kind: KindInt, Sticky: true,
			Min: 0, Max: 1000,
			Help: "Maximum number of machines that can render this job at once. 0 means no limit.",
		},
		{
			Name: FieldIsBlacklist, Label: "Machine List Is A Deny List", Section: SectionJobOptions, Kind: KindBool, Sticky: true,
			Help: "Treat the machine list as machines to avoid instead of machines to use.",
		},
		{
			Name: FieldMachineList, Label: "Machine List", Section: SectionJobOptions, Kind: KindText, Sticky: true,
			Help: "Comma separated machines to allow (or deny) for this job.",
		},
		{
			Name: FieldLimitGroups, Label: "Limit Groups", Section: SectionJobOptions, Kind: KindText, Sticky: true,
			Help: "Limit groups to apply to this job.",
		},
		{
			Name: FieldDependencies, Label: "Dependencies", Section: SectionJobOptions, Kind: KindText,
			Help: "Existing job IDs this job should wait on, comma separated.",
		},
		{
			Name: FieldOnJobComplete, Label: "On Job Complete", Section: SectionJobOptions, Kind: KindChoice, Sticky: true,
			Choices: []string{"Nothing", "Archive", "Delete"},
			Help:    "What to do with the job after it completes.",
		},
		{
			Name: FieldSubmitSuspended, Label: "Submit Job As Suspended", Section: SectionJobOptions, Kind: KindBool, Sticky: true,
			Help: "Submit in the suspended state so the job does not start until resumed.",
		},

		{
			Name: FieldFrameRange, Label: "Frame Range", Section: SectionKatanaOptions, Kind: KindText,
			Help: "The frames to render, e.g. 1-100.",
		},
		{
			Name: FieldSubmitScene, Label: "Submit Katana Scene File", Section: SectionKatanaOptions, Kind: KindBool, Sticky: true,
			Help: "Ship a copy of the scene with the job instead of referencing its saved path.",
		},
		{
			Name: FieldFramesPerTask, Label: "Frames Per Task", Section: SectionKatanaOptions, Kind: KindInt,
			Min: 1, Max: 1000,
			Help: "The number of frames rendered per task.",
		},
		{
			Name: FieldUseWorkingDir, Label: "Use Working Directory", Section: SectionKatanaOptions, Kind: KindBool, Sticky: true,
			Help: "Stamp the project working directory into the job.",
		},
		{
			Name: FieldSubmitMode, Label: "Render Node Submission", Section: SectionKatanaOptions, Kind: KindChoice,
			Choices: []string{SubmitModeAll, SubmitModeSingle},
			Help:    "Submit every output node as its own job, or pick a single node.",
		},
		{
			Name: FieldIncludeImageWrite, Label: "Include ImageWrite Nodes", Section: SectionKatanaOptions, Kind: KindBool, Sticky: true,
			Help: "Also submit ImageWrite nodes when submitting all output nodes.",
		},
		{
			Name: FieldRenderNode, Label: "Render Node", Section: SectionKatanaOptions, Kind: KindChoice,
			Choices: info.RenderNodes,
			Help:    "The output node to submit when using single node submission.",
		},
		{
			Name: FieldFrameDependent, Label: "Submit Jobs As Frame Dependent", Section: SectionKatanaOptions, Kind: KindBool, Sticky: true,
			Help: "Mark tasks frame dependent so dependent jobs can start as frames finish.",
		},
	}
}
