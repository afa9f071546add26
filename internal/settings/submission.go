package settings

// Submission is a typed snapshot of the form, taken at the moment the
// artist hits submit. Job building consumes this instead of reaching back
// into live widget state.
type Submission struct {
	JobName    string
	Comment    string
	Department string

	Pool             string
	SecondaryPool    string
	Group            string
	Priority         int
	TaskTimeout      int
	ConcurrentTasks  int
	LimitTasksToCPUs bool
	MachineLimit     int
	IsBlacklist      bool
	MachineList      string
	LimitGroups      string
	Dependencies     string
	OnJobComplete    string
	SubmitSuspended  bool

	FrameRange        string
	SubmitScene       bool
	FramesPerTask     int
	UseWorkingDir     bool
	SubmitMode        string
	IncludeImageWrite bool
	RenderNode        string
	FrameDependent    bool
}

// SingleNode reports whether the snapshot asks for single node submission.
func (s Submission) SingleNode() bool {
	return s.SubmitMode == SubmitModeSingle
}
