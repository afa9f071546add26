package deadline

import "fmt"

// CommandError reports a deadlinecommand invocation that exited nonzero.
// Error keeps the message short for dialogs and status lines; Detail
// carries the full command line and captured output for the logbook.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("deadline: command exited with code %d", e.ExitCode)
}

// Detail returns a multi-line report suitable for logging.
func (e *CommandError) Detail() string {
	return fmt.Sprintf("Command: %s\nExit code: %d\nOutput:\n%s", e.Command, e.ExitCode, e.Output)
}
