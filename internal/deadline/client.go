package deadline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/NinjaCats/deadline-katana/internal/logbook"
)

const (
	binDirEnv = "DEADLINE_PATH"

	// macPathFile is where the Deadline client installer records its bin
	// directory on macOS when the environment variable is absent.
	macPathFile = "/Users/Shared/Thinkbox/DEADLINE_PATH"
)

// Command returns the path to the deadlinecommand executable. When no bin
// directory can be resolved the bare name is returned and PATH lookup
// applies.
func Command() string {
	return executable(defaultBinDir(), false)
}

// CommandBg returns the path to the deadlinecommandbg executable.
func CommandBg() string {
	return executable(defaultBinDir(), true)
}

func defaultBinDir() string {
	if dir := strings.TrimSpace(os.Getenv(binDirEnv)); dir != "" {
		return dir
	}
	if data, err := os.ReadFile(macPathFile); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func executable(dir string, background bool) string {
	name := "deadlinecommand"
	if background {
		name += "bg"
	}
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// Client runs deadlinecommand invocations. The zero value is not usable;
// call New.
type Client struct {
	log    *logbook.Logbook
	binDir func() string
}

// Option configures a Client.
type Option func(*Client)

// WithLogbook routes client warnings and command detail into a logbook.
func WithLogbook(log *logbook.Logbook) Option {
	return func(c *Client) { c.log = log }
}

// WithBinDir pins the Deadline bin directory instead of resolving it from
// the environment.
func WithBinDir(dir string) Option {
	return func(c *Client) { c.binDir = func() string { return dir } }
}

// New creates a client.
func New(opts ...Option) *Client {
	c := &Client{binDir: defaultBinDir}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunOptions controls how one deadlinecommand invocation behaves.
type RunOptions struct {
	// ShowWindow leaves any popup windows visible. The default hides
	// them, which is what every non-interactive call wants.
	ShowWindow bool

	// ArgFile writes the arguments to a file and passes only the file
	// path on the command line, dodging platform argument length limits.
	ArgFile bool

	// Background uses deadlinecommandbg, which detaches from the license
	// wait and reports through an output file instead of stdout.
	Background bool

	// CheckExit turns a nonzero exit code into a *CommandError. When
	// false the captured output is returned regardless of exit code.
	CheckExit bool
}

// Run invokes deadlinecommand with args and returns its trimmed output.
func (c *Client) Run(args []string, opts RunOptions) (string, error) {
	bin := executable(c.binDir(), opts.Background)

	var tmpDir string
	if opts.ArgFile || opts.Background {
		var err error
		tmpDir, err = os.MkdirTemp("", "deadline")
		if err != nil {
			return "", fmt.Errorf("deadline: create temp dir: %w", err)
		}
		defer func() {
			if err := os.RemoveAll(tmpDir); err != nil {
				c.log.Warn("deadline: failed to remove temp directory %q: %v", tmpDir, err)
			}
		}()
	}

	outputFile := ""
	if opts.Background {
		outputFile = filepath.Join(tmpDir, "dlout.txt")
		args = append([]string{"-outputfiles", outputFile, filepath.Join(tmpDir, "dlexit.txt")}, args...)
	}
	if opts.ArgFile {
		argFile, err := writeArgFile(args, tmpDir)
		if err != nil {
			return "", err
		}
		args = []string{argFile}
	}

	cmd := exec.Command(bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if !opts.ShowWindow {
		hideWindow(cmd)
	}

	runErr := cmd.Run()
	output := stdout.String()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			if c.binDir() == "" {
				return "", fmt.Errorf("deadline: run %s: %w (set %s to the Deadline bin directory)", bin, runErr, binDirEnv)
			}
			return "", fmt.Errorf("deadline: run %s: %w", bin, runErr)
		}
		if opts.CheckExit {
			return "", &CommandError{
				Command:  commandLine(bin, args),
				ExitCode: exitErr.ExitCode(),
				Output:   strings.TrimSpace(output + stderr.String()),
			}
		}
	}

	if opts.Background {
		data, err := os.ReadFile(outputFile)
		if err != nil {
			return "", fmt.Errorf("deadline: read command output: %w", err)
		}
		output = string(data)
	}
	return strings.TrimSpace(output), nil
}

// SubmitJob submits one job given its job info file, plugin info file, and
// any aux files (such as a shipped scene). The raw submission output comes
// back for job ID extraction, whatever the exit code; a missing JobID line
// is how failures surface.
func (c *Client) SubmitJob(files ...string) (string, error) {
	return c.Run(files, RunOptions{ArgFile: true})
}

// writeArgFile writes one argument per line to args.txt inside dir,
// prefixed with a UTF-8 BOM the way deadlinecommand expects.
func writeArgFile(args []string, dir string) (string, error) {
	path := filepath.Join(dir, "args.txt")
	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	buf.WriteString(strings.Join(args, "\n"))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("deadline: write arg file: %w", err)
	}
	return path, nil
}

func commandLine(bin string, args []string) string {
	parts := append([]string{bin}, args...)
	return strings.Join(parts, " ")
}
