package executor

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
)

// CommandExecutor is an interface for executing system commands
type CommandExecutor interface {
	// Run runs a command and captures stdout, stderr and the exit code.
	// A non-zero exit is reported through Result.ExitCode, not err;
	// err is only set when the command could not be started.
	Run(name string, args ...string) (*Result, error)

	// LookPath searches for an executable in the directories named by the PATH
	LookPath(file string) (string, error)
}

// Result holds the outcome of a finished command
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// OK reports whether the command exited with status 0
func (r *Result) OK() bool {
	return r.ExitCode == 0
}

// StdoutString returns stdout as a string
func (r *Result) StdoutString() string {
	return string(r.Stdout)
}

// StderrString returns stderr as a string
func (r *Result) StderrString() string {
	return string(r.Stderr)
}

// Trimmed returns stdout with trailing whitespace removed
func (r *Result) Trimmed() string {
	return strings.TrimRight(string(r.Stdout), " \t\r\n")
}

// SystemExecutor implements CommandExecutor using os/exec
type SystemExecutor struct{}

// NewSystemExecutor creates a new SystemExecutor
func NewSystemExecutor() *SystemExecutor {
	return &SystemExecutor{}
}

// Run runs a command with separate stdout and stderr buffers
func (e *SystemExecutor) Run(name string, args ...string) (*Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, err
	}
	return result, nil
}

// LookPath searches for an executable
func (e *SystemExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// MockExecutor is a mock implementation for testing
type MockExecutor struct {
	RunFunc      func(name string, args ...string) (*Result, error)
	LookPathFunc func(file string) (string, error)
	Calls        []CommandCall
}

// CommandCall records a command execution for verification
type CommandCall struct {
	Name string
	Args []string
}

// Run calls the mock function, defaulting to a successful empty result
func (m *MockExecutor) Run(name string, args ...string) (*Result, error) {
	m.Calls = append(m.Calls, CommandCall{Name: name, Args: args})
	if m.RunFunc != nil {
		return m.RunFunc(name, args...)
	}
	return &Result{}, nil
}

// LookPath calls the mock function
func (m *MockExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

// CallsTo returns the recorded calls whose first argument is sub
func (m *MockExecutor) CallsTo(name, sub string) []CommandCall {
	var calls []CommandCall
	for _, c := range m.Calls {
		if c.Name == name && len(c.Args) > 0 && c.Args[0] == sub {
			calls = append(calls, c)
		}
	}
	return calls
}
