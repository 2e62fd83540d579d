package quash

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Exit statuses reported by commands.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// ErrSpawn means the OS refused to create a process. The shell cannot
// continue after it.
var ErrSpawn = errors.New("process creation failed")

// LaunchError is a recoverable failure to start a program.
type LaunchError struct {
	Name     string
	Err      error
	NotFound bool
}

func (e *LaunchError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("Command: %q not found.", e.Name)
	}
	return fmt.Sprintf("Error executing %s: %v", e.Name, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// newProcess prepares argv with the shell's current environment. Standard
// streams are wired by the caller.
func (cmd *Command) newProcess(argv []string) *exec.Cmd {
	proc := exec.Command(argv[0], argv[1:]...)
	proc.Env = os.Environ()
	proc.Stdin = cmd.Stdin
	proc.Stdout = cmd.Stdout
	proc.Stderr = cmd.Stderr
	return proc
}

// start spawns proc and classifies any failure.
func (cmd *Command) start(proc *exec.Cmd) error {
	if err := cmd.Shell.starter(proc); err != nil {
		return spawnError(proc.Args[0], err)
	}
	return nil
}

func spawnError(name string, err error) error {
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.ENOMEM):
		return fmt.Errorf("%w: %s: %v", ErrSpawn, name, err)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return &LaunchError{Name: name, Err: err, NotFound: true}
	}
	return &LaunchError{Name: name, Err: err}
}

// launchFailed reports err. Only ErrSpawn is handed back to the caller.
func (cmd *Command) launchFailed(err error) (int, error) {
	if errors.Is(err, ErrSpawn) {
		cmd.Shell.Logger.Error("spawn failed", zap.Error(err))
		return ExitFailure, err
	}
	fmt.Fprintln(cmd.Stderr, err)
	return ExitFailure, nil
}

// runForeground starts proc, closes the parent's copies of any descriptors
// handed to it and blocks until it exits.
func (cmd *Command) runForeground(proc *exec.Cmd, handoff ...io.Closer) (int, error) {
	guard := absorbInterrupts(cmd.Shell.Stdout)
	defer guard.Release()

	err := cmd.start(proc)
	closeAll(handoff)
	if err != nil {
		return cmd.launchFailed(err)
	}
	return exitStatus(proc.Wait()), nil
}

func (cmd *Command) runPlain(argv []string) (int, error) {
	return cmd.runForeground(cmd.newProcess(argv))
}

func exitStatus(err error) int {
	if err != nil {
		return ExitFailure
	}
	return ExitSuccess
}

func closeAll[T io.Closer](closers []T) {
	for _, c := range closers {
		c.Close()
	}
}
