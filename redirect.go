package quash

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// openRedirect opens path for the child's standard input (read-only) or
// standard output (create/truncate with the configured mask).
func (cmd *Command) openRedirect(mode Mode, path string) (*os.File, error) {
	switch mode {
	case ModeInputRedirect:
		return os.Open(path)
	case ModeOutputRedirect:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, cmd.Shell.Config.FileMode())
	}
	return nil, fmt.Errorf("unsupported redirection mode: %s", mode)
}

// runRedirect rebinds one standard stream of the child onto plan.Path.
// An unopenable target fails this command only.
func (cmd *Command) runRedirect(plan Plan) (int, error) {
	file, err := cmd.openRedirect(plan.Mode, plan.Path)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			err = pathErr.Err
		}
		fmt.Fprintf(cmd.Stderr, "Error opening %s: %v\n", plan.Path, err)
		return ExitFailure, nil
	}

	proc := cmd.newProcess(plan.Args)
	if plan.Mode == ModeInputRedirect {
		proc.Stdin = file
	} else {
		proc.Stdout = file
	}
	return cmd.runForeground(proc, io.Closer(file))
}
