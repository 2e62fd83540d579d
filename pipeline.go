package quash

import (
	"fmt"
	"os"
	"os/exec"
)

// runPipeline connects stages with anonymous pipes, launches all of them
// left to right and then waits for each in launch order. The result is the
// status of the last stage.
//
// The parent drops its copy of each pipe end as soon as the stage that owns
// it is started. Children only inherit the three descriptors they are given
// because the runtime opens everything close-on-exec, so once the last
// writer exits its reader sees EOF.
func (cmd *Command) runPipeline(stages [][]string) (int, error) {
	n := len(stages)
	readers := make([]*os.File, n-1)
	writers := make([]*os.File, n-1)
	defer func() {
		closeAll(readers)
		closeAll(writers)
	}()

	for i := range readers {
		r, w, err := os.Pipe()
		if err != nil {
			fmt.Fprintf(cmd.Stderr, "Error creating pipe: %v\n", err)
			return ExitFailure, nil
		}
		readers[i], writers[i] = r, w
	}

	guard := absorbInterrupts(cmd.Shell.Stdout)
	defer guard.Release()

	procs := make([]*exec.Cmd, 0, n)
	var launchErr error
	for i, argv := range stages {
		proc := cmd.newProcess(argv)
		if i > 0 {
			proc.Stdin = readers[i-1]
		}
		if i < n-1 {
			proc.Stdout = writers[i]
		}

		err := cmd.start(proc)
		if i > 0 {
			readers[i-1].Close()
			readers[i-1] = nil
		}
		if i < n-1 {
			writers[i].Close()
			writers[i] = nil
		}
		if err != nil {
			launchErr = err
			break
		}
		procs = append(procs, proc)
	}

	if launchErr != nil {
		// Stages already running may be blocked on input that will never
		// arrive; stop them before collecting.
		for _, proc := range procs {
			proc.Process.Kill()
		}
	}

	statuses := make([]int, len(procs))
	for i, proc := range procs {
		statuses[i] = exitStatus(proc.Wait())
	}

	if launchErr != nil {
		return cmd.launchFailed(launchErr)
	}
	return statuses[len(statuses)-1], nil
}
