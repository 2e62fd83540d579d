package quash

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
)

// runBackground starts argv without waiting for it. The child writes its
// standard output to "<pid><suffix>" in the configured output directory and
// runs in its own process group so terminal interrupts do not reach it.
func (cmd *Command) runBackground(argv []string) (int, error) {
	sh := cmd.Shell
	if sh.Jobs.Full() {
		fmt.Fprintf(cmd.Stderr, "%v (%d)\n", ErrJobTableFull, sh.Config.MaxJobs)
		return ExitFailure, nil
	}

	dir, err := sh.outputDir()
	if err != nil {
		fmt.Fprintf(cmd.Stderr, "Error resolving output directory: %v\n", err)
		return ExitFailure, nil
	}
	out, err := os.CreateTemp(dir, ".quash-bg-*")
	if err != nil {
		fmt.Fprintf(cmd.Stderr, "Error opening background output: %v\n", err)
		return ExitFailure, nil
	}
	if err := out.Chmod(sh.Config.FileMode()); err != nil {
		sh.Logger.Warn("chmod background output", zap.String("path", out.Name()), zap.Error(err))
	}

	proc := cmd.newProcess(argv)
	proc.Stdin = nil
	proc.Stdout = out
	proc.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	proc.WaitDelay = sh.Config.WaitDelay

	if err := cmd.start(proc); err != nil {
		out.Close()
		os.Remove(out.Name())
		return cmd.launchFailed(err)
	}
	out.Close()

	pid := proc.Process.Pid
	path := filepath.Join(dir, fmt.Sprintf("%d%s", pid, sh.Config.OutputSuffix))
	if err := os.Rename(out.Name(), path); err != nil {
		sh.Logger.Warn("rename background output", zap.String("path", out.Name()), zap.Error(err))
		path = out.Name()
	}

	job, err := sh.Jobs.Add(argv[0], pid, path)
	if err != nil {
		proc.Process.Kill()
		proc.Wait()
		fmt.Fprintln(cmd.Stderr, err)
		return ExitFailure, nil
	}
	sh.Notifier.Track(proc)

	fmt.Fprintf(cmd.Stdout, "[%d] %d running in background\n", job.ID, job.PID)
	sh.Logger.Info("job started",
		zap.Int("job_id", job.ID),
		zap.Int("pid", job.PID),
		zap.String("name", job.Name),
		zap.String("output", job.OutputPath),
	)
	sh.recordStart(job)

	return ExitSuccess, nil
}
