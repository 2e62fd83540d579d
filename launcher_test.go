package quash

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeHandling(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode int
	}{
		{"true command returns 0", "true", ExitSuccess},
		{"false command returns 1", "false", ExitFailure},
		{"non-zero exit collapses to failure", "sh -c 'exit 7'", ExitFailure},
		{"signal-terminated child is a failure", "sh -c 'kill -9 $$'", ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestShell(t, nil)
			assert.Equal(t, tt.wantCode, ts.run(t, tt.input))
			assert.Equal(t, tt.wantCode, ts.LastStatus)
		})
	}
}

func TestPlainCommandOutput(t *testing.T) {
	ts := newTestShell(t, nil)
	assert.Equal(t, ExitSuccess, ts.run(t, "printf hello"))
	assert.Equal(t, "hello", ts.stdout.String())
}

func TestPlainCommandSpawnsOnce(t *testing.T) {
	var spawned int
	ts := newTestShell(t, nil, WithStarter(func(c *exec.Cmd) error {
		spawned++
		return c.Start()
	}))

	ts.run(t, "true")
	assert.Equal(t, 1, spawned)
}

// interruptAfterStart starts the child, then sends SIGINT to the shell
// itself the first time it is called.
func interruptAfterStart() func(*exec.Cmd) error {
	var once sync.Once
	return func(c *exec.Cmd) error {
		if err := c.Start(); err != nil {
			return err
		}
		once.Do(func() {
			syscall.Kill(os.Getpid(), syscall.SIGINT)
		})
		return nil
	}
}

func TestForegroundAbsorbsInterrupt(t *testing.T) {
	ts := newTestShell(t, nil, WithStarter(interruptAfterStart()))

	assert.Equal(t, ExitSuccess, ts.run(t, "sleep 1"))
	assert.Equal(t, "\n", ts.stdout.String())
	assert.True(t, ts.Running())
}

func TestCommandNotFound(t *testing.T) {
	ts := newTestShell(t, nil)

	assert.Equal(t, ExitFailure, ts.run(t, "quash-no-such-program --flag"))
	assert.Contains(t, ts.stderr.String(), `Command: "quash-no-such-program" not found.`)

	// The shell keeps working afterwards.
	assert.Equal(t, ExitSuccess, ts.run(t, "true"))
}

func TestCommandNotExecutable(t *testing.T) {
	dir := t.TempDir()
	script := dir + "/script"
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0644))

	ts := newTestShell(t, nil)
	assert.Equal(t, ExitFailure, ts.run(t, script))
	assert.Contains(t, ts.stderr.String(), "Error executing "+script)
}

func TestSpawnFailureIsFatal(t *testing.T) {
	ts := newTestShell(t, nil, WithStarter(func(*exec.Cmd) error {
		return os.NewSyscallError("fork/exec", syscall.EAGAIN)
	}))

	status, err := ts.Execute("true")
	assert.Equal(t, ExitFailure, status)
	assert.ErrorIs(t, err, ErrSpawn)
}

func TestSpawnErrorClassification(t *testing.T) {
	err := spawnError("x", exec.ErrNotFound)
	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.True(t, launchErr.NotFound)

	err = spawnError("x", os.NewSyscallError("fork/exec", syscall.ENOMEM))
	assert.ErrorIs(t, err, ErrSpawn)

	err = spawnError("x", &os.PathError{Op: "fork/exec", Path: "x", Err: syscall.EACCES})
	require.ErrorAs(t, err, &launchErr)
	assert.False(t, launchErr.NotFound)
	assert.ErrorIs(t, err, syscall.EACCES)
}

func TestChildSeesShellEnvironment(t *testing.T) {
	t.Setenv("HOME", "/quash/home")
	ts := newTestShell(t, nil)

	ts.run(t, "set HOME=/quash/elsewhere")
	ts.run(t, "printenv HOME")
	assert.Equal(t, "/quash/elsewhere\n", ts.stdout.String())
}
