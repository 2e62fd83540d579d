package quash

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for writes from child-copy goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

type testShell struct {
	*Shell
	stdout *syncBuffer
	stderr *syncBuffer
}

func newTestShell(t *testing.T, cfg *Config, opts ...Option) *testShell {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	opts = append([]Option{WithIO(strings.NewReader(""), stdout, stderr)}, opts...)
	sh, err := NewShell(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, job := range sh.Jobs.Active(processAlive) {
			sh.SignalJob(job.ID, 9)
		}
		sh.Close()
	})
	return &testShell{Shell: sh, stdout: stdout, stderr: stderr}
}

func (ts *testShell) run(t *testing.T, line string) int {
	t.Helper()
	status, err := ts.Execute(line)
	require.NoError(t, err)
	return status
}

// waitCompleted drains notices until job id is marked completed.
func (ts *testShell) waitCompleted(t *testing.T, id int) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		ts.DrainNotices()
		var err error
		job, err = ts.Jobs.Lookup(id)
		require.NoError(t, err)
		return job.Completed
	}, 10*time.Second, 20*time.Millisecond)
	return job
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory, sets PWD, and restores both when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(oldwd, dir)
	}
	t.Setenv("PWD", dir)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			panic("testing.Chdir: " + err.Error())
		}
	})
}
