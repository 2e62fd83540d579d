package quash

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"quash/parser"
)

// Shell is the process-wide state: job table, exit notifier, configuration
// and the streams commands inherit.
type Shell struct {
	Config   *Config
	Jobs     *JobTable
	Notifier *Notifier
	Session  *Session
	Store    *JobStore
	Logger   *zap.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	LastStatus int

	mu      sync.Mutex
	running bool
	starter func(*exec.Cmd) error
}

type Option func(*Shell)

// WithIO replaces the standard streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(sh *Shell) {
		sh.Stdin, sh.Stdout, sh.Stderr = stdin, stdout, stderr
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(sh *Shell) {
		sh.Logger = logger
	}
}

// WithStarter overrides how processes are spawned.
func WithStarter(start func(*exec.Cmd) error) Option {
	return func(sh *Shell) {
		sh.starter = start
	}
}

// NewShell builds a shell and starts its exit notifier. Close releases it.
func NewShell(cfg *Config, opts ...Option) (*Shell, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	sh := &Shell{
		Config:  cfg,
		Jobs:    NewJobTable(cfg.MaxJobs),
		Session: NewSession(),
		Logger:  zap.NewNop(),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		running: true,
		starter: (*exec.Cmd).Start,
	}
	for _, opt := range opts {
		opt(sh)
	}
	sh.Logger = sh.Logger.With(zap.String("session", sh.Session.ID))

	if cfg.JobDB != "" {
		store, err := NewJobStore(cfg.JobDB)
		if err != nil {
			return nil, fmt.Errorf("open job store: %w", err)
		}
		sh.Store = store
	}

	sh.Notifier = NewNotifier(sh.Logger)
	sh.Notifier.Start()

	sh.Logger.Info("session started",
		zap.String("user", sh.Session.UserName),
		zap.Int("uid", sh.Session.UserID),
		zap.String("host", sh.Session.Hostname),
		zap.Int("pid", sh.Session.PID),
	)
	return sh, nil
}

func (sh *Shell) Close() error {
	sh.Notifier.Stop()
	sh.Logger.Info("session ended", zap.Duration("uptime", time.Since(sh.Session.StartTime)))
	if sh.Store != nil {
		return sh.Store.Close()
	}
	return nil
}

func (sh *Shell) Running() bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.running
}

// Stop ends the control loop after the current command.
func (sh *Shell) Stop() {
	sh.mu.Lock()
	sh.running = false
	sh.mu.Unlock()
}

// Execute runs one input line and returns its status. A non-nil error is
// shell-fatal.
func (sh *Shell) Execute(line string) (int, error) {
	cmd, err := NewCommand(line, sh)
	if errors.Is(err, parser.ErrEmpty) {
		return sh.LastStatus, nil
	}
	if err != nil {
		fmt.Fprintln(sh.Stderr, err)
		sh.LastStatus = ExitFailure
		return sh.LastStatus, nil
	}

	err = cmd.Run()
	sh.LastStatus = cmd.ReturnCode
	sh.Logger.Debug("command finished",
		zap.String("command", cmd.Raw),
		zap.String("mode", cmd.Plan.Mode.String()),
		zap.Int("status", cmd.ReturnCode),
		zap.Duration("duration", cmd.Duration),
	)
	return cmd.ReturnCode, err
}

// DrainNotices applies queued child exits to the job table and prints a
// finished notice for each job completed by them.
func (sh *Shell) DrainNotices() {
	for _, ev := range sh.Notifier.Drain() {
		job, ok := sh.Jobs.Complete(ev.PID, ev.Status)
		if !ok {
			continue
		}
		fmt.Fprintf(sh.Stdout, "[%d] %d finished %s\n", job.ID, job.PID, job.Name)
		sh.Logger.Info("job completed",
			zap.Int("job_id", job.ID),
			zap.Int("pid", job.PID),
			zap.Int("status", job.ExitStatus),
		)
		sh.recordFinish(job)
	}
}

// SignalJob delivers sig to the process of job id. Pending exits are
// applied first so a job that already finished is reported, not signalled.
func (sh *Shell) SignalJob(id int, sig unix.Signal) error {
	sh.DrainNotices()

	job, err := sh.Jobs.Lookup(id)
	if err != nil {
		return err
	}
	if job.Completed {
		return fmt.Errorf("%w: %d", ErrJobCompleted, id)
	}
	err = sh.Notifier.Signal(job.PID, sig)
	if errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("%w: %d", ErrJobCompleted, id)
	}
	if err != nil {
		return fmt.Errorf("signal job %d: %w", id, err)
	}
	sh.Logger.Info("signal delivered",
		zap.Int("job_id", job.ID),
		zap.Int("pid", job.PID),
		zap.String("signal", unix.SignalName(sig)),
	)
	return nil
}

// LineReader supplies input lines; io.EOF ends the loop.
type LineReader interface {
	Readline() (string, error)
}

// Prompter is implemented by interactive readers.
type Prompter interface {
	SetPrompt(prompt string)
}

// Run is the control loop. Pending exits are drained before every prompt.
func (sh *Shell) Run(r LineReader) error {
	defer sh.DrainNotices()

	for sh.Running() {
		sh.DrainNotices()
		if p, ok := r.(Prompter); ok {
			p.SetPrompt(sh.Prompt())
		}

		line, err := r.Readline()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := sh.Execute(line); err != nil {
			return err
		}
	}
	return nil
}

func (sh *Shell) outputDir() (string, error) {
	if sh.Config.OutputDir != "" {
		return sh.Config.OutputDir, nil
	}
	return os.Getwd()
}

func (sh *Shell) recordStart(job Job) {
	if sh.Store == nil {
		return
	}
	if err := sh.Store.RecordStart(sh.Session.ID, job); err != nil {
		sh.Logger.Warn("job store", zap.Int("job_id", job.ID), zap.Error(err))
	}
}

func (sh *Shell) recordFinish(job Job) {
	if sh.Store == nil {
		return
	}
	if err := sh.Store.RecordFinish(sh.Session.ID, job); err != nil {
		sh.Logger.Warn("job store", zap.Int("job_id", job.ID), zap.Error(err))
	}
}

func processAlive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}

// ScriptReader feeds lines from a file or pipe without prompting.
type ScriptReader struct {
	scanner *bufio.Scanner
}

func NewScriptReader(r io.Reader) *ScriptReader {
	return &ScriptReader{scanner: bufio.NewScanner(r)}
}

func (s *ScriptReader) Readline() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
