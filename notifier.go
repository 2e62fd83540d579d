package quash

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// PendingExitEvent records that a tracked child terminated.
type PendingExitEvent struct {
	PID    int
	Status int
}

// Notifier watches SIGCHLD for tracked background children. It never
// touches the job table or writes output; exits are queued for the control
// loop to drain.
type Notifier struct {
	mu      sync.Mutex
	tracked map[int]*exec.Cmd
	pending []PendingExitEvent

	signals chan os.Signal
	done    chan struct{}
	stop    sync.Once
	logger  *zap.Logger

	// exited probes pid without reaping it.
	exited func(pid int) bool
}

func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		tracked: make(map[int]*exec.Cmd),
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
		logger:  logger,
		exited:  hasExited,
	}
}

// Start subscribes to SIGCHLD. The channel holds one signal; coalesced
// deliveries are fine because every sweep checks all tracked children.
func (n *Notifier) Start() {
	signal.Notify(n.signals, unix.SIGCHLD)
	go n.loop()
}

func (n *Notifier) Stop() {
	n.stop.Do(func() {
		signal.Stop(n.signals)
		close(n.done)
	})
}

func (n *Notifier) loop() {
	for {
		select {
		case <-n.signals:
			n.Sweep()
		case <-n.done:
			return
		}
	}
}

// Track registers a started background process.
func (n *Notifier) Track(proc *exec.Cmd) {
	if proc == nil || proc.Process == nil {
		return
	}
	n.mu.Lock()
	n.tracked[proc.Process.Pid] = proc
	n.mu.Unlock()
}

// Signal delivers sig to the tracked child pid. A child that is no longer
// tracked has been reaped and its pid may be reused, so it yields
// os.ErrProcessDone without sending anything.
func (n *Notifier) Signal(pid int, sig os.Signal) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	proc, ok := n.tracked[pid]
	if !ok {
		return os.ErrProcessDone
	}
	return proc.Process.Signal(sig)
}

// Tracked returns how many children are still awaited.
func (n *Notifier) Tracked() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.tracked)
}

// Sweep reaps every tracked child that has terminated and queues its exit.
func (n *Notifier) Sweep() {
	n.mu.Lock()
	var done []*exec.Cmd
	for pid, proc := range n.tracked {
		if n.exited(pid) {
			done = append(done, proc)
			delete(n.tracked, pid)
		}
	}
	n.mu.Unlock()

	if len(done) == 0 {
		return
	}

	events := make([]PendingExitEvent, 0, len(done))
	for _, proc := range done {
		err := proc.Wait()
		ev := PendingExitEvent{PID: proc.Process.Pid, Status: waitCode(proc.ProcessState, err)}
		n.logger.Debug("exit event queued", zap.Int("pid", ev.PID), zap.Int("status", ev.Status))
		events = append(events, ev)
	}

	n.mu.Lock()
	n.pending = append(n.pending, events...)
	n.mu.Unlock()
}

// Drain sweeps once more and hands over every queued event.
func (n *Notifier) Drain() []PendingExitEvent {
	n.Sweep()

	n.mu.Lock()
	defer n.mu.Unlock()
	events := n.pending
	n.pending = nil
	return events
}

func hasExited(pid int) bool {
	var info unix.Siginfo
	err := unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOHANG|unix.WNOWAIT, nil)
	if err != nil {
		// Someone else reaped it; Wait will report the failure.
		return errors.Is(err, unix.ECHILD)
	}
	return info.Signo != 0
}

// waitCode maps a finished process to a shell status: the exit code, or
// 128+signal for a signal-terminated child.
func waitCode(state *os.ProcessState, err error) int {
	if state == nil {
		if err != nil {
			return ExitFailure
		}
		return ExitSuccess
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
