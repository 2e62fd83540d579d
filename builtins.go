package quash

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var ErrUsage = errors.New("usage error")

// UsageError is a malformed builtin invocation. Nothing has changed when
// one is returned.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func (e *UsageError) Is(target error) bool { return target == ErrUsage }

func usage(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

var builtins map[string]func(cmd *Command) error

func init() {
	builtins = map[string]func(cmd *Command) error{
		"cd":   cd,
		"echo": echo,
		"set":  set,
		"jobs": jobs,
		"kill": kill,
		"pwd":  pwd,
		"help": help,
		"exit": exitShell,
		"quit": exitShell,
	}
}

func cd(cmd *Command) error {
	var target string
	switch len(cmd.Args) {
	case 1:
		target = os.Getenv("HOME")
	case 2:
		target = cmd.Args[1]
	default:
		return usage("Too many arguments")
	}

	if err := os.Chdir(target); err != nil {
		return fmt.Errorf("%s: No such file or directory", target)
	}
	if wd, err := os.Getwd(); err == nil {
		os.Setenv("PWD", wd)
	}
	return nil
}

func pwd(cmd *Command) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.Stdout, wd)
	return err
}

// echo prints $HOME when called bare. Only $HOME and $PATH are expanded.
func echo(cmd *Command) error {
	if len(cmd.Args) == 1 {
		_, err := fmt.Fprintln(cmd.Stdout, os.Getenv("HOME"))
		return err
	}

	words := make([]string, 0, len(cmd.Args)-1)
	for _, arg := range cmd.Args[1:] {
		switch arg {
		case "$HOME":
			arg = os.Getenv("HOME")
		case "$PATH":
			arg = os.Getenv("PATH")
		}
		words = append(words, arg)
	}
	_, err := fmt.Fprintln(cmd.Stdout, strings.Join(words, " "))
	return err
}

func set(cmd *Command) error {
	if len(cmd.Args) < 2 {
		return usage("No command given")
	}

	name, value, ok := strings.Cut(cmd.Args[1], "=")
	if !ok || name == "" || value == "" {
		return usage("Incorrect syntax. Possible Usages:\n" +
			"\tset PATH=/directory/to/use/for/path\n" +
			"\tset HOME=/directory/to/use/for/home")
	}
	if name != "PATH" && name != "HOME" {
		return usage("available only for PATH or HOME environment variables")
	}
	return os.Setenv(name, value)
}

// jobs lists background jobs that are still running, in job ID order.
func jobs(cmd *Command) error {
	cmd.Shell.DrainNotices()
	for _, job := range cmd.Shell.Jobs.Active(processAlive) {
		if _, err := fmt.Fprintf(cmd.Stdout, "[%d] %d %s\n", job.ID, job.PID, job.Name); err != nil {
			return err
		}
	}
	return nil
}

func kill(cmd *Command) error {
	if len(cmd.Args) != 3 {
		return usage("usage: kill <signal> <job_id>")
	}
	sig, err := parseSignal(cmd.Args[1])
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(cmd.Args[2])
	if err != nil {
		return usage("invalid job id %q", cmd.Args[2])
	}
	return cmd.Shell.SignalJob(id, sig)
}

// parseSignal accepts "9", "-9", "TERM", "-TERM" and "SIGTERM". Numbers
// must name a signal this platform defines.
func parseSignal(s string) (unix.Signal, error) {
	s = strings.TrimPrefix(s, "-")
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 || unix.SignalName(unix.Signal(n)) == "" {
			return 0, usage("invalid signal %s", s)
		}
		return unix.Signal(n), nil
	}
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	if sig := unix.SignalNum(name); sig != 0 {
		return sig, nil
	}
	return 0, usage("invalid signal %s", s)
}

func help(cmd *Command) error {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)

	if _, err := fmt.Fprintln(cmd.Stdout, "Built-in commands:"); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(cmd.Stdout, "  %s\n", name); err != nil {
			return err
		}
	}
	return nil
}

func exitShell(cmd *Command) error {
	cmd.Shell.Stop()
	return nil
}
