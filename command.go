package quash

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"quash/parser"
)

// Command is one input line for the duration of a single loop iteration.
type Command struct {
	*parser.Command
	Plan       Plan
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	ReturnCode int
	Shell      *Shell
}

func NewCommand(input string, sh *Shell) (*Command, error) {
	parsed, err := parser.Parse(input)
	if err != nil {
		return nil, err
	}
	return &Command{
		Command: parsed,
		Stdin:   sh.Stdin,
		Stdout:  sh.Stdout,
		Stderr:  sh.Stderr,
		Shell:   sh,
	}, nil
}

// Run classifies the command and executes it. Builtins are only dispatched
// for plain commands; anything carrying an operator goes to the process
// engine. The returned error is non-nil only when the shell must stop.
func (cmd *Command) Run() error {
	cmd.StartTime = time.Now()
	defer func() {
		cmd.EndTime = time.Now()
		cmd.Duration = cmd.EndTime.Sub(cmd.StartTime)
	}()

	cmd.Plan = Classify(cmd.Args)
	cmd.Shell.Logger.Debug("plan",
		zap.String("mode", cmd.Plan.Mode.String()),
		zap.Strings("args", cmd.Plan.Args),
	)

	if cmd.Plan.Mode == ModePlain {
		if builtin, ok := builtins[cmd.Name()]; ok {
			cmd.ReturnCode = ExitSuccess
			if err := builtin(cmd); err != nil {
				fmt.Fprintf(cmd.Stderr, "%s: %v\n", cmd.Name(), err)
				cmd.ReturnCode = ExitFailure
			}
			return nil
		}
	}

	if err := cmd.Plan.Validate(); err != nil {
		fmt.Fprintf(cmd.Stderr, "%s: %v\n", cmd.Name(), err)
		cmd.ReturnCode = ExitFailure
		return nil
	}

	var (
		status int
		err    error
	)
	switch cmd.Plan.Mode {
	case ModeBackground:
		status, err = cmd.runBackground(cmd.Plan.Args)
	case ModeInputRedirect, ModeOutputRedirect:
		status, err = cmd.runRedirect(cmd.Plan)
	case ModePipeline:
		status, err = cmd.runPipeline(cmd.Plan.Stages)
	default:
		status, err = cmd.runPlain(cmd.Plan.Args)
	}
	cmd.ReturnCode = status
	return err
}
