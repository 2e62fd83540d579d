package quash

import (
	"errors"
	"fmt"

	"quash/parser"
)

// Mode is the single execution strategy chosen for a command.
type Mode int

const (
	ModePlain Mode = iota
	ModeInputRedirect
	ModeOutputRedirect
	ModeBackground
	ModePipeline
)

func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeInputRedirect:
		return "input-redirect"
	case ModeOutputRedirect:
		return "output-redirect"
	case ModeBackground:
		return "background"
	case ModePipeline:
		return "pipeline"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

var (
	ErrMissingOperand = errors.New("missing file operand")
	ErrEmptyStage     = errors.New("empty pipeline stage")
)

// Plan is a classified command. Args has the operator tokens of the chosen
// mode removed; Stages is only set for ModePipeline.
type Plan struct {
	Mode   Mode
	Args   []string
	Path   string
	Stages [][]string
}

// Classification precedence. Only the first operator present is honoured;
// the others stay in the argument list as ordinary words.
var precedence = []struct {
	op   string
	mode Mode
}{
	{parser.OpBackground, ModeBackground},
	{parser.OpInput, ModeInputRedirect},
	{parser.OpOutput, ModeOutputRedirect},
	{parser.OpPipe, ModePipeline},
}

// Classify never fails. A malformed operand is left for Validate.
func Classify(args []string) Plan {
	for _, p := range precedence {
		if idx := indexOperator(args, p.op); idx > 0 {
			switch p.mode {
			case ModeBackground:
				return Plan{Mode: ModeBackground, Args: without(args, p.op)}
			case ModeInputRedirect, ModeOutputRedirect:
				return redirectPlan(p.mode, args, idx)
			case ModePipeline:
				return Plan{Mode: ModePipeline, Args: args, Stages: splitStages(args)}
			}
		}
	}
	return Plan{Mode: ModePlain, Args: args}
}

// Validate reports operand errors the mode handler must surface before
// anything is spawned.
func (p Plan) Validate() error {
	switch p.Mode {
	case ModeInputRedirect, ModeOutputRedirect:
		if p.Path == "" {
			return ErrMissingOperand
		}
		if len(p.Args) == 0 {
			return ErrUsage
		}
	case ModePipeline:
		if len(p.Stages) < 2 {
			return ErrEmptyStage
		}
		for _, stage := range p.Stages {
			if len(stage) == 0 {
				return ErrEmptyStage
			}
		}
	case ModeBackground, ModePlain:
		if len(p.Args) == 0 {
			return ErrUsage
		}
	}
	return nil
}

// indexOperator scans the tokens after the program name.
func indexOperator(args []string, op string) int {
	for i := 1; i < len(args); i++ {
		if args[i] == op {
			return i
		}
	}
	return -1
}

func without(args []string, op string) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		if i > 0 && a == op {
			continue
		}
		out = append(out, a)
	}
	return out
}

func redirectPlan(mode Mode, args []string, idx int) Plan {
	plan := Plan{Mode: mode}
	rest := idx + 1
	if rest < len(args) {
		plan.Path = args[rest]
		rest++
	}
	plan.Args = make([]string, 0, len(args))
	plan.Args = append(plan.Args, args[:idx]...)
	plan.Args = append(plan.Args, args[rest:]...)
	return plan
}

func splitStages(args []string) [][]string {
	stages := [][]string{{}}
	for i, a := range args {
		if i > 0 && a == parser.OpPipe {
			stages = append(stages, []string{})
			continue
		}
		last := len(stages) - 1
		stages[last] = append(stages[last], a)
	}
	return stages
}
