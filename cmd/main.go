package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"quash"
)

var (
	inline   string
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:          "quash [script]",
	Short:        "Quite a shell",
	Long:         `A small command shell with redirection, pipelines and background jobs.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&inline, "command", "c", "", "run one command line and exit with its status")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(quash.ExitFailure)
	}
	os.Exit(exitCode)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := quash.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := quash.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	sh, err := quash.NewShell(cfg, quash.WithLogger(logger))
	if err != nil {
		return err
	}
	defer sh.Close()

	switch {
	case inline != "":
		status, err := sh.Execute(inline)
		sh.DrainNotices()
		exitCode = status
		return err
	case len(args) == 1:
		script, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer script.Close()
		return batch(sh, script)
	case !term.IsTerminal(int(os.Stdin.Fd())):
		return batch(sh, os.Stdin)
	}
	return interactive(sh)
}

// batch runs lines without prompting; the last status becomes the exit code.
func batch(sh *quash.Shell, r io.Reader) error {
	err := sh.Run(quash.NewScriptReader(r))
	exitCode = sh.LastStatus
	return err
}

func interactive(sh *quash.Shell) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 sh.Prompt(),
		HistoryLimit:           -1,
		DisableAutoSaveHistory: true,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start line reader: %w", err)
	}
	defer rl.Close()

	fmt.Println("Welcome to Quash!")
	fmt.Println(`Type "exit" or "quit" to leave this shell`)
	return sh.Run(&lineReader{Instance: rl})
}

// lineReader turns Ctrl-C at the prompt into an empty line.
type lineReader struct {
	*readline.Instance
}

func (r *lineReader) Readline() (string, error) {
	line, err := r.Instance.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", nil
	}
	return line, err
}
