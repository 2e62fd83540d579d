package quash

import (
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

var promptDir = color.New(color.FgBlue, color.Bold)

// Prompt expands the configured template:
//
//	%u user  %h host  %w working directory  %W directory with ~ for $HOME
//	%d date  %t time  %$ literal $
func (sh *Shell) Prompt() string {
	return expandPromptVariables(sh.Config.Prompt)
}

func expandPromptVariables(prompt string) string {
	cwd, _ := os.Getwd()
	hostname, _ := os.Hostname()

	replacer := strings.NewReplacer(
		"%u", os.Getenv("USER"),
		"%h", hostname,
		"%w", promptDir.Sprint(cwd),
		"%W", promptDir.Sprint(shortenPath(cwd)),
		"%d", time.Now().Format("2006-01-02"),
		"%t", time.Now().Format("15:04:05"),
		"%$", "$",
	)
	return replacer.Replace(prompt)
}

func shortenPath(path string) string {
	home := os.Getenv("HOME")
	if home != "" && strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
