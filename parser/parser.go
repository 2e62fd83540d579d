// Package parser splits a raw input line into the argument list the
// execution engine consumes.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrEmpty is returned for a line holding nothing but whitespace.
var ErrEmpty = errors.New("empty input")

// Operator tokens recognised by the execution engine.
const (
	OpBackground = "&"
	OpInput      = "<"
	OpOutput     = ">"
	OpPipe       = "|"
)

// Operators only split words when surrounded by whitespace, so "a|b" stays
// a single argument.
var shellLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Quote", Pattern: `'[^']*'|"[^"]*"`},
	{Name: "Word", Pattern: `[^\s'"]+`},
})

type line struct {
	Tokens []string `parser:"@(Word | Quote)*"`
}

var lineParser = participle.MustBuild[line](
	participle.Lexer(shellLexer),
	participle.Elide("Whitespace"),
)

// Command is one tokenized input line. Args[0] is the program name.
type Command struct {
	Raw  string
	Args []string
}

// Name returns the program name, or "" for an empty command.
func (c *Command) Name() string {
	if c == nil || len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// String renders the argument list back into a single line.
func (c *Command) String() string {
	return strings.Join(c.Args, " ")
}

// Parse tokenizes input. Quoted tokens keep their content verbatim with
// the surrounding quotes removed; no expansion happens here.
func Parse(input string) (*Command, error) {
	raw := strings.TrimRight(input, "\r\n")
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmpty
	}

	parsed, err := lineParser.ParseString("", raw)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if len(parsed.Tokens) == 0 {
		return nil, ErrEmpty
	}

	args := make([]string, 0, len(parsed.Tokens))
	for _, tok := range parsed.Tokens {
		args = append(args, unquote(tok))
	}
	return &Command{Raw: raw, Args: args}, nil
}

func unquote(tok string) string {
	if len(tok) >= 2 {
		first, last := tok[0], tok[len(tok)-1]
		if (first == '\'' || first == '"') && first == last {
			return tok[1 : len(tok)-1]
		}
	}
	return tok
}
