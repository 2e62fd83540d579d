package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidInputs(t *testing.T) {
	testCases := []struct {
		input string
		want  []string
	}{
		{"ls -l", []string{"ls", "-l"}},
		{"echo 'hello world'", []string{"echo", "hello world"}},
		{`grep -i "pattern" file.txt`, []string{"grep", "-i", "pattern", "file.txt"}},
		{"sleep 5 &", []string{"sleep", "5", "&"}},
		{"cat < in.txt", []string{"cat", "<", "in.txt"}},
		{"ls | wc -l", []string{"ls", "|", "wc", "-l"}},
		{"  padded\targs  \n", []string{"padded", "args"}},
		{"a|b", []string{"a|b"}},
		{"echo ''", []string{"echo", ""}},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			cmd, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cmd.Args)
			assert.Equal(t, tc.want[0], cmd.Name())
		})
	}
}

func TestParseKeepsRawLine(t *testing.T) {
	cmd, err := Parse("echo hi > out.txt\n")
	require.NoError(t, err)
	assert.Equal(t, "echo hi > out.txt", cmd.Raw)
	assert.Equal(t, "echo hi > out.txt", cmd.String())
}

func TestParseInvalidInputs(t *testing.T) {
	testCases := []struct {
		input   string
		isEmpty bool
	}{
		{"", true},
		{"   \t ", true},
		{"\n", true},
		{`echo "unterminated`, false},
		{"echo 'half", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			cmd, err := Parse(tc.input)
			require.Error(t, err)
			assert.Nil(t, cmd)
			assert.Equal(t, tc.isEmpty, errors.Is(err, ErrEmpty))
		})
	}
}

func TestNilCommandName(t *testing.T) {
	var cmd *Command
	assert.Equal(t, "", cmd.Name())
}
