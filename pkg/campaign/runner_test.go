//go:build !windows

package campaign

import (
	"context"
	"testing"
	"time"

	"github.com/jesseduffield/hardpresent/pkg/commands"
	"github.com/jesseduffield/hardpresent/pkg/config"
	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/hardpresent/pkg/shadow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExperiment() Experiment {
	return Experiment{
		Strategy:  "shadow",
		Policy:    shadow.Conjunctive,
		Site:      fault.Site{Strategy: "shadow", Scope: "sbox", Point: "nibble", Kind: fault.Value, Round: 4, Index: 9},
		Model:     fault.Flip,
		Bit:       2,
		Key:       "00010203040506070809",
		Plaintext: "badf00dbadc0ffee",
	}
}

func TestExternalCommandFor(t *testing.T) {
	type scenario struct {
		testName string
		command  string
		expected string
		errored  bool
	}

	scenarios := []scenario{
		{
			"default command",
			config.GetDefaultConfig().Campaign.Command,
			"/usr/bin/hardpresent --strategy shadow --policy conjunctive --inject flip@sbox.nibble[4,9]/2 00010203040506070809 badf00dbadc0ffee",
			false,
		},
		{
			"wrapped in another tool",
			"valgrind -q {{ .Binary }} -s {{ .Strategy }} --inject={{ .Fault }} {{ .Key }} {{ .Plaintext }}",
			"valgrind -q /usr/bin/hardpresent -s shadow --inject=flip@sbox.nibble[4,9]/2 00010203040506070809 badf00dbadc0ffee",
			false,
		},
		{
			"unknown field",
			"{{ .Binary }} {{ .Cipher }}",
			"",
			true,
		},
	}

	for _, s := range scenarios {
		t.Run(s.testName, func(t *testing.T) {
			runner := &External{Command: s.command, Binary: "/usr/bin/hardpresent"}
			command, err := runner.CommandFor(testExperiment())
			if s.errored {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, s.expected, command)
		})
	}
}

func TestExternalRun(t *testing.T) {
	runner := &External{
		OSCommand: commands.NewDummyOSCommand(),
		Command:   "echo {{ .Fault }} {{ .Key }}",
		Timeout:   3 * time.Second,
	}

	execution, err := runner.Run(context.Background(), testExperiment())
	require.NoError(t, err)
	assert.Equal(t, "flip@sbox.nibble[4,9]/2 00010203040506070809\n", execution.Stdout)
	assert.Equal(t, 0, execution.ExitCode)
	assert.False(t, execution.TimedOut)
}

func TestExternalCheck(t *testing.T) {
	type scenario struct {
		testName string
		binary   string
		fails    bool
	}

	scenarios := []scenario{
		{"binary runs", "echo", false},
		{"binary exits non-zero", "false", true},
		{"binary is missing", "./no-such-hardpresent", true},
	}

	for _, s := range scenarios {
		t.Run(s.testName, func(t *testing.T) {
			runner := &External{OSCommand: commands.NewDummyOSCommand(), Binary: s.binary}
			err := runner.Check()
			if !s.fails {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, commands.HasErrorCode(err, commands.CannotStart))
			assert.Contains(t, err.Error(), s.binary)
		})
	}
}
