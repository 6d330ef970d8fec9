//go:build !windows

package commands

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOSCommandRunCommandWithOutput is a function.
func TestOSCommandRunCommandWithOutput(t *testing.T) {
	type scenario struct {
		command string
		test    func(string, error)
	}

	scenarios := []scenario{
		{
			"echo -n '123'",
			func(output string, err error) {
				assert.NoError(t, err)
				assert.EqualValues(t, "123", output)
			},
		},
		{
			"rmdir unexisting-folder",
			func(output string, err error) {
				assert.Regexp(t, "rmdir.*unexisting-folder.*", err.Error())
			},
		},
		{
			"",
			func(output string, err error) {
				assert.EqualError(t, err, "empty command")
			},
		},
	}

	for _, s := range scenarios {
		s.test(NewDummyOSCommand().RunCommandWithOutput(s.command))
	}
}

func TestOSCommandRunWithTimeout(t *testing.T) {
	type scenario struct {
		name     string
		command  string
		timeout  time.Duration
		expected Execution
	}

	scenarios := []scenario{
		{
			name:     "clean exit",
			command:  "echo -n '0x45 0x84 '",
			timeout:  5 * time.Second,
			expected: Execution{Stdout: "0x45 0x84 ", ExitCode: 0},
		},
		{
			name:     "halt",
			command:  "sh -c 'echo HARDERR T1 The algorithm failed to execute properly >&2; exit 255'",
			timeout:  5 * time.Second,
			expected: Execution{Stderr: "HARDERR T1 The algorithm failed to execute properly\n", ExitCode: 255},
		},
		{
			name:     "killed after the timeout",
			command:  "sleep 10",
			timeout:  100 * time.Millisecond,
			expected: Execution{ExitCode: -1, TimedOut: true},
		},
	}

	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			execution, err := NewDummyOSCommand().RunWithTimeout(context.Background(), s.command, s.timeout)
			require.NoError(t, err)
			assert.Equal(t, s.expected, *execution)
		})
	}
}

func TestOSCommandRunWithTimeoutCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	before := time.Now()
	_, err := NewDummyOSCommand().RunWithTimeout(ctx, "sleep 10", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(before), 5*time.Second)
}

func TestOSCommandRunWithTimeoutMissingBinary(t *testing.T) {
	_, err := NewDummyOSCommand().RunWithTimeout(context.Background(), "./no-such-hardpresent KEY PLAINTEXT", time.Second)
	assert.Error(t, err)
	assert.True(t, HasErrorCode(err, CannotStart))
}

func TestOSCommandSetCommand(t *testing.T) {
	osCommand := NewDummyOSCommand()
	var called []string
	osCommand.SetCommand(func(name string, args ...string) *exec.Cmd {
		called = append([]string{name}, args...)
		return exec.Command("true")
	})

	_, err := osCommand.RunCommandWithOutput("hardpresent --strategy shadow 00010203040506070809 badf00dbadc0ffee")
	require.NoError(t, err)
	assert.Equal(t, []string{"hardpresent", "--strategy", "shadow", "00010203040506070809", "badf00dbadc0ffee"}, called)
}

func TestGetHardpresentPath(t *testing.T) {
	assert.NotEmpty(t, NewDummyOSCommand().GetHardpresentPath())
}
