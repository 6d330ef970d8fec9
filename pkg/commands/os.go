package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/jesseduffield/hardpresent/pkg/config"
	"github.com/jesseduffield/kill"
	"github.com/mgutz/str"
	"github.com/sirupsen/logrus"
)

// OSCommand holds all the os commands
type OSCommand struct {
	Log     *logrus.Entry
	Config  *config.AppConfig
	command func(string, ...string) *exec.Cmd
}

// NewOSCommand os command runner
func NewOSCommand(log *logrus.Entry, config *config.AppConfig) *OSCommand {
	return &OSCommand{
		Log:     log,
		Config:  config,
		command: exec.Command,
	}
}

// SetCommand sets the command function used by the struct.
// To be used for testing only
func (c *OSCommand) SetCommand(cmd func(string, ...string) *exec.Cmd) {
	c.command = cmd
}

// Execution is what a command left behind once it exited or was killed
type Execution struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// RunCommandWithOutput wrapper around commands returning their output and error
func (c *OSCommand) RunCommandWithOutput(command string) (string, error) {
	cmd, err := c.ExecutableFromString(command)
	if err != nil {
		return "", err
	}
	before := time.Now()
	output, err := sanitisedCommandOutput(cmd.Output())
	c.Log.Debug(fmt.Sprintf("'%s': %s", command, time.Since(before)))
	return output, err
}

// RunWithTimeout runs command to completion, or kills it and its children once
// timeout passes. A non-zero exit is not an error: it is part of the
// Execution. Cancelling ctx kills the command and returns ctx's error.
func (c *OSCommand) RunWithTimeout(ctx context.Context, command string, timeout time.Duration) (*Execution, error) {
	cmd, err := c.ExecutableFromString(command)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	c.PrepareForChildren(cmd)

	if err := cmd.Start(); err != nil {
		return nil, NewComplexError(CannotStart, err.Error())
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	execution := &Execution{}
	select {
	case err = <-done:
	case <-timer.C:
		execution.TimedOut = true
		if killErr := c.Kill(cmd); killErr != nil {
			c.Log.Warn(killErr)
		}
		err = <-done
	case <-ctx.Done():
		if killErr := c.Kill(cmd); killErr != nil {
			c.Log.Warn(killErr)
		}
		<-done
		return nil, ctx.Err()
	}

	if err != nil && !execution.TimedOut {
		if _, ok := err.(*exec.ExitError); !ok {
			return nil, WrapError(err)
		}
	}

	execution.Stdout = stdout.String()
	execution.Stderr = stderr.String()
	execution.ExitCode = cmd.ProcessState.ExitCode()
	return execution, nil
}

// ExecutableFromString takes a string like `hardpresent -s shadow KEY PLAINTEXT` and returns an executable command for it
func (c *OSCommand) ExecutableFromString(commandStr string) (*exec.Cmd, error) {
	splitCmd := str.ToArgv(commandStr)
	if len(splitCmd) == 0 {
		return nil, errors.New("empty command")
	}
	return c.NewCmd(splitCmd[0], splitCmd[1:]...), nil
}

func (c *OSCommand) NewCmd(cmdName string, commandArgs ...string) *exec.Cmd {
	cmd := c.command(cmdName, commandArgs...)
	cmd.Env = os.Environ()
	return cmd
}

func sanitisedCommandOutput(output []byte, err error) (string, error) {
	outputString := string(output)
	if err != nil {
		// errors like 'exit status 1' are not very useful so we'll create an error
		// from stderr if we got an ExitError
		exitError, ok := err.(*exec.ExitError)
		if ok {
			return outputString, errors.New(strings.TrimSpace(string(exitError.Stderr)))
		}
		return "", WrapError(err)
	}
	return outputString, nil
}

// GetHardpresentPath returns the path of the currently executed file
func (c *OSCommand) GetHardpresentPath() string {
	ex, err := os.Executable()
	if err != nil {
		ex = os.Args[0] // fallback to the first call argument if needed
	}
	return filepath.ToSlash(ex)
}

// Kill kills a process. If the process has Setpgid == true, then we have anticipated that it might spawn its own child processes, so we've given it a process group ID (PGID) equal to its process id (PID) and given its child processes will inherit the PGID, we can kill that group, rather than killing the process itself.
func (c *OSCommand) Kill(cmd *exec.Cmd) error {
	return kill.Kill(cmd)
}

// PrepareForChildren sets Setpgid to true on the cmd, so that when we run it as a subprocess, we can kill its group rather than the process itself. A campaign command may well be a wrapper script or an emulator that starts the binary as its own child, and killing the wrapper alone would leave the binary running.
func (c *OSCommand) PrepareForChildren(cmd *exec.Cmd) {
	kill.PrepareForChildren(cmd)
}
