package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jesseduffield/hardpresent/pkg/commands"
	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/hardpresent/pkg/hardening"
	"github.com/jesseduffield/hardpresent/pkg/present"
	"github.com/jesseduffield/hardpresent/pkg/utils"
)

// Runner runs a single experiment and reports what it printed and how it
// exited, the same way whether it ran in this process or another one
type Runner interface {
	Run(ctx context.Context, e Experiment) (*commands.Execution, error)
}

// crashStatus is what the go runtime exits with on an unrecovered panic
const crashStatus = 2

// Output formats a ciphertext the way the CLI prints it
type Output struct {
	ByteFormat string
	Separator  string
}

// Format renders ciphertext as a line of stdout
func (o Output) Format(ciphertext present.Block) string {
	return utils.FormatBytes(ciphertext[:], o.ByteFormat, o.Separator) + "\n"
}

// Expected is what a fault-free run prints for key and plaintext
func (o Output) Expected(keyHex, plaintextHex string) (string, error) {
	key, plaintext, err := decodeInputs(keyHex, plaintextHex)
	if err != nil {
		return "", err
	}
	return o.Format(present.Encrypt(plaintext, &key)), nil
}

func decodeInputs(keyHex, plaintextHex string) (present.Key, present.Block, error) {
	var key present.Key
	var plaintext present.Block

	decoded, err := utils.DecodeHex(keyHex, present.KeySize)
	if err != nil {
		return key, plaintext, err
	}
	copy(key[:], decoded)

	decoded, err = utils.DecodeHex(plaintextHex, present.BlockSize)
	if err != nil {
		return key, plaintext, err
	}
	copy(plaintext[:], decoded)

	return key, plaintext, nil
}

// InProcess runs experiments on goroutines. A panic in the cipher, such as a
// corrupted index running off the end of the state, counts as a crash.
type InProcess struct {
	Output  Output
	Timeout time.Duration
}

func (r *InProcess) Run(ctx context.Context, e Experiment) (*commands.Execution, error) {
	key, plaintext, err := decodeInputs(e.Key, e.Plaintext)
	if err != nil {
		return nil, err
	}

	strategy, err := hardening.New(e.Strategy, hardening.Options{Policy: e.Policy, Injector: e.Plan()})
	if err != nil {
		return nil, err
	}

	done := make(chan *commands.Execution, 1)
	go func() {
		done <- r.encrypt(strategy, plaintext, &key)
	}()

	timer := time.NewTimer(r.Timeout)
	defer timer.Stop()

	// a goroutine cannot be killed, so a run that overstays is abandoned
	select {
	case execution := <-done:
		return execution, nil
	case <-timer.C:
		return &commands.Execution{ExitCode: -1, TimedOut: true}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *InProcess) encrypt(strategy hardening.Strategy, plaintext present.Block, key *present.Key) (execution *commands.Execution) {
	defer func() {
		if recovered := recover(); recovered != nil {
			execution = &commands.Execution{
				Stderr:   fmt.Sprintf("panic: %v\n", recovered),
				ExitCode: crashStatus,
			}
		}
	}()

	ciphertext, err := strategy.Encrypt(plaintext, key)
	if err != nil {
		f, ok := fault.As(err)
		if !ok {
			return &commands.Execution{Stderr: err.Error() + "\n", ExitCode: 1}
		}
		return &commands.Execution{Stderr: fault.Message(f.Tag) + "\n", ExitCode: haltStatus}
	}

	return &commands.Execution{Stdout: r.Output.Format(ciphertext)}
}

// External runs every experiment as its own process, from a command template
type External struct {
	OSCommand *commands.OSCommand
	// Command is a go template over commandObject
	Command string
	Binary  string
	Timeout time.Duration
}

// commandObject is what a campaign command template can refer to
type commandObject struct {
	Binary    string
	Strategy  string
	Policy    string
	Fault     string
	Key       string
	Plaintext string
}

func (r *External) Run(ctx context.Context, e Experiment) (*commands.Execution, error) {
	command, err := r.CommandFor(e)
	if err != nil {
		return nil, err
	}
	return r.OSCommand.RunWithTimeout(ctx, command, r.Timeout)
}

// Check runs the binary with --version, failing with CannotStart when it does
// not run at all
func (r *External) Check() error {
	version, err := r.OSCommand.RunCommandWithOutput(fmt.Sprintf("\"%s\" --version", r.Binary))
	if err != nil {
		return commands.NewComplexError(commands.CannotStart, fmt.Sprintf("%s: %v", r.Binary, err))
	}
	r.OSCommand.Log.WithField("version", strings.TrimSpace(version)).Debug("experiment binary runs")
	return nil
}

// CommandFor renders the command an experiment runs
func (r *External) CommandFor(e Experiment) (string, error) {
	return utils.ApplyTemplate(r.Command, commandObject{
		Binary:    r.Binary,
		Strategy:  e.Strategy,
		Policy:    e.Policy.String(),
		Fault:     e.Fault(),
		Key:       e.Key,
		Plaintext: e.Plaintext,
	})
}
