package campaign

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/jesseduffield/hardpresent/pkg/commands"
	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/hardpresent/pkg/i18n"
	"github.com/jesseduffield/hardpresent/pkg/present"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOutput = Output{ByteFormat: "0x%02x", Separator: " "}

func TestClassify(t *testing.T) {
	type scenario struct {
		testName  string
		execution *commands.Execution
		expected  Outcome
	}

	want := "0x08 0x48 0x83 0x89 0x95 0x57 0xba 0x33 \n"

	scenarios := []scenario{
		{
			"same ciphertext",
			&commands.Execution{Stdout: want},
			Masked,
		},
		{
			"windows line endings",
			&commands.Execution{Stdout: "0x08 0x48 0x83 0x89 0x95 0x57 0xba 0x33 \r\n"},
			Masked,
		},
		{
			"different ciphertext",
			&commands.Execution{Stdout: "0x08 0x48 0x80 0x89 0x95 0x57 0xb8 0x33 \n"},
			Corrupted,
		},
		{
			"halted with diagnostic",
			&commands.Execution{Stderr: fault.Message("T1") + "\n", ExitCode: 255},
			Detected,
		},
		{
			"halt status without diagnostic",
			&commands.Execution{Stderr: "something else\n", ExitCode: 255},
			Crashed,
		},
		{
			"panicked",
			&commands.Execution{Stderr: "panic: index out of range\n", ExitCode: 2},
			Crashed,
		},
		{
			"killed",
			&commands.Execution{Stdout: want, ExitCode: -1, TimedOut: true},
			TimedOut,
		},
	}

	for _, s := range scenarios {
		t.Run(s.testName, func(t *testing.T) {
			assert.Equal(t, s.expected, Classify(s.execution, want))
		})
	}
}

func TestOutcomeTranslate(t *testing.T) {
	tr := i18n.NewTranslationSet(commands.NewDummyLog(), "pl")
	assert.Equal(t, "wykryto", Detected.Translate(tr))
	assert.Equal(t, "other", Outcome("other").Translate(tr))
}

func TestOutputExpected(t *testing.T) {
	out, err := testOutput.Expected("00010203040506070809", "badf00dbadc0ffee")
	require.NoError(t, err)
	assert.Equal(t, "0x08 0x48 0x83 0x89 0x95 0x57 0xba 0x33 \n", out)

	_, err = testOutput.Expected("0001", "badf00dbadc0ffee")
	assert.Error(t, err)
	_, err = testOutput.Expected("00010203040506070809", "badf00dbadc0ffzz")
	assert.Error(t, err)
}

func TestInProcessRun(t *testing.T) {
	type scenario struct {
		testName string
		site     fault.Site
		model    fault.Model
		expected Outcome
		stdout   string
	}

	scenarios := []scenario{
		{
			"skipped increment",
			fault.Site{Strategy: "counting", Scope: "mix", Point: "next", Kind: fault.Action, Round: 12, Index: 3},
			fault.Nop,
			Detected,
			"",
		},
		{
			"skipped data statement",
			fault.Site{Strategy: "counting", Scope: "mix", Point: "apply", Kind: fault.Action, Round: 30, Index: 0},
			fault.Nop,
			Corrupted,
			"0x08 0x48 0x80 0x89 0x95 0x57 0xb8 0x33 \n",
		},
		{
			"shortened round loop",
			fault.Site{Strategy: "counting", Scope: "rounds", Point: "bound", Kind: fault.Bound, Round: -1, Index: -1},
			fault.BoundDown,
			Detected,
			"",
		},
		{
			"site that is never passed",
			fault.Site{Strategy: "counting", Scope: "nowhere", Point: "apply", Kind: fault.Action, Round: 3, Index: 3},
			fault.Nop,
			Masked,
			"0x08 0x48 0x83 0x89 0x95 0x57 0xba 0x33 \n",
		},
	}

	runner := &InProcess{Output: testOutput, Timeout: 3 * time.Second}

	for _, s := range scenarios {
		t.Run(s.testName, func(t *testing.T) {
			e := Experiment{
				Strategy:  "counting",
				Site:      s.site,
				Model:     s.model,
				Key:       "00010203040506070809",
				Plaintext: "badf00dbadc0ffee",
			}
			expected, err := testOutput.Expected(e.Key, e.Plaintext)
			require.NoError(t, err)

			execution, err := runner.Run(context.Background(), e)
			require.NoError(t, err)
			assert.Equal(t, s.expected, Classify(execution, expected))
			assert.Equal(t, s.stdout, execution.Stdout)
			if s.expected == Detected {
				assert.Equal(t, fault.Message("T1")+"\n", execution.Stderr)
			}
		})
	}
}

func TestInProcessRunRejectsBadInput(t *testing.T) {
	runner := &InProcess{Output: testOutput, Timeout: time.Second}

	_, err := runner.Run(context.Background(), Experiment{Strategy: "counting", Key: "00", Plaintext: "0000000000000000"})
	assert.Error(t, err)

	_, err = runner.Run(context.Background(), Experiment{Strategy: "tmr", Key: "00000000000000000000", Plaintext: "0000000000000000"})
	assert.Error(t, err)
}

type panickingStrategy struct{}

func (panickingStrategy) Name() string { return "panicking" }
func (panickingStrategy) Tag() string  { return "T9" }
func (panickingStrategy) Encrypt(present.Block, *present.Key) (present.Block, error) {
	var state []byte
	return present.Block{state[3]}, nil
}

type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }
func (failingStrategy) Tag() string  { return "T9" }
func (failingStrategy) Encrypt(present.Block, *present.Key) (present.Block, error) {
	return present.Block{}, errors.New("out of order")
}

func TestInProcessEncryptFailures(t *testing.T) {
	runner := &InProcess{Output: testOutput}
	var key present.Key

	execution := runner.encrypt(panickingStrategy{}, present.Block{}, &key)
	assert.Equal(t, crashStatus, execution.ExitCode)
	assert.Contains(t, execution.Stderr, "panic: ")
	assert.Equal(t, Crashed, Classify(execution, ""))

	execution = runner.encrypt(failingStrategy{}, present.Block{}, &key)
	assert.Equal(t, 1, execution.ExitCode)
	assert.Equal(t, "out of order\n", execution.Stderr)
}

type runnerFunc func(ctx context.Context, e Experiment) (*commands.Execution, error)

func (f runnerFunc) Run(ctx context.Context, e Experiment) (*commands.Execution, error) {
	return f(ctx, e)
}

func newTestCampaign(selection Selection, runner Runner) *Campaign {
	log := commands.NewDummyLog()
	return NewCampaign(log, i18n.NewTranslationSet(log, "en"), selection, runner, testOutput, 4)
}

func boundSelection() Selection {
	return Selection{
		Strategies: []string{"counting", "shadow"},
		Models:     []fault.Model{fault.BoundUp, fault.BoundDown},
		Keys:       []string{"00010203040506070809"},
		Plaintexts: []string{"badf00dbadc0ffee", "1ceb00dab105f00d"},
	}
}

func TestCampaignRun(t *testing.T) {
	selection := boundSelection()
	selection.Strategies = []string{"counting"}

	c := newTestCampaign(selection, &InProcess{Output: testOutput, Timeout: 3 * time.Second})
	progress := &bytes.Buffer{}
	c.Progress = progress

	results, err := c.Run(context.Background())
	require.NoError(t, err)

	experiments, err := Experiments(selection)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Len(t, results, len(experiments))

	for i, result := range results {
		assert.Equal(t, experiments[i], result.Experiment)
		assert.Equal(t, Detected, result.Outcome, result.Fault())
		assert.Empty(t, result.Stdout)
		assert.NotEmpty(t, result.Expected)
	}

	assert.Equal(t, len(results), c.Done())
	assert.Equal(t, map[Outcome]int{Detected: len(results)}, c.Counts())
	assert.Contains(t, progress.String(), "\r")
}

func TestCampaignRunStopsOnRunnerError(t *testing.T) {
	c := newTestCampaign(boundSelection(), runnerFunc(func(ctx context.Context, e Experiment) (*commands.Execution, error) {
		return nil, errors.New("cannot start")
	}))

	results, err := c.Run(context.Background())
	assert.EqualError(t, err, "cannot start")
	assert.Nil(t, results)
}

func TestCampaignRunRejectsBadInputs(t *testing.T) {
	selection := boundSelection()
	selection.Keys = []string{"deadbeef"}

	c := newTestCampaign(selection, runnerFunc(func(ctx context.Context, e Experiment) (*commands.Execution, error) {
		return &commands.Execution{}, nil
	}))

	_, err := c.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, c.Done())
}

func TestCampaignRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestCampaign(boundSelection(), runnerFunc(func(ctx context.Context, e Experiment) (*commands.Execution, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	_, err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
