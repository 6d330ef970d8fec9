// Package campaign injects single faults into hardened encryptions, one
// experiment per fault site, model and input, and tallies how each strategy
// fared
package campaign

import (
	"context"
	"io"
	"strconv"
	"time"

	throttle "github.com/boz/go-throttle"
	"github.com/jesseduffield/hardpresent/pkg/i18n"
	"github.com/jesseduffield/hardpresent/pkg/utils"
	"github.com/samber/lo"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Result is an experiment together with what came of it
type Result struct {
	Experiment
	Expected string
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Outcome  Outcome
}

// Campaign runs a selection of experiments
type Campaign struct {
	Log       *logrus.Entry
	Tr        *i18n.TranslationSet
	Selection Selection
	Runner    Runner
	Output    Output
	Workers   int
	// Progress receives a throttled progress line. Nil for none.
	Progress io.Writer

	mutex  deadlock.Mutex
	done   int
	counts map[Outcome]int
}

// NewCampaign returns a campaign ready to Run
func NewCampaign(log *logrus.Entry, tr *i18n.TranslationSet, selection Selection, runner Runner, output Output, workers int) *Campaign {
	return &Campaign{
		Log:       log,
		Tr:        tr,
		Selection: selection,
		Runner:    runner,
		Output:    output,
		Workers:   workers,
		counts:    map[Outcome]int{},
	}
}

// Run runs every experiment, at most Workers at a time. Results come back in
// experiment order. The first error a runner returns stops the campaign.
func (c *Campaign) Run(ctx context.Context) ([]Result, error) {
	experiments, err := Experiments(c.Selection)
	if err != nil {
		return nil, err
	}

	expected, err := c.expectedOutputs()
	if err != nil {
		return nil, err
	}

	c.Log.Info(utils.ResolvePlaceholderString(c.Tr.CampaignStarting, map[string]string{
		"faults": strconv.Itoa(len(experiments) / lo.Max([]int{1, len(expected)})),
		"inputs": strconv.Itoa(len(expected)),
		"runs":   strconv.Itoa(len(experiments)),
	}))

	progress := throttle.ThrottleFunc(time.Second, true, func() {
		c.reportProgress(len(experiments))
	})
	defer progress.Stop()

	before := time.Now()
	results := make([]Result, len(experiments))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)
	for i, experiment := range experiments {
		if groupCtx.Err() != nil {
			break
		}
		i, experiment := i, experiment
		g.Go(func() error {
			execution, err := c.Runner.Run(groupCtx, experiment)
			if err != nil {
				return err
			}

			want := expected[input{experiment.Key, experiment.Plaintext}]
			results[i] = Result{
				Experiment: experiment,
				Expected:   want,
				Stdout:     execution.Stdout,
				Stderr:     execution.Stderr,
				ExitCode:   execution.ExitCode,
				TimedOut:   execution.TimedOut,
				Outcome:    Classify(execution, want),
			}
			c.record(results[i].Outcome)
			progress.Trigger()
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		c.Log.Warn(utils.ResolvePlaceholderString(c.Tr.CampaignCancelled, map[string]string{
			"done":  strconv.Itoa(c.Done()),
			"total": strconv.Itoa(len(experiments)),
		}))
		return nil, err
	}
	c.reportProgress(len(experiments))

	c.Log.Info(utils.ResolvePlaceholderString(c.Tr.CampaignFinished, map[string]string{
		"duration": time.Since(before).Round(time.Millisecond).String(),
	}))

	return results, nil
}

type input struct {
	key       string
	plaintext string
}

func (c *Campaign) expectedOutputs() (map[input]string, error) {
	expected := map[input]string{}
	for _, key := range c.Selection.Keys {
		for _, plaintext := range c.Selection.Plaintexts {
			output, err := c.Output.Expected(key, plaintext)
			if err != nil {
				return nil, err
			}
			expected[input{key, plaintext}] = output
		}
	}
	return expected, nil
}

func (c *Campaign) record(outcome Outcome) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.done++
	c.counts[outcome]++
}

// Done is how many experiments have finished so far
func (c *Campaign) Done() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.done
}

// Counts is how many experiments ended in each outcome so far
func (c *Campaign) Counts() map[Outcome]int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	counts := make(map[Outcome]int, len(c.counts))
	for outcome, n := range c.counts {
		counts[outcome] = n
	}
	return counts
}

func (c *Campaign) reportProgress(total int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	line := utils.ResolvePlaceholderString(c.Tr.CampaignProgress, map[string]string{
		"done":  strconv.Itoa(c.done),
		"total": strconv.Itoa(total),
	})
	c.Log.WithField("outcomes", c.counts).Info(line)
	if c.Progress != nil {
		_, _ = io.WriteString(c.Progress, "\r"+line)
	}
}
