package campaign

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/go-errors/errors"
	"github.com/goccy/go-yaml"
	"github.com/jesseduffield/asciigraph"
	"github.com/jesseduffield/hardpresent/pkg/commands"
	"github.com/jesseduffield/hardpresent/pkg/i18n"
	"github.com/jesseduffield/hardpresent/pkg/present"
	"github.com/jesseduffield/hardpresent/pkg/utils"
	"github.com/mcuadros/go-lookup"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/samber/lo"
)

// Columns is the header row of the results csv
var Columns = []string{"strategy", "fault", "key", "plaintext", "stdout", "stderr", "exitcode", "timedout", "outcome"}

// WriteCSV writes one row per result, chaosduck style
func WriteCSV(w io.Writer, results []Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return errors.Wrap(err, 0)
	}

	for _, result := range results {
		row := []string{
			result.Strategy,
			result.Fault(),
			result.Key,
			result.Plaintext,
			result.Stdout,
			result.Stderr,
			strconv.Itoa(result.ExitCode),
			strconv.FormatBool(result.TimedOut),
			string(result.Outcome),
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, 0)
		}
	}

	writer.Flush()
	return commands.WrapError(writer.Error())
}

// Tally counts outcomes per key, keeping keys in the order first seen
type Tally struct {
	Keys   []string
	Counts map[string]map[Outcome]int
}

func newTally() *Tally {
	return &Tally{Counts: map[string]map[Outcome]int{}}
}

func (t *Tally) add(key string, outcome Outcome) {
	if _, ok := t.Counts[key]; !ok {
		t.Keys = append(t.Keys, key)
		t.Counts[key] = map[Outcome]int{}
	}
	t.Counts[key][outcome]++
}

// Runs is how many results were counted under key
func (t *Tally) Runs(key string) int {
	runs := 0
	for _, n := range t.Counts[key] {
		runs += n
	}
	return runs
}

// Summary is what a campaign adds up to
type Summary struct {
	Runs       int
	ByStrategy *Tally
	GroupBy    string
	Groups     *Tally
	// DetectionsPerRound is indexed by round
	DetectionsPerRound []float64
}

// Summarize tallies results by strategy and by the field path groupBy, e.g.
// Site.Scope or Model
func Summarize(results []Result, groupBy string) (*Summary, error) {
	summary := &Summary{
		Runs:               len(results),
		ByStrategy:         newTally(),
		GroupBy:            groupBy,
		Groups:             newTally(),
		DetectionsPerRound: make([]float64, present.Rounds),
	}

	for _, result := range results {
		summary.ByStrategy.add(result.Strategy, result.Outcome)

		value, err := lookup.LookupString(result, groupBy)
		if err != nil {
			return nil, errors.Errorf("cannot group results by %q: %v", groupBy, err)
		}
		summary.Groups.add(fmt.Sprint(value.Interface()), result.Outcome)

		if result.Outcome == Detected && result.Site.Round >= 0 {
			summary.DetectionsPerRound[result.Site.Round]++
		}
	}

	return summary, nil
}

// RenderSummary renders a table of outcomes per strategy, then per group
func RenderSummary(tr *i18n.TranslationSet, summary *Summary) (string, error) {
	byStrategy, err := renderTally(tr, tr.StrategyColumn, summary.ByStrategy)
	if err != nil {
		return "", err
	}

	groups, err := renderTally(tr, summary.GroupBy, summary.Groups)
	if err != nil {
		return "", err
	}

	return byStrategy + "\n\n" + groups + "\n", nil
}

func outcomeColor(outcome Outcome) color.Attribute {
	switch outcome {
	case Detected:
		return color.FgGreen
	case Corrupted:
		return color.FgRed
	case Crashed, TimedOut:
		return color.FgYellow
	}
	return color.FgBlue
}

func renderTally(tr *i18n.TranslationSet, title string, tally *Tally) (string, error) {
	header := []string{title}
	for _, outcome := range Outcomes {
		header = append(header, utils.MultiColoredString(outcome.Translate(tr), outcomeColor(outcome), color.Bold))
	}
	header = append(header, tr.RunsColumn, tr.ShareColumn)

	rows := [][]string{header}
	for _, key := range tally.Keys {
		runs := tally.Runs(key)
		row := []string{key}
		for _, outcome := range Outcomes {
			row = append(row, strconv.Itoa(tally.Counts[key][outcome]))
		}
		share := float64(tally.Counts[key][Detected]) / float64(lo.Max([]int{1, runs})) * 100
		row = append(row, strconv.Itoa(runs), fmt.Sprintf("%.1f%%", share))
		rows = append(rows, row)
	}

	return utils.RenderTable(rows)
}

// RenderGraph plots detections per round
func RenderGraph(summary *Summary, height int, caption string, colour string) string {
	graph := asciigraph.Plot(
		summary.DetectionsPerRound,
		asciigraph.Height(height),
		asciigraph.Min(0),
		asciigraph.Caption(caption),
	)
	return utils.ColoredString(graph, utils.GetColorAttribute(colour))
}

// WriteDiffs writes, for every corrupted result, which ciphertext bytes came
// out wrong
func WriteDiffs(w io.Writer, tr *i18n.TranslationSet, results []Result) error {
	for _, result := range results {
		if result.Outcome != Corrupted {
			continue
		}

		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(bytePerLine(result.Expected)),
			B:        difflib.SplitLines(bytePerLine(result.Stdout)),
			FromFile: tr.ExpectedOutput,
			ToFile:   fmt.Sprintf("%s %s %s %s", tr.ActualOutput, result.Fault(), result.Key, result.Plaintext),
			Context:  1,
		}
		if err := difflib.WriteUnifiedDiff(w, diff); err != nil {
			return errors.Wrap(err, 0)
		}
	}
	return nil
}

func bytePerLine(output string) string {
	return strings.Join(strings.Fields(output), "\n") + "\n"
}

// Report is the yaml summary of a campaign
type Report struct {
	Strategies         []string      `yaml:"strategies"`
	Policy             string        `yaml:"policy"`
	Runs               int           `yaml:"runs"`
	Outcomes           yaml.MapSlice `yaml:"outcomes"`
	GroupBy            string        `yaml:"groupBy"`
	Groups             yaml.MapSlice `yaml:"groups"`
	DetectionsPerRound []int         `yaml:"detectionsPerRound"`
}

// NewReport builds the yaml report from a summary
func NewReport(selection Selection, summary *Summary) *Report {
	return &Report{
		Strategies:         selection.Strategies,
		Policy:             selection.Policy.String(),
		Runs:               summary.Runs,
		Outcomes:           tallyMapSlice(summary.ByStrategy),
		GroupBy:            summary.GroupBy,
		Groups:             tallyMapSlice(summary.Groups),
		DetectionsPerRound: lo.Map(summary.DetectionsPerRound, func(n float64, _ int) int { return int(n) }),
	}
}

func tallyMapSlice(tally *Tally) yaml.MapSlice {
	slice := yaml.MapSlice{}
	for _, key := range tally.Keys {
		counts := yaml.MapSlice{}
		for _, outcome := range Outcomes {
			counts = append(counts, yaml.MapItem{Key: string(outcome), Value: tally.Counts[key][outcome]})
		}
		slice = append(slice, yaml.MapItem{Key: key, Value: counts})
	}
	return slice
}

// WriteReport writes the report as yaml
func WriteReport(w io.Writer, report *Report) error {
	out, err := yaml.Marshal(report)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	_, err = w.Write(out)
	return commands.WrapError(err)
}
