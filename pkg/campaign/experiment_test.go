package campaign

import (
	"testing"

	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/hardpresent/pkg/hardening"
	"github.com/jesseduffield/hardpresent/pkg/shadow"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSites(t *testing.T) {
	for _, name := range hardening.Hardened() {
		t.Run(name, func(t *testing.T) {
			sites, err := Sites(name, shadow.PerVariable)
			require.NoError(t, err)
			require.NotEmpty(t, sites)
			assert.Len(t, lo.Uniq(sites), len(sites))
			for _, site := range sites {
				assert.Equal(t, name, site.Strategy)
			}
		})
	}

	sites, err := Sites("reference", shadow.PerVariable)
	require.NoError(t, err)
	assert.Empty(t, sites)

	_, err = Sites("duplication", shadow.PerVariable)
	assert.Error(t, err)
}

func TestExperiments(t *testing.T) {
	sites, err := Sites("counting", shadow.PerVariable)
	require.NoError(t, err)

	countSites := func(kind fault.SiteKind, rounds []int) int {
		return len(lo.Filter(sites, func(site fault.Site, _ int) bool {
			return site.Kind == kind && (site.Round < 0 || lo.Contains(rounds, site.Round))
		}))
	}

	type scenario struct {
		testName  string
		selection Selection
		expected  int
		test      func([]Experiment)
	}

	keys := []string{"00000000000000000000", "ffffffffffffffffffff"}
	plaintexts := []string{"1ceb00dab105f00d"}

	scenarios := []scenario{
		{
			"bounds outside the rounds",
			Selection{
				Strategies: []string{"counting"},
				Models:     []fault.Model{fault.BoundUp},
				Keys:       keys,
				Plaintexts: plaintexts,
			},
			countSites(fault.Bound, nil) * 2,
			func(experiments []Experiment) {
				for _, e := range experiments {
					assert.Equal(t, fault.Bound, e.Site.Kind)
					assert.Equal(t, -1, e.Site.Round)
					assert.Equal(t, 0, e.Bit)
				}
			},
		},
		{
			"every bit of every value in the last round",
			Selection{
				Strategies: []string{"counting"},
				Models:     []fault.Model{fault.Flip},
				Rounds:     []int{30},
				Keys:       keys[:1],
				Plaintexts: plaintexts,
			},
			countSites(fault.Value, []int{30}) * fault.ValueBits,
			func(experiments []Experiment) {
				bits := lo.Uniq(lo.Map(experiments, func(e Experiment, _ int) int { return e.Bit }))
				assert.ElementsMatch(t, lo.Range(fault.ValueBits), bits)
				for _, e := range experiments {
					assert.Contains(t, []int{-1, 30}, e.Site.Round)
				}
			},
		},
		{
			"skips land on actions only",
			Selection{
				Strategies: []string{"counting"},
				Models:     []fault.Model{fault.Nop},
				Rounds:     []int{0, 1},
				Keys:       keys[:1],
				Plaintexts: plaintexts,
			},
			countSites(fault.Action, []int{0, 1}),
			func(experiments []Experiment) {
				for _, e := range experiments {
					assert.Equal(t, fault.Action, e.Site.Kind)
				}
			},
		},
		{
			"reference has nothing to inject into",
			Selection{
				Strategies: []string{"reference"},
				Models:     fault.Models,
				Rounds:     []int{30},
				Keys:       keys,
				Plaintexts: plaintexts,
			},
			0,
			func(experiments []Experiment) {},
		},
	}

	for _, s := range scenarios {
		t.Run(s.testName, func(t *testing.T) {
			experiments, err := Experiments(s.selection)
			require.NoError(t, err)
			assert.Len(t, experiments, s.expected)
			s.test(experiments)
		})
	}
}

func TestExperimentFault(t *testing.T) {
	e := Experiment{
		Strategy: "counting",
		Site:     fault.Site{Strategy: "counting", Scope: "mix", Point: "next", Kind: fault.Value, Round: 12, Index: 3},
		Model:    fault.Flip,
		Bit:      5,
	}
	assert.Equal(t, "flip@mix.next[12,3]/5", e.Fault())

	e.Model = fault.Nop
	e.Site.Kind = fault.Action
	assert.Equal(t, "nop@mix.next[12,3]", e.Fault())

	// every call is a fresh plan
	assert.NotSame(t, e.Plan(), e.Plan())
}
