package campaign

import (
	"github.com/go-errors/errors"
	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/hardpresent/pkg/hardening"
	"github.com/jesseduffield/hardpresent/pkg/present"
	"github.com/jesseduffield/hardpresent/pkg/shadow"
	"github.com/samber/lo"
)

// Experiment is one fault injected into one encryption
type Experiment struct {
	Strategy  string
	Policy    shadow.Policy
	Site      fault.Site
	Model     fault.Model
	Bit       int
	Key       string
	Plaintext string
}

// Plan is a fresh injector for the experiment. Plans fire once, so every run
// needs its own.
func (e Experiment) Plan() *fault.Plan {
	return fault.PlanAt(e.Site, e.Model, e.Bit)
}

// Fault is the textual plan, as passed to --inject
func (e Experiment) Fault() string {
	return e.Plan().String()
}

// Sites lists every fault site a clean run of strategy passes, in the order
// they are passed. Where the sites are does not depend on the key or the
// plaintext, so an all-zero encryption is enough to find them.
func Sites(strategy string, policy shadow.Policy) ([]fault.Site, error) {
	recorder := fault.NewRecorder()
	s, err := hardening.New(strategy, hardening.Options{Policy: policy, Injector: recorder})
	if err != nil {
		return nil, err
	}

	var key present.Key
	if _, err := s.Encrypt(present.Block{}, &key); err != nil {
		return nil, errors.Errorf("clean %s run failed: %v", strategy, err)
	}

	return lo.Uniq(recorder.Sites), nil
}

// Selection says which experiments a campaign runs
type Selection struct {
	Strategies []string
	Policy     shadow.Policy
	Models     []fault.Model
	// Rounds keeps in-round sites of these rounds only. Sites outside the
	// round loop are always kept.
	Rounds     []int
	Keys       []string
	Plaintexts []string
}

// Experiments expands a selection into every single-fault experiment: each
// model on each site it applies to, every bit for a flip, for every key and
// plaintext
func Experiments(selection Selection) ([]Experiment, error) {
	experiments := []Experiment{}

	for _, strategy := range selection.Strategies {
		sites, err := Sites(strategy, selection.Policy)
		if err != nil {
			return nil, err
		}

		sites = lo.Filter(sites, func(site fault.Site, _ int) bool {
			return site.Round < 0 || lo.Contains(selection.Rounds, site.Round)
		})

		for _, model := range selection.Models {
			for _, site := range sites {
				if site.Kind != model.Targets() {
					continue
				}

				bits := []int{0}
				if model == fault.Flip {
					bits = lo.Range(fault.ValueBits)
				}

				for _, bit := range bits {
					for _, key := range selection.Keys {
						for _, plaintext := range selection.Plaintexts {
							experiments = append(experiments, Experiment{
								Strategy:  strategy,
								Policy:    selection.Policy,
								Site:      site,
								Model:     model,
								Bit:       bit,
								Key:       key,
								Plaintext: plaintext,
							})
						}
					}
				}
			}
		}
	}

	return experiments, nil
}
