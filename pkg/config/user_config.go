package config

import (
	"time"
)

// UserConfig holds all of the user-configurable options. The fields here are all in PascalCase but in your actual config.yml they'll be in camelCase. You can view the default config with `hardpresent --config`. Any key you leave out falls back to its default, but be careful with lists: if you set `campaign.models` to a single model, only that model gets injected
type UserConfig struct {
	// Cipher determines which hardening strategy an encryption runs under
	Cipher CipherConfig `yaml:"cipher,omitempty"`

	// Output determines how the ciphertext is printed
	Output OutputConfig `yaml:"output,omitempty"`

	// Campaign determines what a fault campaign injects, over which inputs, and where the results go
	Campaign CampaignConfig `yaml:"campaign,omitempty"`

	// Language is the language of messages and reports. 'auto' picks it up from your environment
	Language string `yaml:"language,omitempty"`
}

// CipherConfig picks the strategy
type CipherConfig struct {
	// Strategy is one of counting, shadow or reference. Reference runs the cipher without any countermeasure and is only really useful as a baseline
	Strategy string `yaml:"strategy,omitempty"`

	// ShadowPolicy is either per-variable, where any shadow that disagrees with its primary halts the cipher, or conjunctive, where a group of shadows is only fatal if every one of them disagrees. Conjunctive is what the first hardened implementations did and it misses single-variable faults
	ShadowPolicy string `yaml:"shadowPolicy,omitempty"`
}

// OutputConfig determines how bytes are printed
type OutputConfig struct {
	// ByteFormat is the fmt verb each byte of the ciphertext is printed with
	ByteFormat string `yaml:"byteFormat,omitempty"`

	// Separator follows every byte, including the last one
	Separator string `yaml:"separator,omitempty"`
}

// CampaignConfig describes a fault campaign. Every fault site of a clean run is enumerated, and each fault model that applies to the site is injected once for every key and plaintext
type CampaignConfig struct {
	// Strategies are the hardened strategies under test
	Strategies []string `yaml:"strategies,omitempty"`

	// Keys are 20 hex characters each
	Keys []string `yaml:"keys,omitempty" hex:"10"`

	// Plaintexts are 16 hex characters each
	Plaintexts []string `yaml:"plaintexts,omitempty" hex:"8"`

	// Models are the fault models to inject: nop, flip, zero, bound+ and bound-
	Models []string `yaml:"models,omitempty"`

	// Rounds restricts in-round fault sites to these rounds (0 to 30). Sites outside the round loop are always kept. A full campaign over every round takes a while, so by default we only look at the last round
	Rounds []int `yaml:"rounds,omitempty"`

	// Workers is how many experiments run at once
	Workers int `yaml:"workers,omitempty"`

	// Timeout is how long a single experiment may take before it counts as timed out. External runs are killed, in-process runs are abandoned
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// ResultsFile is where every experiment is written to as a row of csv
	ResultsFile string `yaml:"resultsFile,omitempty"`

	// ReportFile is where the yaml summary goes. Leave empty to skip it
	ReportFile string `yaml:"reportFile,omitempty"`

	// GroupBy is the field path the second summary table is grouped by, e.g. Site.Scope, Site.Point, Model or Strategy
	GroupBy string `yaml:"groupBy,omitempty"`

	// Graph plots detections per round below the summary
	Graph GraphConfig `yaml:"graph,omitempty"`

	// Diff prints a diff of the expected and actual output of every corrupted run
	Diff bool `yaml:"diff,omitempty"`

	// External runs each experiment as its own process using Command, the way a binary fault injector would
	External bool `yaml:"external,omitempty"`

	// Command is the go template an external experiment runs. You can use {{ .Binary }}, {{ .Strategy }}, {{ .Policy }}, {{ .Fault }}, {{ .Key }} and {{ .Plaintext }}
	Command string `yaml:"command,omitempty"`
}

// GraphConfig is for the per-round detection graph
type GraphConfig struct {
	// Show turns the graph on
	Show bool `yaml:"show,omitempty"`

	// Height is the height of the graph in lines
	Height int `yaml:"height,omitempty"`

	// Caption goes under the graph
	Caption string `yaml:"caption,omitempty"`

	// Color is one of black, red, green, yellow, blue, magenta, cyan or white
	Color string `yaml:"color,omitempty"`
}

// GetDefaultConfig returns the application default configuration
// NOTE (to contributors, not users): do not default a boolean to true, because false is the boolean zero value and this will be ignored when parsing the user's config
func GetDefaultConfig() UserConfig {
	return UserConfig{
		Cipher: CipherConfig{
			Strategy:     "counting",
			ShadowPolicy: "per-variable",
		},
		Output: OutputConfig{
			ByteFormat: "0x%02x",
			Separator:  " ",
		},
		Campaign: CampaignConfig{
			Strategies: []string{"counting", "shadow"},
			Keys: []string{
				"00010203040506070809",
				"01234567890987654321",
				"deadbeafdeadc0debabe",
			},
			Plaintexts: []string{
				"badf00dbadc0ffee",
				"deadbeafbabec0de",
				"1ceb00dab105f00d",
			},
			Models:      []string{"nop", "flip", "zero", "bound+", "bound-"},
			Rounds:      []int{30},
			Workers:     8,
			Timeout:     3 * time.Second,
			ResultsFile: "results.csv",
			ReportFile:  "",
			GroupBy:     "Site.Scope",
			Graph: GraphConfig{
				Show:    false,
				Height:  10,
				Caption: "detections per round",
				Color:   "green",
			},
			Diff:     false,
			External: false,
			Command:  "{{ .Binary }} --strategy {{ .Strategy }} --policy {{ .Policy }} --inject {{ .Fault }} {{ .Key }} {{ .Plaintext }}",
		},
		Language: "auto",
	}
}
