package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-errors/errors"
	"github.com/jesseduffield/hardpresent/pkg/campaign"
	"github.com/jesseduffield/hardpresent/pkg/commands"
	"github.com/jesseduffield/hardpresent/pkg/config"
	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/hardpresent/pkg/hardening"
	"github.com/jesseduffield/hardpresent/pkg/i18n"
	"github.com/jesseduffield/hardpresent/pkg/log"
	"github.com/jesseduffield/hardpresent/pkg/present"
	"github.com/jesseduffield/hardpresent/pkg/shadow"
	"github.com/jesseduffield/hardpresent/pkg/utils"
	"github.com/sirupsen/logrus"
)

// App struct
type App struct {
	Config    *config.AppConfig
	Log       *logrus.Entry
	OSCommand *commands.OSCommand
	Tr        *i18n.TranslationSet

	// Stdout gets ciphertexts and campaign summaries, Stderr gets campaign
	// progress
	Stdout io.Writer
	Stderr io.Writer
}

// NewApp bootstrap a new application
func NewApp(config *config.AppConfig) (*App, error) {
	app := &App{
		Config: config,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	var err error
	app.Log = log.NewLogger(config)
	app.Tr, err = i18n.NewTranslationSetFromConfig(app.Log, config.UserConfig.Language)
	if err != nil {
		app.Tr = i18n.NewTranslationSet(app.Log, "en")
		return app, err
	}
	app.OSCommand = commands.NewOSCommand(app.Log, config)

	if err := config.UserConfig.Validate(); err != nil {
		return app, errors.Errorf("invalid config: %v", err)
	}
	return app, nil
}

// EncryptOptions are the command line's say on a single encryption. Empty
// strategy and policy fall back to the config.
type EncryptOptions struct {
	Strategy  string
	Policy    string
	Inject    string
	Key       string
	Plaintext string
}

func (app *App) output() campaign.Output {
	return campaign.Output{
		ByteFormat: app.Config.UserConfig.Output.ByteFormat,
		Separator:  app.Config.UserConfig.Output.Separator,
	}
}

// Encrypt encrypts one block and returns it formatted for stdout. When the
// strategy detects a fault, the *fault.Fault comes back as the error
// untouched, for the caller to halt on.
func (app *App) Encrypt(opts EncryptOptions) (string, error) {
	if opts.Strategy == "" {
		opts.Strategy = app.Config.UserConfig.Cipher.Strategy
	}
	if opts.Policy == "" {
		opts.Policy = app.Config.UserConfig.Cipher.ShadowPolicy
	}

	policy, err := shadow.ParsePolicy(opts.Policy)
	if err != nil {
		return "", err
	}

	var injector fault.Injector
	var plan *fault.Plan
	if opts.Inject != "" {
		plan, err = fault.ParsePlan(opts.Inject)
		if err != nil {
			return "", err
		}
		injector = plan
	}

	var key present.Key
	decoded, err := utils.DecodeHex(opts.Key, present.KeySize)
	if err != nil {
		return "", errors.Errorf("invalid key: %v", err)
	}
	copy(key[:], decoded)

	var plaintext present.Block
	decoded, err = utils.DecodeHex(opts.Plaintext, present.BlockSize)
	if err != nil {
		return "", errors.Errorf("invalid plaintext: %v", err)
	}
	copy(plaintext[:], decoded)

	strategy, err := hardening.New(opts.Strategy, hardening.Options{Policy: policy, Injector: injector})
	if err != nil {
		return "", err
	}

	app.Log.WithFields(logrus.Fields{
		"strategy": strategy.Name(),
		"policy":   policy.String(),
		"inject":   opts.Inject,
	}).Info("encrypting")

	ciphertext, err := strategy.Encrypt(plaintext, &key)
	if err != nil {
		return "", err
	}
	if plan != nil && !plan.Fired() {
		return "", errors.Errorf("fault plan %q never fired: the %s strategy has no such site", opts.Inject, strategy.Name())
	}
	return app.output().Format(ciphertext), nil
}

// CampaignOptions override the campaign config from the command line. Zero
// values leave the config alone.
type CampaignOptions struct {
	External    bool
	Workers     int
	ResultsFile string
	ReportFile  string
	Diff        bool
	Graph       bool
	// Save writes the campaign settings, overrides included, back to the
	// user's config file
	Save bool
}

func (opts CampaignOptions) apply(config *config.CampaignConfig) {
	if opts.External {
		config.External = true
	}
	if opts.Workers != 0 {
		config.Workers = opts.Workers
	}
	if opts.ResultsFile != "" {
		config.ResultsFile = opts.ResultsFile
	}
	if opts.ReportFile != "" {
		config.ReportFile = opts.ReportFile
	}
	if opts.Diff {
		config.Diff = true
	}
	if opts.Graph {
		config.Graph.Show = true
	}
}

// RunCampaign runs the configured fault campaign and writes out what came of
// it
func (app *App) RunCampaign(ctx context.Context, opts CampaignOptions) error {
	cfg := app.Config.UserConfig.Campaign
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return errors.Errorf("invalid config: %v", err)
	}

	if opts.Save {
		if err := app.Config.WriteToUserConfig(func(userConfig *config.UserConfig) error {
			userConfig.Campaign = cfg
			return nil
		}); err != nil {
			return err
		}
		app.Log.Info(utils.ResolvePlaceholderString(app.Tr.CampaignSaved, map[string]string{"file": app.Config.ConfigFilename()}))
	}

	selection, err := app.selection(cfg)
	if err != nil {
		return err
	}

	output := app.output()
	var runner campaign.Runner = &campaign.InProcess{Output: output, Timeout: cfg.Timeout}
	if cfg.External {
		external := &campaign.External{
			OSCommand: app.OSCommand,
			Command:   cfg.Command,
			Binary:    app.OSCommand.GetHardpresentPath(),
			Timeout:   cfg.Timeout,
		}
		if err := external.Check(); err != nil {
			return err
		}
		runner = external
	}

	c := campaign.NewCampaign(app.Log, app.Tr, selection, runner, output, cfg.Workers)
	c.Progress = app.Stderr
	results, err := c.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Stderr)

	if len(results) == 0 {
		fmt.Fprintln(app.Stdout, app.Tr.NoFaultSites)
		return nil
	}

	if cfg.ResultsFile != "" {
		if err := writeFile(cfg.ResultsFile, func(w io.Writer) error {
			return campaign.WriteCSV(w, results)
		}); err != nil {
			return err
		}
		app.Log.Info(utils.ResolvePlaceholderString(app.Tr.ResultsWritten, map[string]string{"file": cfg.ResultsFile}))
	}

	summary, err := campaign.Summarize(results, cfg.GroupBy)
	if err != nil {
		return err
	}

	table, err := campaign.RenderSummary(app.Tr, summary)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Stdout, table)

	if cfg.Graph.Show {
		caption := cfg.Graph.Caption
		if caption == "" {
			caption = app.Tr.DetectionsPerRound
		}
		fmt.Fprintln(app.Stdout, campaign.RenderGraph(summary, cfg.Graph.Height, caption, cfg.Graph.Color))
	}

	if cfg.Diff {
		if err := campaign.WriteDiffs(app.Stdout, app.Tr, results); err != nil {
			return err
		}
	}

	if cfg.ReportFile != "" {
		report := campaign.NewReport(selection, summary)
		if err := writeFile(cfg.ReportFile, func(w io.Writer) error {
			return campaign.WriteReport(w, report)
		}); err != nil {
			return err
		}
		app.Log.Info(utils.ResolvePlaceholderString(app.Tr.ReportWritten, map[string]string{"file": cfg.ReportFile}))
	}

	return nil
}

func (app *App) selection(cfg config.CampaignConfig) (campaign.Selection, error) {
	policy, err := shadow.ParsePolicy(app.Config.UserConfig.Cipher.ShadowPolicy)
	if err != nil {
		return campaign.Selection{}, err
	}

	models := make([]fault.Model, 0, len(cfg.Models))
	for _, name := range cfg.Models {
		model, err := fault.ParseModel(name)
		if err != nil {
			return campaign.Selection{}, err
		}
		models = append(models, model)
	}

	return campaign.Selection{
		Strategies: cfg.Strategies,
		Policy:     policy,
		Models:     models,
		Rounds:     cfg.Rounds,
		Keys:       cfg.Keys,
		Plaintexts: cfg.Plaintexts,
	}, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return commands.WrapError(file.Close())
}

type errorMapping struct {
	originalError string
	newError      string
	// withDetail appends the original error, for when the friendly message
	// alone does not say what to fix
	withDetail bool
}

// KnownError takes an error and tells us whether it's an error that we know about where we can print a nicely formatted version of it rather than panicking with a stack trace
func (app *App) KnownError(err error) (string, bool) {
	errorMessage := err.Error()

	if commands.HasErrorCode(err, commands.CannotStart) {
		return app.Tr.CannotRunExperiment + ": " + errorMessage, true
	}

	mappings := []errorMapping{
		{
			originalError: "invalid config",
			newError:      app.Tr.InvalidConfig,
			withDetail:    true,
		},
		{
			originalError: "invalid key",
			newError:      app.Tr.InvalidKey,
		},
		{
			originalError: "invalid plaintext",
			newError:      app.Tr.InvalidPlaintext,
		},
		{
			originalError: "unknown strategy",
			newError:      app.Tr.UnknownStrategy,
		},
		{
			originalError: "unknown shadow policy",
			newError:      app.Tr.UnknownPolicy,
		},
		{
			originalError: "fault plan",
			newError:      app.Tr.InvalidFaultPlan,
			withDetail:    true,
		},
	}

	for _, mapping := range mappings {
		if strings.Contains(errorMessage, mapping.originalError) {
			if mapping.withDetail {
				return mapping.newError + "\n" + errorMessage, true
			}
			return mapping.newError, true
		}
	}

	return "", false
}
