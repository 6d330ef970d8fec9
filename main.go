package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/go-errors/errors"
	"github.com/integrii/flaggy"
	"github.com/jesseduffield/hardpresent/pkg/app"
	"github.com/jesseduffield/hardpresent/pkg/config"
	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/yaml"
)

var (
	commit      string
	version     = "unversioned"
	date        string
	buildSource = "unknown"

	configFlag    = false
	debuggingFlag = false

	encryptOpts  app.EncryptOptions
	campaignOpts app.CampaignOptions
)

func main() {
	info := fmt.Sprintf(
		"%s\nDate: %s\nBuildSource: %s\nCommit: %s\nOS: %s\nArch: %s",
		version,
		date,
		buildSource,
		commit,
		runtime.GOOS,
		runtime.GOARCH,
	)

	flaggy.SetName("hardpresent")
	flaggy.SetDescription("PRESENT-80 with fault countermeasures")
	flaggy.DefaultParser.AdditionalHelpPrepend = "https://github.com/jesseduffield/hardpresent"

	flaggy.Bool(&configFlag, "c", "config", "Print the current default config")
	flaggy.Bool(&debuggingFlag, "d", "debug", "a boolean")
	flaggy.String(&encryptOpts.Strategy, "s", "strategy", "Hardening strategy: counting, shadow or reference")
	flaggy.String(&encryptOpts.Policy, "p", "policy", "Shadow policy: per-variable or conjunctive")
	flaggy.String(&encryptOpts.Inject, "i", "inject", "Inject a single fault, e.g. flip@permute.srcBit[30,5]/0")
	flaggy.AddPositionalValue(&encryptOpts.Key, "KEY", 1, false, "80-bit key as 20 hex characters")
	flaggy.AddPositionalValue(&encryptOpts.Plaintext, "PLAINTEXT", 2, false, "64-bit block as 16 hex characters")

	campaignCmd := flaggy.NewSubcommand("campaign")
	campaignCmd.Description = "Inject every single fault into the hardened strategies and tally the outcomes"
	campaignCmd.Bool(&campaignOpts.External, "e", "external", "Run each experiment as its own process")
	campaignCmd.Int(&campaignOpts.Workers, "j", "workers", "How many experiments run at once")
	campaignCmd.String(&campaignOpts.ResultsFile, "o", "output", "Where the results csv goes")
	campaignCmd.String(&campaignOpts.ReportFile, "r", "report", "Where the yaml report goes")
	campaignCmd.Bool(&campaignOpts.Diff, "", "diff", "Diff expected and actual output of corrupted runs")
	campaignCmd.Bool(&campaignOpts.Graph, "g", "graph", "Plot detections per round")
	campaignCmd.Bool(&campaignOpts.Save, "", "save", "Save these campaign settings to the config file")
	flaggy.AttachSubcommand(campaignCmd, 1)

	flaggy.SetVersion(info)

	flaggy.Parse()

	if configFlag {
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		err := encoder.Encode(config.GetDefaultConfig())
		if err != nil {
			log.Fatal(err.Error())
		}
		fmt.Printf("%v\n", buf.String())
		os.Exit(0)
	}

	if !campaignCmd.Used && (encryptOpts.Key == "" || encryptOpts.Plaintext == "") {
		fmt.Fprintln(os.Stderr, "ERROR: Wrong number of arguments")
		os.Exit(-1)
	}

	appConfig, err := config.NewAppConfig("hardpresent", version, commit, date, buildSource, debuggingFlag)
	if err != nil {
		log.Fatal(err.Error())
	}

	app, err := app.NewApp(appConfig)
	if err == nil {
		if campaignCmd.Used {
			err = runCampaign(app)
		} else {
			err = encrypt(app)
		}
	}

	if err != nil {
		if f, ok := fault.As(err); ok {
			app.Log.WithField("fault", f.Error()).Error("halting")
			fault.NewHandler(os.Stderr).Halt(f)
		}

		if errMessage, known := app.KnownError(err); known {
			log.Println(errMessage)
			os.Exit(1)
		}

		newErr := errors.Wrap(err, 0)
		stackTrace := newErr.ErrorStack()
		app.Log.Error(stackTrace)

		log.Fatal(fmt.Sprintf("%s\n\n%s", app.Tr.ErrorOccurred, stackTrace))
	}
}

func encrypt(app *app.App) error {
	out, err := app.Encrypt(encryptOpts)
	if err != nil {
		return err
	}
	fmt.Fprint(app.Stdout, out)
	return nil
}

func runCampaign(app *app.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.RunCampaign(ctx, campaignOpts)
}
