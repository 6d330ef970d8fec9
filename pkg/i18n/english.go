package i18n

func englishSet() TranslationSet {
	return TranslationSet{
		ErrorOccurred:       "An error occurred! Please create an issue at https://github.com/jesseduffield/hardpresent/issues",
		InvalidKey:          "The key must be 20 hex characters, e.g. 00010203040506070809",
		InvalidPlaintext:    "The plaintext must be 16 hex characters, e.g. badf00dbadc0ffee",
		UnknownStrategy:     "Unknown strategy. Use counting, shadow or reference",
		UnknownPolicy:       "Unknown shadow policy. Use per-variable or conjunctive",
		InvalidFaultPlan:    "Could not understand the fault plan. It looks like flip@permute.srcBit[30,5]/0",
		InvalidConfig:       "Your config is invalid. Run hardpresent --config to see the defaults",
		CannotRunExperiment: "Could not run experiment",

		CampaignStarting:   "Injecting {{faults}} faults over {{inputs}} inputs ({{runs}} runs)",
		CampaignProgress:   "{{done}}/{{total}} runs",
		CampaignFinished:   "Campaign finished in {{duration}}",
		CampaignCancelled:  "Campaign cancelled after {{done}}/{{total}} runs",
		NoFaultSites:       "No fault sites match the configured models and rounds",
		ResultsWritten:     "Results written to {{file}}",
		ReportWritten:      "Report written to {{file}}",
		CampaignSaved:      "Campaign settings saved to {{file}}",
		DetectionsPerRound: "detections per round",

		OutcomeColumn:  "outcome",
		RunsColumn:     "runs",
		ShareColumn:    "share",
		StrategyColumn: "strategy",

		Detected:  "detected",
		Corrupted: "corrupted",
		Masked:    "masked",
		Crashed:   "crashed",
		TimedOut:  "timeout",

		ExpectedOutput: "expected",
		ActualOutput:   "actual",
	}
}
