package i18n

// TranslationSet is a set of localised strings for a given language
type TranslationSet struct {
	ErrorOccurred       string
	InvalidKey          string
	InvalidPlaintext    string
	UnknownStrategy     string
	UnknownPolicy       string
	InvalidFaultPlan    string
	InvalidConfig       string
	CannotRunExperiment string

	CampaignStarting   string
	CampaignProgress   string
	CampaignFinished   string
	CampaignCancelled  string
	NoFaultSites       string
	ResultsWritten     string
	ReportWritten      string
	CampaignSaved      string
	DetectionsPerRound string

	OutcomeColumn  string
	RunsColumn     string
	ShareColumn    string
	StrategyColumn string

	Detected  string
	Corrupted string
	Masked    string
	Crashed   string
	TimedOut  string

	ExpectedOutput string
	ActualOutput   string
}
