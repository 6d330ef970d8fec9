package i18n

func polishSet() TranslationSet {
	return TranslationSet{
		ErrorOccurred:       "Wystąpił błąd! Zgłoś go na https://github.com/jesseduffield/hardpresent/issues",
		InvalidKey:          "Klucz musi mieć 20 znaków szesnastkowych, np. 00010203040506070809",
		InvalidPlaintext:    "Tekst jawny musi mieć 16 znaków szesnastkowych, np. badf00dbadc0ffee",
		UnknownStrategy:     "Nieznana strategia. Użyj counting, shadow lub reference",
		UnknownPolicy:       "Nieznana polityka cieni. Użyj per-variable lub conjunctive",
		InvalidFaultPlan:    "Nie rozumiem planu błędu. Powinien wyglądać jak flip@permute.srcBit[30,5]/0",
		InvalidConfig:       "Konfiguracja jest nieprawidłowa. Uruchom hardpresent --config, aby zobaczyć domyślną",
		CannotRunExperiment: "Nie udało się uruchomić eksperymentu",

		CampaignStarting:  "Wstrzykiwanie {{faults}} błędów dla {{inputs}} wejść ({{runs}} uruchomień)",
		CampaignProgress:  "{{done}}/{{total}} uruchomień",
		CampaignFinished:  "Kampania zakończona w {{duration}}",
		CampaignCancelled: "Kampania przerwana po {{done}}/{{total}} uruchomieniach",
		NoFaultSites:      "Żadne miejsce nie pasuje do wybranych modeli i rund",
		ResultsWritten:    "Wyniki zapisano w {{file}}",
		ReportWritten:     "Raport zapisano w {{file}}",
		CampaignSaved:     "Ustawienia kampanii zapisano w {{file}}",

		DetectionsPerRound: "wykrycia na rundę",

		OutcomeColumn:  "wynik",
		RunsColumn:     "uruchomienia",
		ShareColumn:    "udział",
		StrategyColumn: "strategia",

		Detected:  "wykryto",
		Corrupted: "uszkodzono",
		Masked:    "zamaskowano",
		Crashed:   "awaria",
		TimedOut:  "przekroczono czas",

		ExpectedOutput: "oczekiwane",
		ActualOutput:   "otrzymane",
	}
}
