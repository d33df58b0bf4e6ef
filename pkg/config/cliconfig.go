package config

// CliConfig holds the options settable from flags or environment
// variables, as opposed to the JSON configuration file.
type CliConfig struct {
	Config        string `default:"vuegraf.json"`
	HistoryDays   int    `default:"0"`
	ResetDatabase bool   `default:"false"`
	LogLevel      string `default:"info"`
}

// maxHistoryDays bounds a backfill request to keep the number of API
// calls sane.
const maxHistoryDays = 720

// CappedHistoryDays returns the requested backfill length, limited to
// the supported maximum.
func (c *CliConfig) CappedHistoryDays() int {
	if c.HistoryDays > maxHistoryDays {
		return maxHistoryDays
	}
	return c.HistoryDays
}
