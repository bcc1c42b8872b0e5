package httpapi

// Config defines HTTP API settings.
type Config struct {
	Addr     string
	BaseURL  string
	BasePath string
	// HistorySize bounds the per-tab event history kept for stream replay.
	HistorySize int
}
