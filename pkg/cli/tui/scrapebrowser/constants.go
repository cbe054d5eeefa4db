package scrapebrowser

// Mode constants for the scrape browser state machine
const (
	ModeList = iota
	ModeSearch
	ModeSingleConfirm
	ModeBatchConfirm
	ModeEditURL
)

// DefaultWidth is the default terminal width fallback
const DefaultWidth = 80

// TickInterval is how often the list re-renders while work is in flight,
// in milliseconds.
const TickInterval = 400
