package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Step completed successfully
	SymbolFail     = "✗" // Step failed
	SymbolPending  = "○" // Not usable / not yet started
	SymbolProgress = "◐" // Step in progress
	SymbolComplete = "●" // Step done
	SymbolWarning  = "!" // Needs attention
)
