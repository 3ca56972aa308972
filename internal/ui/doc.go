// Package ui provides terminal output for appd.
//
// # Components Overview
//
//	PhaseDisplay   - Step progress lines for a provisioning run
//	SSHHostPicker  - Bubble Tea list for choosing a host from ~/.ssh/config
//	Tables         - Static tables for `appd hosts`
//	Summary        - The closing "git remote add" message
//
// # Colors
//
// Success lines are green, failures red, the insecure host key warning
// yellow, and timings gray. ConfigureColors turns all of it off for
// --no-color, NO_COLOR, --json and non-terminal output.
package ui
