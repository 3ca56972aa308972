// Package cli implements the appd command-line interface.
//
// Each Cobra command parses its flags into an options struct and hands it
// to a command function. Those functions reach the outside world only
// through the package Env (filesystem, terminal, SSH dialer, prompter), so
// tests drive whole commands against an in-memory SSH config and the mock
// SSH host.
//
// # Command Structure
//
//	appd provision  - Provision a server (prompts for missing values)
//	appd plan       - Print the commands provision would run
//	appd hosts      - List SSH config hosts
//	appd version    - Print version information
//	appd completion - Generate shell completion scripts
//
// # Flag Handling
//
// Global flags (--config, --verbose, --no-color, --json) are defined on the
// root command. Settings from ~/.config/appd/config.yaml and APPD_*
// variables are loaded before any command runs; command flags override them.
//
// # Output
//
// Human output goes to stdout. With --json every command writes a single
// JSONEnvelope to stdout instead, and errors are reported in the same
// envelope. Progress lines move to stderr in that mode.
package cli
