// Package cli parses command-line arguments, loads configuration, and runs
// the fetch and serve commands. It owns process-level concerns such as the
// exit code and where diagnostics are written.
package cli
