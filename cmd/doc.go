// Package cmd implements the command-line interface for inboxbrief.
//
// This package provides the following commands:
//   - serve: Start the HTTP SSE API server and the metrics server
//   - auth: Obtain and store Google OAuth credentials for an account
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
