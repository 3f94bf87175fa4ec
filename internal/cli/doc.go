// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates flags into the application's configuration and runs one of the
// eval, find, serve or remote commands.
package cli
