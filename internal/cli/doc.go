// Package cli builds the specctl command tree, validates user input, and
// handles process-level concerns like exit codes. It translates flags into
// the application's configuration and each command into an App operation.
package cli
