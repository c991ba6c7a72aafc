// Package cli parses command-line arguments and the optional config file
// into an app.Config. Flags set on the command line win over the file.
package cli
