// Package version contains information on the current version of the
// program. It is split from the main program for easy use.
package version

// Current is the string representing the current version of the vsopc
// toolchain (the CLI driver and the sema/ast/printer packages it drives).
const Current = "0.1.0"

// ServerCurrent is the string representing the current version of the
// vsopd server, versioned independently of the toolchain core.
const ServerCurrent = "0.1.0"
