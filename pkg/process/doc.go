// Package process starts external programs from an explicit argument vector and exposes
// their standard output and standard error as a single stream.
//
// No shell is involved: the program name and its arguments are passed as they are, so
// paths containing spaces or shell metacharacters need no quoting.
package process
