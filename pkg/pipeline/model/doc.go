// Package model holds the data shared by the pipeline engine and its options:
// the description of a stage, the files it exchanges and the hooks an option implements.
package model
