// Package main hosts the optflow CLI entrypoint and command graph.
//
// The Cobra command tree edits fragments through the template codec, keeps the
// fragment directory ordered through the registry, and runs the pipeline over
// the configured source document. Configuration resolution, flag overrides and
// logger setup live in commandContext so subcommands only deal with their own
// behaviour.
package main
