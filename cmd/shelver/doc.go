// Package main hosts the shelver CLI entrypoint and command graph.
//
// The Cobra command tree covers one-shot imports from the inbox, library
// reorganization from the catalog, transfer history, the foreground watch
// daemon, and configuration scaffolding. Configuration, logging and catalog
// access are resolved once in commandContext so subcommands only render
// results.
package main
