// Package main provides the CLI entry point for emad, the EverMemoryArchive
// actor runtime.
//
// emad mediates between end-user input and an LLM backend: each actor is a
// long-lived, per-(user, actor) agent that ingests batched input, drives a
// tool-using LLM loop, and emits streaming lifecycle events over an
// HTTP/SSE relay.
//
// # Basic Usage
//
// Start the server:
//
//	emad serve --config emad.yaml
//
// Apply database migrations:
//
//	emad migrate --config emad.yaml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// logWriter is where the process-wide logger writes. A package variable
// rather than a literal os.Stderr reference only so tests can redirect it.
var logWriter = os.Stderr

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "emad",
		Short:        "emad - conversational actor runtime",
		Long:         "emad mediates between end-user input and an LLM backend, driving a tool-using conversation loop per actor with automatic context summarization.",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		buildServeCmd(),
		buildMigrateCmd(),
	)
	return rootCmd
}
