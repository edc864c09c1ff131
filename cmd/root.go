// Package cmd implements the vitaldesk command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vitaldesk",
	Short: "VitalDesk - health and fitness assistant server",
	Long: `VitalDesk is a chat-driven health and fitness assistant.

It serves an HTTP API backed by an LLM provider, optionally augments
answers with retrieved document context from a pgvector index, and can
create appointment, prescription, fitness plan, and meal plan records
on behalf of the conversation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
