// Package cmd implements the salesdesk CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "salesdesk",
	Short: "Sales ERP backend with an AI chat assistant",
	Long: `Salesdesk is the HTTP backend of a sales ERP. It serves CRUD
endpoints for products, categories, customers, and orders, and a
POST /chat endpoint where an AI assistant answers questions using
read-only tools against the database.

Running salesdesk without a subcommand starts the server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
