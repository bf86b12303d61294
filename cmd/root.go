// Package cmd contains the vault CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vault",
	Short: "Interview Vault career assistant",
	Long: `Interview Vault's conversational career assistant.

Ask career questions grounded in your job applications and resume.
The assistant retrieves your own data, searches the web and job
platforms when needed, and can run salary analysis and company
comparisons.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
