package cmd

import (
	"github.com/spf13/cobra"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Secrets store commands",
	Long:  "Initialize, list and rotate the file-based secrets used by the stack",
}

func init() {
	rootCmd.AddCommand(secretsCmd)
}
