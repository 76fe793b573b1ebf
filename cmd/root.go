package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alanhabib/elmify-backend-sub000/server"
)

var rootCmd = &cobra.Command{
	Use:   "elmify",
	Short: "elmify delivers long-form lecture audio with batched playlist manifests.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
