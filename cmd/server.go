package cmd

import (
	"github.com/spf13/cobra"

	"github.com/alanhabib/elmify-backend-sub000/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the elmify HTTP server",
	Long:  `Runs the audio range proxy and the playlist manifest API.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
