package cmd

import (
	"github.com/spf13/cobra"

	"github.com/emrgen/legaldoc/internal/config"
	"github.com/emrgen/legaldoc/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the legaldoc server",
	Run: func(cmd *cobra.Command, args []string) {
		cnf := config.LoadConfig()
		server.NewServer(cnf.HTTPPort).Start()
	},
}
