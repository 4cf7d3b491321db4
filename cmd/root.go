package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "legaldoc",
	Short: "legal document versioning tool",
	Example: `legaldoc serve
legaldoc create -t policy -T <title> -c <content> -e <date>
legaldoc current -t policy
legaldoc history -t policy -r
legaldoc revise -d <version-id> -T <title> -c <content> -e <date>
legaldoc activate -d <version-id>
legaldoc delete -d <version-id>`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
