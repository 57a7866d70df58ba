package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"amazobank.com/crm/config"
)

var rootCmd = &cobra.Command{
	Use:   "crmapi",
	Short: "CRM user administration API",
	Long: `crmapi serves the user administration API of the CRM. Every user route
requires a verified identity token whose role grants admin portal access.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.InitGlobalConfig()
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
