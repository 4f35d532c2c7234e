package cmd

import (
	"github.com/spf13/cobra"

	"github.com/casefind/casefind/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize casefind configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure casefind and generates a .casefind.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
