package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dsn string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "plateful-admin",
	Short: "Offline administration tool for the Plateful backend",
	Long: `plateful-admin runs administrative tasks against the Plateful database
outside the API server, such as bulk-loading the ingredient catalog
from a CSV reference file.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "db", "", "Database connection string (defaults to the server's environment)")
}
