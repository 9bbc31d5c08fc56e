// Command engine serves the job search API and queries the record index
// from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Job search engine",
	Long: "engine loads job records from a published spreadsheet, keeps a local snapshot, " +
		"and serves search, picker sessions and option catalogs over HTTP. Without a " +
		"subcommand it runs the server.",
	SilenceUsage: true,
}

var (
	flagDataDir string
	flagConfig  string
	flagOffline bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Data directory (default $"+envDataDirName+" or ./data)")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default <data-dir>/config.yml)")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Use only the stored snapshot, never fetch")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
