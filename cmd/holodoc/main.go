// Command holodoc is a small CLI over a holodoc collection, grounded on
// sfncore-beads' cmd/bd layout: one package-level *cobra.Command per
// subcommand, registered onto rootCmd from each file's init().
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "holodoc",
	Short: "Inspect and manage a holodoc collection datafile",
}

var dataPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "path to the collection datafile (required)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func requireDataPath() error {
	if dataPath == "" {
		return fmt.Errorf("--data is required")
	}
	return nil
}
