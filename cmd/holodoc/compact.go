package main

import (
	"fmt"

	"github.com/holodoc/holodoc"
	"github.com/spf13/cobra"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Force an immediate datafile compaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDataPath(); err != nil {
			return err
		}
		col, err := holodoc.Open(dataPath)
		if err != nil {
			return err
		}
		defer col.Close()

		if err := col.CompactDatafile(); err != nil {
			return err
		}
		fmt.Println("compaction complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compactCmd)
}
