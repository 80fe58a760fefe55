package main

import (
	"fmt"

	"github.com/holodoc/holodoc"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print document and index counts for a collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDataPath(); err != nil {
			return err
		}
		col, err := holodoc.Open(dataPath, holodoc.WithoutTTLExpiry())
		if err != nil {
			return err
		}
		defer col.Close()

		st := col.Stats()
		fmt.Printf("collection: %s\n", st.Name)
		fmt.Printf("documents:  %d\n", st.DocCount)
		fmt.Printf("indexes:    %d\n", st.IndexCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
