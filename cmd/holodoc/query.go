package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/holodoc/holodoc"
	"github.com/spf13/cobra"
)

var queryLimit int

var queryCmd = &cobra.Command{
	Use:   "query <json-filter>",
	Short: "Run a MongoDB-style filter against a collection and print matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDataPath(); err != nil {
			return err
		}
		var filter map[string]any
		if err := json.Unmarshal([]byte(args[0]), &filter); err != nil {
			return fmt.Errorf("parse filter: %w", err)
		}

		col, err := holodoc.Open(dataPath)
		if err != nil {
			return err
		}
		defer col.Close()

		cur, err := col.Find(filter)
		if err != nil {
			return err
		}
		if queryLimit > 0 {
			cur = cur.Limit(queryLimit)
		}
		docs, err := cur.Exec()
		if err != nil {
			return err
		}
		for _, d := range docs {
			b, err := json.Marshal(d)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "maximum number of documents to print (0 = unlimited)")
	rootCmd.AddCommand(queryCmd)
}
