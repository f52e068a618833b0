package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	listJSON       bool
	rebuildPattern string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and maintain the metadata index",
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the index records",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := openRuntime()
		if err != nil {
			fatal("Failed to open device", err)
		}
		defer rt.Close()

		records, err := rt.Index.List(context.Background())
		if err != nil {
			fatal("Failed to list index", err)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(records); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d chars\n", r.Path, r.Timestamp, humanize.IBytes(r.SizeBytes), r.VisibleCharCount)
		}
		tw.Flush()
	},
}

var indexUpsertCmd = &cobra.Command{
	Use:   "upsert <path>...",
	Short: "Refresh the records of documents",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := openRuntime()
		if err != nil {
			fatal("Failed to open device", err)
		}
		defer rt.Close()

		for _, path := range args {
			rec, err := rt.Index.Upsert(context.Background(), path)
			if err != nil {
				fatal("Failed to update "+path, err)
			}
			fmt.Printf("%s: %s, %d chars\n", rec.Path, humanize.IBytes(rec.SizeBytes), rec.VisibleCharCount)
		}
	},
}

var indexDeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Remove the record of a document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := openRuntime()
		if err != nil {
			fatal("Failed to open device", err)
		}
		defer rt.Close()

		if err := rt.Index.Delete(context.Background(), args[0]); err != nil {
			fatal("Failed to delete record", err)
		}
		fmt.Printf("Record %s removed.\n", args[0])
	},
}

var indexRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Move a record to a new path",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := openRuntime()
		if err != nil {
			fatal("Failed to open device", err)
		}
		defer rt.Close()

		if err := rt.Index.Rename(context.Background(), args[0], args[1]); err != nil {
			fatal("Failed to rename record", err)
		}
		fmt.Printf("Record %s -> %s.\n", args[0], args[1])
	},
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the documents on storage",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := openRuntime()
		if err != nil {
			fatal("Failed to open device", err)
		}
		defer rt.Close()

		n, err := rt.Index.Rebuild(context.Background(), rebuildPattern)
		if err != nil {
			fatal("Failed to rebuild index", err)
		}
		fmt.Printf("Indexed %d documents.\n", n)
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexListCmd, indexUpsertCmd, indexDeleteCmd, indexRenameCmd, indexRebuildCmd)
	indexListCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	indexRebuildCmd.Flags().StringVar(&rebuildPattern, "pattern", "", "Documents to index (default **/*.txt)")
}
