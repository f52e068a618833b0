package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Show what the device would restore on boot",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := openRuntime()
		if err != nil {
			fatal("Failed to open device", err)
		}
		defer rt.Close()

		sess, err := rt.Manager.Boot(context.Background())
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
		fmt.Printf("mode: %s\n", sess.Mode)
		if sess.EditingPath != "" {
			fmt.Printf("path: %s\n", sess.EditingPath)
		}
	},
}

func init() {
	rootCmd.AddCommand(bootCmd)
}
