package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settimeCmd = &cobra.Command{
	Use:   "settime <HH:MM>",
	Short: "Set the real-time clock",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := openRuntime()
		if err != nil {
			fatal("Failed to open device", err)
		}
		defer rt.Close()

		if err := rt.Service.SetTimeFromString(args[0]); err != nil {
			fatal("Failed to set time", err)
		}
		fmt.Printf("Clock set, now %s.\n", rt.Clock.Now().Format("15:04"))
	},
}

func init() {
	rootCmd.AddCommand(settimeCmd)
}
