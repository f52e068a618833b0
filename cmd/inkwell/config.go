package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/inkwell/pkg/core"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change the stored settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting, or all of them",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		keys := core.KnownKeys()
		if len(args) == 1 {
			spec, ok := core.LookupKey(args[0])
			if !ok {
				fatal("Unknown key", fmt.Errorf("%q", args[0]))
			}
			keys = []core.KeySpec{spec}
		}

		rt, err := openRuntime()
		if err != nil {
			fatal("Failed to open device", err)
		}
		defer rt.Close()

		err = rt.Store.View(context.Background(), func(tx core.SessionReader) error {
			for _, k := range keys {
				fmt.Printf("%s=%s\n", k.Key, readValue(tx, k))
			}
			return nil
		})
		if err != nil {
			fatal("Failed to read settings", err)
		}
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		spec, ok := core.LookupKey(args[0])
		if !ok {
			fatal("Unknown key", fmt.Errorf("%q", args[0]))
		}

		rt, err := openRuntime()
		if err != nil {
			fatal("Failed to open device", err)
		}
		defer rt.Close()

		put, err := writeValue(spec, args[1])
		if err != nil {
			fatal("Invalid value", err)
		}
		if err := rt.Store.Update(context.Background(), put); err != nil {
			fatal("Failed to store setting", err)
		}
		fmt.Printf("%s=%s\n", spec.Key, args[1])
	},
}

func readValue(tx core.SessionReader, k core.KeySpec) string {
	switch k.Kind {
	case core.KindInt:
		def, _ := strconv.Atoi(k.Default)
		return strconv.Itoa(tx.Int(k.Key, def))
	case core.KindBool:
		def, _ := strconv.ParseBool(k.Default)
		return strconv.FormatBool(tx.Bool(k.Key, def))
	}
	return tx.String(k.Key, k.Default)
}

// writeValue parses value by the kind of the key. Parsing happens before
// the write transaction is opened.
func writeValue(k core.KeySpec, value string) (func(core.SessionWriter) error, error) {
	switch k.Kind {
	case core.KindInt:
		v, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer: %w", k.Key, err)
		}
		if k.Key == core.KeyLastApplicationMode && !core.AppMode(v).Valid() {
			return nil, fmt.Errorf("%s: unknown app mode %d", k.Key, v)
		}
		return func(tx core.SessionWriter) error { return tx.PutInt(k.Key, v) }, nil
	case core.KindBool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false: %w", k.Key, err)
		}
		return func(tx core.SessionWriter) error { return tx.PutBool(k.Key, v) }, nil
	}
	return func(tx core.SessionWriter) error { return tx.PutString(k.Key, value) }, nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd, configSetCmd)
}
