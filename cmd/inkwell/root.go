package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/inkwell"
	"github.com/aretw0/inkwell/pkg/adapters/fs"
)

var (
	verbose     bool
	rootPath    string
	profilePath string
	sessionPath string
	unsafeRoot  bool

	profile  Profile
	logLevel = new(slog.LevelVar)
	logFile  *os.File
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Runtime of a pocket e-ink writing device",
	Long: `inkwell runs the device lifecycle of a pocket writing computer on a host:
documents on a storage directory standing in for the card, a metadata index,
settings in SQLite, idle and battery driven sleep and session restore.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		profile, err = LoadProfile(profilePath)
		if err != nil {
			return err
		}

		logLevel.Set(slog.LevelInfo)
		if verbose {
			logLevel.Set(slog.LevelDebug)
		}

		cfg := inkwell.LogConfig{Level: logLevel, Terminal: os.Stderr, Journal: true}
		if dir := systemDirPath(); dir != "" {
			if f, err := os.OpenFile(filepath.Join(dir, "inkwell.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
				logFile = f
				cfg.File = f
			}
		}
		slog.SetDefault(inkwell.NewLogger(cfg))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&rootPath, "root", "", "Storage root (defaults to the profile, then the nearest .inkwell directory)")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "YAML device profile")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", "", "Session database file")
	rootCmd.PersistentFlags().BoolVar(&unsafeRoot, "unsafe", false, "Use the real storage root even under go run")
}

// resolveRoot picks the storage root: flag, profile, nearest marked
// directory, working directory.
func resolveRoot() string {
	if rootPath != "" {
		return rootPath
	}
	if profile.Root != "" {
		return profile.Root
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	if found, err := inkwell.FindRoot(wd); err == nil {
		return found
	}
	return wd
}

// systemDirPath returns the system directory of the root when it exists.
func systemDirPath() string {
	name := profile.SystemDir
	if name == "" {
		name = fs.DefaultSystemDir
	}
	root := inkwell.ResolveRoot(resolveRoot(), inkwell.IsDevRun() && !unsafeRoot)
	dir := filepath.Join(root, name)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}

// openRuntime wires a runtime from the flags and the profile.
func openRuntime(extra ...inkwell.Option) (*inkwell.Runtime, error) {
	opts := []inkwell.Option{
		inkwell.WithLogger(slog.Default()),
		inkwell.WithDevSafety(!unsafeRoot),
		inkwell.WithMustExist(profile.MustExist),
		inkwell.WithPowerOptions(profile.PowerOptions()...),
	}
	if profile.SystemDir != "" {
		opts = append(opts, inkwell.WithSystemDir(profile.SystemDir))
	}
	if profile.Display.Width > 0 {
		opts = append(opts, inkwell.WithDisplayWidth(profile.Display.Width))
	}
	session := sessionPath
	if session == "" {
		session = profile.SessionPath
	}
	if session != "" {
		opts = append(opts, inkwell.WithSessionPath(session))
	}
	return inkwell.New(resolveRoot(), append(opts, extra...)...)
}
