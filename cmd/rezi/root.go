package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	debug   bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "rezi",
	Short: "Run and replay the rezi terminal UI reference pipeline",
	Long:  "rezi drives the retained-mode render pipeline against a real terminal (render) or a captured repro bundle (replay).",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug breadcrumb logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose progress output")
}

// errorf prints a colored error line to stderr, the same "Error:" prefix
// convention as the teacher's cmd package.
func errorf(format string, args ...interface{}) {
	os.Stderr.WriteString(color.RedString("Error: ") + fmt.Sprintf(format, args...) + "\n")
}

// breadcrumbLogger returns a Debug-level slog.Logger writing to stderr
// when --debug is set, or nil (breadcrumbs disabled) otherwise.
func breadcrumbLogger() *slog.Logger {
	if !debug {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func infof(format string, args ...interface{}) {
	if verbose {
		os.Stdout.WriteString(color.CyanString("Info: ") + fmt.Sprintf(format, args...) + "\n")
	}
}
