// Package main provides the semerge CLI: a thin cobra front-end over the
// driver package's three-way semistructured merge pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alicezbo/jFSTMerge/config"
	"github.com/alicezbo/jFSTMerge/driver"
	"github.com/alicezbo/jFSTMerge/mergectx"
)

// Version is the current semerge CLI version.
var Version = "0.1.0"

// Exit codes, per SPEC_FULL.md §6. exitFatal (2) replaces the historical
// jFSTMerge "-1" with a small positive code distinct from exitConflicts,
// since shells mask negative exit codes to 256-n anyway. --posix-exit-codes
// restores the literal two's-complement -1 -> 255 behavior for callers that
// depend on it.
const (
	exitClean     = 0
	exitConflicts = 1
	exitFatal     = 2
)

var (
	configPath string
	posixExit  bool
)

var rootCmd = &cobra.Command{
	Use:     "semerge",
	Short:   "semerge - three-way semistructured merge",
	Long:    `semerge performs three-way semistructured merge of curly-brace source files, superimposing declaration trees and merging bodies as opaque text where the structure alone can't resolve an edit.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to an optional YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&posixExit, "posix-exit-codes", false, "map fatal failures to exit 255 instead of 2")

	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(mergeDirCmd)
	rootCmd.AddCommand(mergeRevisionsCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge <left> <base> <right>",
	Short: "merge three revisions of a single file",
	Args:  cobra.ExactArgs(3),
	RunE:  runMerge,
}

var outputPath string

func init() {
	mergeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the merged result here instead of stdout")
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}

	left, right := readOrEmpty(args[0]), readOrEmpty(args[2])
	base := readOrEmpty(args[1])

	ctx, err := driver.MergeFiles(left, base, right, args[0], cfg)
	if err != nil {
		return fail(err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, ctx.Output, 0o644); err != nil {
			return fail(fmt.Errorf("writing output: %w", err))
		}
	} else {
		os.Stdout.Write(ctx.Output)
	}

	return exitFor(cmd, ctx.HasConflicts())
}

var mergeDirCmd = &cobra.Command{
	Use:   "merge-dir <left-dir> <base-dir> <right-dir>",
	Short: "merge three revisions of a directory tree, pairing files by relative path",
	Args:  cobra.ExactArgs(3),
	RunE:  runMergeDir,
}

func runMergeDir(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}

	results, err := driver.MergeDirectories(args[0], args[1], args[2], cfg)
	if err != nil {
		return fail(err)
	}

	return reportDirectoryResults(cmd, results)
}

var mergeRevisionsCmd = &cobra.Command{
	Use:   "merge-revisions <revisions-file>",
	Short: "merge the three directories listed in a revisions file",
	Args:  cobra.ExactArgs(1),
	RunE:  runMergeRevisions,
}

func runMergeRevisions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}

	results, err := driver.MergeRevisions(args[0], cfg)
	if err != nil {
		return fail(err)
	}

	return reportDirectoryResults(cmd, results)
}

func reportDirectoryResults(cmd *cobra.Command, results []*mergectx.Context) error {
	anyConflict := false
	for _, ctx := range results {
		if ctx == nil {
			continue
		}
		if ctx.HasConflicts() {
			anyConflict = true
			fmt.Fprintf(os.Stderr, "conflict: %s\n", ctx.Path)
		}
		if len(ctx.Output) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "--- %s\n", ctx.Path)
			cmd.OutOrStdout().Write(ctx.Output)
		}
	}
	return exitFor(cmd, anyConflict)
}

func loadConfig() (config.Configuration, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Configuration{}, err
	}
	cfg.PosixExitCodes = posixExit
	return cfg, nil
}

func readOrEmpty(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}

// exitFor sets the process exit status for a completed merge: exitClean if
// no conflict markers were emitted, exitConflicts otherwise. It never
// returns an error itself: conflicts are a state, not a failure.
func exitFor(cmd *cobra.Command, hasConflicts bool) error {
	if hasConflicts {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		exitProcess(exitConflicts)
	}
	return nil
}

// fail reports a fatal InputError/TextualMergeError. It never returns to
// the caller.
func fail(err error) error {
	fmt.Fprintln(os.Stderr, err)
	code := exitFatal
	if posixExit {
		code = 255
	}
	exitProcess(code)
	return nil
}

// exitProcess is a var so tests can override it instead of tearing down the
// test binary.
var exitProcess = os.Exit

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFatal)
	}
}
