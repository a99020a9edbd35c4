package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/launchpath/injector"
	"github.com/launchpath/injector/model"
	"github.com/launchpath/injector/version"
)

// version is set via build-time ldflags
var buildVersion = "dev"

var (
	feedDir         string
	commandName     string
	source          bool
	offline         bool
	helpWithTesting bool
	useFlags        []string
	restricts       []string
	osName          string
	machine         string
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:   "launchpath",
	Short: "Select component implementations from feed metadata",
	Long: `Launchpath picks one implementation per interface such that every
dependency is satisfied and no version restriction is violated,
preferring stable, recent, well-fitting candidates.

Feeds are read from a local directory (see --feeds). Each .xml file
describes one interface and its candidate implementations.`,
	Version:       buildVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&feedDir, "feeds", "f", "feeds", "directory of feed files")
	pf.StringVar(&commandName, "command", "run", "command to select on the root implementation (empty for none)")
	pf.BoolVar(&source, "source", false, "select source code rather than binaries")
	pf.BoolVar(&offline, "offline", false, "treat the network as unavailable")
	pf.BoolVar(&helpWithTesting, "help-with-testing", false, "accept testing-stability versions")
	pf.StringSliceVar(&useFlags, "use", nil, "enable a use flag (repeatable)")
	pf.StringSliceVar(&restricts, "restrict", nil, "extra restriction as URI=RANGE (repeatable)")
	pf.StringVar(&osName, "os", "", "override the host operating system")
	pf.StringVar(&machine, "machine", "", "override the host machine type")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log solving progress to stderr")

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(graphCmd)
}

// solveOptions converts the persistent flags into solver options.
func solveOptions() ([]injector.Option, error) {
	var opts []injector.Option
	if offline {
		opts = append(opts, injector.WithOffline())
	}
	if helpWithTesting {
		opts = append(opts, injector.WithHelpWithTesting())
	}
	if len(useFlags) > 0 {
		opts = append(opts, injector.WithUseFlags(useFlags...))
	}
	if osName != "" {
		opts = append(opts, injector.WithOS(osName))
	}
	if machine != "" {
		opts = append(opts, injector.WithMachine(machine))
	}
	if verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		opts = append(opts, injector.WithLogger(logger))
	}
	for _, spec := range restricts {
		uri, rangeExpr, found := strings.Cut(spec, "=")
		if !found {
			return nil, fmt.Errorf("bad restriction %q: want URI=RANGE", spec)
		}
		r, err := version.ParseRange(rangeExpr)
		if err != nil {
			return nil, fmt.Errorf("bad restriction %q: %w", spec, err)
		}
		opts = append(opts, injector.WithExtraRestrictions(uri, model.VersionRestriction{Range: r}))
	}
	return opts, nil
}

func loadFeeds() (*injector.FeedSet, error) {
	feeds := injector.NewFeedSet()
	if err := feeds.LoadDir(feedDir); err != nil {
		return nil, fmt.Errorf("while loading feeds from %s: %w", feedDir, err)
	}
	return feeds, nil
}

func requirement(uri string) model.Requirement {
	return model.Requirement{
		Interface: uri,
		Command:   commandName,
		Source:    source,
	}
}
